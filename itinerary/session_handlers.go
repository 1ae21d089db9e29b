package itinerary

import (
	"net/http"
	"strconv"

	"itinera/models"
	"itinera/timeline"
	"itinera/utils"

	"github.com/julienschmidt/httprouter"
)

func dayParam(w http.ResponseWriter, ps httprouter.Params) (int, bool) {
	day, err := strconv.Atoi(ps.ByName("day"))
	if err != nil || day < 1 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid day number")
		return 0, false
	}
	return day, true
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, id string, req IntentRequest) {
	ctx, cancel := requestContext(r)
	defer cancel()

	session, err := h.Service.Apply(ctx, utils.GetUserIDFromRequest(r), id, req)
	if err != nil {
		respondErr(w, err, "applying "+string(req.Kind))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, session)
}

// GET /api/timelines/:id
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	session, err := h.Service.Timeline(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		respondErr(w, err, "loading timeline")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, session)
}

// GET /api/timelines/:id/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	summary, err := h.Service.Summary(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		respondErr(w, err, "summarizing timeline")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

// POST /api/timelines/:id/intents
func (h *Handler) PostIntent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req IntentRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.apply(w, r, ps.ByName("id"), req)
}

// POST /api/timelines/:id/days
func (h *Handler) AddDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.apply(w, r, ps.ByName("id"), IntentRequest{Intent: timeline.Intent{Kind: timeline.IntentAddDay}})
}

// PUT /api/timelines/:id/dates
func (h *Handler) SetDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.apply(w, r, ps.ByName("id"), IntentRequest{Intent: timeline.Intent{
		Kind:      timeline.IntentDateRange,
		StartDate: body.StartDate,
		EndDate:   body.EndDate,
	}})
}

// POST /api/timelines/:id/days/:day/items
// Drops a library product onto a day, appended unless index is given.
func (h *Handler) DropItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}
	var body struct {
		ProductID string          `json:"productId"`
		Product   *models.Product `json:"product"`
		Index     *int            `json:"index"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.apply(w, r, ps.ByName("id"), IntentRequest{
		Intent:    timeline.Intent{Kind: timeline.IntentDrop, Day: day, Product: body.Product, Index: body.Index},
		ProductID: body.ProductID,
	})
}

// PUT /api/timelines/:id/days/:day/items/:tid/time
func (h *Handler) EditTime(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}
	var body struct {
		StartTime string           `json:"startTime"`
		Duration  timeline.Minutes `json:"duration"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.apply(w, r, ps.ByName("id"), IntentRequest{Intent: timeline.Intent{
		Kind:       timeline.IntentEditTime,
		Day:        day,
		TimelineID: ps.ByName("tid"),
		StartTime:  body.StartTime,
		Duration:   body.Duration,
	}})
}

// DELETE /api/timelines/:id/days/:day/items/:tid
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}
	h.apply(w, r, ps.ByName("id"), IntentRequest{Intent: timeline.Intent{
		Kind:       timeline.IntentDelete,
		Day:        day,
		TimelineID: ps.ByName("tid"),
	}})
}

// POST /api/timelines/:id/moves
// A move with toDay equal to fromDay, or without toDay, is a reorder.
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		TimelineID string `json:"timelineId"`
		FromDay    int    `json:"fromDay"`
		ToDay      int    `json:"toDay"`
		Index      *int   `json:"index"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind := timeline.IntentMove
	if body.ToDay == 0 || body.ToDay == body.FromDay {
		kind = timeline.IntentReorder
	}
	h.apply(w, r, ps.ByName("id"), IntentRequest{Intent: timeline.Intent{
		Kind:       kind,
		Day:        body.FromDay,
		ToDay:      body.ToDay,
		TimelineID: body.TimelineID,
		Index:      body.Index,
	}})
}

// POST /api/timelines/:id/save
func (h *Handler) Save(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	result, err := h.Service.Save(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		respondErr(w, err, "saving itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// DELETE /api/timelines/:id/draft
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	session, err := h.Service.Discard(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		respondErr(w, err, "discarding draft")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, session)
}

// GET /api/timelines/:id/export/pdf
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	id := ps.ByName("id")
	session, err := h.Service.Timeline(ctx, utils.GetUserIDFromRequest(r), id)
	if err != nil {
		respondErr(w, err, "loading timeline")
		return
	}
	share := ""
	if h.PublicBaseURL != "" {
		share = h.PublicBaseURL + "/itineraries/" + id
	}
	data, err := RenderPDF(session, share, h.Now())
	if err != nil {
		respondErr(w, err, "rendering pdf")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=itinerary-"+id+".pdf")
	w.Write(data)
}

// GET /api/timelines/:id/export/ics
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	id := ps.ByName("id")
	session, err := h.Service.Timeline(ctx, utils.GetUserIDFromRequest(r), id)
	if err != nil {
		respondErr(w, err, "loading timeline")
		return
	}
	body, err := RenderICS(session, h.Now().UTC())
	if err != nil {
		respondErr(w, err, "rendering calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=itinerary-"+id+".ics")
	w.Write([]byte(body))
}
