package itinerary

import (
	"context"
	"errors"
	"net/http"
	"time"

	"itinera/logx"
	"itinera/models"
	"itinera/timeline"
	"itinera/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Service *Service
	// PublicBaseURL prefixes the share link printed on PDF exports.
	PublicBaseURL string
	Now           func() time.Time
}

func NewHandler(svc *Service, publicBaseURL string) *Handler {
	return &Handler{Service: svc, PublicBaseURL: publicBaseURL, Now: time.Now}
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

// respondErr maps domain errors onto the JSON error envelope.
func respondErr(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, "Itinerary not found")
	case errors.Is(err, timeline.ErrDayNotFound), errors.Is(err, timeline.ErrItemNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.CodeNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, utils.CodeForbidden, "Forbidden")
	case errors.Is(err, ErrVersionConflict):
		utils.WriteError(w, http.StatusConflict, utils.CodeConflict, "Itinerary was changed since this draft was opened; discard the draft and retry")
	case errors.Is(err, timeline.ErrInvalidRange),
		errors.Is(err, timeline.ErrInvalidTime),
		errors.Is(err, timeline.ErrInvalidIntent):
		utils.WriteError(w, http.StatusBadRequest, utils.CodeBadRequest, err.Error())
	default:
		logx.Error(action, err)
		utils.WriteError(w, http.StatusInternalServerError, utils.CodeInternal, "Error "+action)
	}
}

// GET /api/itineraries
// Lists published itineraries, or the caller's own with ?mine=true.
func (h *Handler) GetItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	opts := utils.ParseQueryOptions(r)
	q := Query{Skip: opts.Skip(), Limit: int64(opts.Limit), Status: r.URL.Query().Get("status")}
	if r.URL.Query().Get("mine") == "true" {
		q.UserID = utils.GetUserIDFromRequest(r)
		if q.UserID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		q.Published = opts.Published
	} else {
		published := true
		q.Published = &published
	}

	itineraries, err := h.Service.List(ctx, q)
	if err != nil {
		respondErr(w, err, "fetching itineraries")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, itineraries)
}

// GET /api/itineraries/search
func (h *Handler) SearchItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	query := r.URL.Query()
	opts := utils.ParseQueryOptions(r)
	published := true
	q := Query{
		StartDate: query.Get("start_date"),
		Location:  query.Get("location"),
		Status:    query.Get("status"),
		Published: &published,
		Skip:      opts.Skip(),
		Limit:     int64(opts.Limit),
	}
	itineraries, err := h.Service.List(ctx, q)
	if err != nil {
		respondErr(w, err, "searching itineraries")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, itineraries)
}

// POST /api/itineraries
func (h *Handler) CreateItinerary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var itinerary models.Itinerary
	if err := utils.DecodeJSON(w, r, &itinerary); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := h.Service.Create(ctx, utils.GetUserIDFromRequest(r), itinerary)
	if err != nil {
		respondErr(w, err, "creating itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// GET /api/itineraries/all/:id
// Unpublished itineraries are only visible to their owner.
func (h *Handler) GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	itinerary, err := h.Service.Get(ctx, ps.ByName("id"))
	if err == nil && !itinerary.Published && itinerary.UserID != utils.GetUserIDFromRequest(r) {
		err = ErrNotFound
	}
	if err != nil {
		respondErr(w, err, "fetching itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, itinerary)
}

// PUT /api/itineraries/:id
func (h *Handler) UpdateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var meta Meta
	if err := utils.DecodeJSON(w, r, &meta); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := h.Service.UpdateMeta(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), meta)
	if err != nil {
		respondErr(w, err, "updating itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DELETE /api/itineraries/:id
func (h *Handler) DeleteItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.Service.Delete(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		respondErr(w, err, "deleting itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary deleted successfully"})
}

// POST /api/itineraries/:id/fork
func (h *Handler) ForkItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	fork, err := h.Service.Fork(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		respondErr(w, err, "forking itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, fork)
}

// PUT /api/itineraries/:id/publish
func (h *Handler) PublishItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()

	published, err := h.Service.Publish(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		respondErr(w, err, "publishing itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, published)
}
