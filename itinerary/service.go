package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"itinera/logx"
	"itinera/models"
	"itinera/products"
	"itinera/timeline"
	"itinera/utils"
)

// ErrTooManyDays rejects date ranges longer than the configured maximum.
var ErrTooManyDays = fmt.Errorf("%w: trip is too long", timeline.ErrInvalidRange)

// DraftCache holds the working timeline of an open editing session.
type DraftCache interface {
	Load(ctx context.Context, itineraryID string) (models.Draft, bool, error)
	Store(ctx context.Context, d models.Draft) error
	Drop(ctx context.Context, itineraryID string) error
}

// Session is the editing view of one itinerary.
type Session struct {
	ItineraryID string       `json:"itineraryid"`
	Name        string       `json:"name"`
	Version     int64        `json:"version"`
	Revision    int64        `json:"revision"`
	Dirty       bool         `json:"dirty"`
	Days        []models.Day `json:"days"`
}

// IntentRequest is an intent as posted by the UI. ProductID may replace an
// inline product on drops.
type IntentRequest struct {
	timeline.Intent
	ProductID string `json:"productId,omitempty"`
}

// SaveResult is returned after a successful save.
type SaveResult struct {
	Itinerary models.Itinerary  `json:"itinerary"`
	Payload   []models.SavedDay `json:"payload"`
}

type Service struct {
	repo        Repository
	drafts      DraftCache
	catalog     products.Catalog
	dispatcher  *timeline.Dispatcher
	locks       *lockset
	maxTripDays int
	now         func() time.Time
}

func NewService(repo Repository, drafts DraftCache, catalog products.Catalog, notifier timeline.Notifier, engine timeline.Engine, maxTripDays int) *Service {
	return &Service{
		repo:        repo,
		drafts:      drafts,
		catalog:     catalog,
		dispatcher:  timeline.NewDispatcher(timeline.NewStore(engine), notifier),
		locks:       newLockset(),
		maxTripDays: maxTripDays,
		now:         time.Now,
	}
}

func (s *Service) store() timeline.Store {
	return s.dispatcher.Store
}

// Create stores a new itinerary owned by userID. Dates, when both are set,
// lay out one empty day per date.
func (s *Service) Create(ctx context.Context, userID string, in models.Itinerary) (models.Itinerary, error) {
	now := s.now().UTC()
	it := models.Itinerary{
		ItineraryID: utils.GenerateRandomString(13),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Status:      in.Status,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if it.Name == "" {
		return it, fmt.Errorf("%w: name is required", timeline.ErrInvalidIntent)
	}
	if it.Status == "" {
		it.Status = models.StatusDraft
	}

	t := s.store().Normalize(timeline.FromDays(in.Days))
	if in.StartDate != "" || in.EndDate != "" {
		rng := timeline.Intent{Kind: timeline.IntentDateRange, StartDate: in.StartDate, EndDate: in.EndDate}
		if err := s.checkRange(rng); err != nil {
			return it, err
		}
		var err error
		if t, err = s.dispatcher.Dispatch(t, rng); err != nil {
			return it, err
		}
	}
	if s.maxTripDays > 0 && len(t.Days) > s.maxTripDays {
		return it, ErrTooManyDays
	}
	if len(t.Days) == 0 {
		t = s.store().AddDay(t)
	}
	it.Days = t.Days
	it.StartDate, it.EndDate = dateSpan(t.Days)

	if err := s.repo.Create(ctx, it); err != nil {
		return it, err
	}
	logx.Info("itinerary created", "id", it.ItineraryID, "user", userID, "days", len(it.Days))
	return it, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Itinerary, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q Query) ([]models.Itinerary, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) UpdateMeta(ctx context.Context, userID, id string, m Meta) (models.Itinerary, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return models.Itinerary{}, err
	}
	if m.Name != nil && strings.TrimSpace(*m.Name) == "" {
		return models.Itinerary{}, fmt.Errorf("%w: name is required", timeline.ErrInvalidIntent)
	}
	if err := s.repo.UpdateMeta(ctx, id, m); err != nil {
		return models.Itinerary{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.drafts.Drop(ctx, id); err != nil {
		logx.Error("drop draft after delete", err, "id", id)
	}
	return nil
}

func (s *Service) Publish(ctx context.Context, userID, id string) (models.Itinerary, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return models.Itinerary{}, err
	}
	if err := s.repo.Publish(ctx, id); err != nil {
		return models.Itinerary{}, err
	}
	return s.repo.Get(ctx, id)
}

// Fork copies the saved schedule of a published itinerary, or one of the
// caller's own, into a new draft itinerary owned by userID.
func (s *Service) Fork(ctx context.Context, userID, id string) (models.Itinerary, error) {
	original, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Itinerary{}, err
	}
	if !original.Published && original.UserID != userID {
		return models.Itinerary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := s.now().UTC()
	originalID := original.ItineraryID
	t := s.store().Remint(s.store().Normalize(timeline.FromDays(original.Days)))
	fork := models.Itinerary{
		ItineraryID: utils.GenerateRandomString(13),
		UserID:      userID,
		Name:        "Forked - " + original.Name,
		Description: original.Description,
		StartDate:   original.StartDate,
		EndDate:     original.EndDate,
		Days:        t.Days,
		Status:      models.StatusDraft,
		ForkedFrom:  &originalID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, fork); err != nil {
		return models.Itinerary{}, err
	}
	logx.Info("itinerary forked", "from", originalID, "id", fork.ItineraryID, "user", userID)
	return fork, nil
}

// Authorize reports whether userID may edit or watch itinerary id.
func (s *Service) Authorize(ctx context.Context, userID, id string) error {
	_, err := s.owned(ctx, userID, id)
	return err
}

// Timeline returns the working copy: the open draft, or the saved days.
func (s *Service) Timeline(ctx context.Context, userID, id string) (Session, error) {
	it, d, _, err := s.session(ctx, userID, id)
	if err != nil {
		return Session{}, err
	}
	return sessionOf(it, d), nil
}

func (s *Service) Summary(ctx context.Context, userID, id string) ([]timeline.DaySummary, error) {
	_, d, _, err := s.session(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return timeline.Summarize(timeline.FromDays(d.Days)), nil
}

// Apply runs one intent against the working copy. Intents on the same
// itinerary are applied one at a time.
func (s *Service) Apply(ctx context.Context, userID, id string, req IntentRequest) (Session, error) {
	in := req.Intent
	in.Itinerary = id
	if in.Kind == timeline.IntentDrop && in.Product == nil && req.ProductID != "" {
		p, err := s.catalog.Get(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, products.ErrNotFound) {
				return Session{}, fmt.Errorf("%w: %v", timeline.ErrInvalidIntent, err)
			}
			return Session{}, err
		}
		in.Product = &p
	}
	if in.Kind == timeline.IntentDrop && in.Product != nil && !in.Product.ProductType.Valid() {
		return Session{}, fmt.Errorf("%w: unknown product type %q", timeline.ErrInvalidIntent, in.Product.ProductType)
	}

	if err := s.checkRange(in); err != nil {
		return Session{}, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	it, d, _, err := s.session(ctx, userID, id)
	if err != nil {
		return Session{}, err
	}
	next, err := s.dispatcher.Dispatch(timeline.FromDays(d.Days), in)
	if err != nil {
		return Session{}, err
	}
	if in.Kind == timeline.IntentAddDay && s.maxTripDays > 0 && len(next.Days) > s.maxTripDays {
		return Session{}, ErrTooManyDays
	}

	d.Days = next.Days
	d.Revision++
	d.UpdatedAt = s.now().UTC()
	if err := s.drafts.Store(ctx, d); err != nil {
		return Session{}, err
	}
	logx.Debug("intent applied", "id", id, "kind", in.Kind, "revision", d.Revision)
	return sessionOf(it, d), nil
}

// Save persists the working copy. A draft opened on an older version fails
// with ErrVersionConflict and is kept.
func (s *Service) Save(ctx context.Context, userID, id string) (SaveResult, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	it, d, open, err := s.session(ctx, userID, id)
	if err != nil {
		return SaveResult{}, err
	}
	t := timeline.FromDays(d.Days)
	if !open {
		return SaveResult{Itinerary: it, Payload: t.Payload()}, nil
	}

	start, end := dateSpan(d.Days)
	version, err := s.repo.SaveDays(ctx, id, d.BaseVersion, d.Days, start, end)
	if err != nil {
		return SaveResult{}, err
	}
	if err := s.drafts.Drop(ctx, id); err != nil {
		logx.Error("drop draft after save", err, "id", id)
	}
	it.Days, it.Version, it.StartDate, it.EndDate = d.Days, version, start, end
	it.UpdatedAt = s.now().UTC()
	logx.Info("itinerary saved", "id", id, "version", version, "days", len(d.Days))
	return SaveResult{Itinerary: it, Payload: t.Payload()}, nil
}

// Discard throws the open draft away.
func (s *Service) Discard(ctx context.Context, userID, id string) (Session, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	it, err := s.owned(ctx, userID, id)
	if err != nil {
		return Session{}, err
	}
	if err := s.drafts.Drop(ctx, id); err != nil {
		return Session{}, err
	}
	return sessionOf(it, s.freshDraft(it)), nil
}

// PurgeDeleted removes itineraries soft-deleted before the cutoff.
func (s *Service) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.PurgeDeleted(ctx, before)
}

// checkRange rejects date ranges spanning more than maxTripDays days before
// any day is generated. Malformed dates are left to the dispatcher.
func (s *Service) checkRange(in timeline.Intent) error {
	if in.Kind != timeline.IntentDateRange || s.maxTripDays <= 0 {
		return nil
	}
	start, err1 := time.Parse(timeline.DateLayout, strings.TrimSpace(in.StartDate))
	end, err2 := time.Parse(timeline.DateLayout, strings.TrimSpace(in.EndDate))
	if err1 != nil || err2 != nil {
		return nil
	}
	if timeline.DaysBetween(start, end)+1 > s.maxTripDays {
		return ErrTooManyDays
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (models.Itinerary, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return it, err
	}
	if it.UserID != userID {
		return it, fmt.Errorf("%w: %s", ErrForbidden, id)
	}
	return it, nil
}

// session loads the itinerary and its working copy. open reports whether
// the copy came from the draft cache.
func (s *Service) session(ctx context.Context, userID, id string) (models.Itinerary, models.Draft, bool, error) {
	it, err := s.owned(ctx, userID, id)
	if err != nil {
		return it, models.Draft{}, false, err
	}
	d, ok, err := s.drafts.Load(ctx, id)
	if err != nil {
		return it, d, false, err
	}
	if !ok {
		return it, s.freshDraft(it), false, nil
	}
	return it, d, true, nil
}

func (s *Service) freshDraft(it models.Itinerary) models.Draft {
	t := s.store().Normalize(timeline.FromDays(it.Days))
	return models.Draft{
		ItineraryID: it.ItineraryID,
		OwnerID:     it.UserID,
		BaseVersion: it.Version,
		Days:        t.Days,
		UpdatedAt:   it.UpdatedAt,
	}
}

func sessionOf(it models.Itinerary, d models.Draft) Session {
	days := d.Days
	if days == nil {
		days = []models.Day{}
	}
	return Session{
		ItineraryID: it.ItineraryID,
		Name:        it.Name,
		Version:     it.Version,
		Revision:    d.Revision,
		Dirty:       d.Revision > 0,
		Days:        days,
	}
}

// dateSpan returns the first and last dates of a dated timeline.
func dateSpan(days []models.Day) (string, string) {
	if len(days) == 0 {
		return "", ""
	}
	return days[0].Date, days[len(days)-1].Date
}

// lockset hands out one mutex per itinerary id and forgets it once no
// caller holds or waits on it.
type lockset struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newLockset() *lockset {
	return &lockset{locks: make(map[string]*keyLock)}
}

func (l *lockset) lock(id string) func() {
	l.mu.Lock()
	k, ok := l.locks[id]
	if !ok {
		k = &keyLock{}
		l.locks[id] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()
	return func() {
		k.mu.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
