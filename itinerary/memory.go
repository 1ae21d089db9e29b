package itinerary

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"itinera/models"
)

// MemoryRepository keeps itineraries in process memory.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]models.Itinerary
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.Itinerary), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, it models.Itinerary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ItineraryID]; ok {
		return fmt.Errorf("insert itinerary: duplicate id %s", it.ItineraryID)
	}
	r.items[it.ItineraryID] = clone(it)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (models.Itinerary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.Deleted {
		return models.Itinerary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(it), nil
}

func (r *MemoryRepository) List(_ context.Context, q Query) ([]models.Itinerary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := []models.Itinerary{}
	for _, it := range r.items {
		if it.Deleted || !matches(it, q) {
			continue
		}
		list = append(list, clone(it))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	if q.Skip >= int64(len(list)) {
		return []models.Itinerary{}, nil
	}
	list = list[q.Skip:]
	if q.Limit > 0 && int64(len(list)) > q.Limit {
		list = list[:q.Limit]
	}
	return list, nil
}

func matches(it models.Itinerary, q Query) bool {
	if q.UserID != "" && it.UserID != q.UserID {
		return false
	}
	if q.StartDate != "" && it.StartDate != q.StartDate {
		return false
	}
	if q.Status != "" && it.Status != q.Status {
		return false
	}
	if q.Published != nil && it.Published != *q.Published {
		return false
	}
	if q.Location == "" {
		return true
	}
	for _, d := range it.Days {
		for _, item := range d.Items {
			if item.Destination == q.Location || (item.Location != nil && item.Location.Name == q.Location) {
				return true
			}
		}
	}
	return false
}

func (r *MemoryRepository) UpdateMeta(_ context.Context, id string, m Meta) error {
	return r.mutate(id, func(it *models.Itinerary) error {
		if m.Name != nil {
			it.Name = *m.Name
		}
		if m.Description != nil {
			it.Description = *m.Description
		}
		if m.Status != nil {
			it.Status = *m.Status
		}
		return nil
	})
}

func (r *MemoryRepository) SaveDays(_ context.Context, id string, base int64, days []models.Day, startDate, endDate string) (int64, error) {
	var version int64
	err := r.mutate(id, func(it *models.Itinerary) error {
		if it.Version != base {
			return fmt.Errorf("%w: %s at version %d", ErrVersionConflict, id, base)
		}
		it.Days = cloneDays(days)
		it.StartDate = startDate
		it.EndDate = endDate
		it.Version++
		version = it.Version
		return nil
	})
	return version, err
}

func (r *MemoryRepository) SoftDelete(_ context.Context, id string) error {
	return r.mutate(id, func(it *models.Itinerary) error {
		now := r.now().UTC()
		it.Deleted = true
		it.DeletedAt = &now
		return nil
	})
}

func (r *MemoryRepository) Publish(_ context.Context, id string) error {
	return r.mutate(id, func(it *models.Itinerary) error {
		it.Published = true
		return nil
	})
}

func (r *MemoryRepository) PurgeDeleted(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, it := range r.items {
		if it.Deleted && it.DeletedAt != nil && it.DeletedAt.Before(before) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) mutate(id string, fn func(*models.Itinerary) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok || it.Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(&it); err != nil {
		return err
	}
	it.UpdatedAt = r.now().UTC()
	r.items[id] = it
	return nil
}

func clone(it models.Itinerary) models.Itinerary {
	it.Days = cloneDays(it.Days)
	return it
}

func cloneDays(days []models.Day) []models.Day {
	if days == nil {
		return nil
	}
	out := make([]models.Day, len(days))
	for i, d := range days {
		d.Items = append([]models.Item(nil), d.Items...)
		out[i] = d
	}
	return out
}

// MemoryDrafts is the in-process draft cache used when Redis is absent.
type MemoryDrafts struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]memoryDraft
	now    func() time.Time
}

type memoryDraft struct {
	draft   models.Draft
	expires time.Time
}

func NewMemoryDrafts(ttl time.Duration) *MemoryDrafts {
	return &MemoryDrafts{ttl: ttl, drafts: make(map[string]memoryDraft), now: time.Now}
}

func (m *MemoryDrafts) Load(_ context.Context, itineraryID string) (models.Draft, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[itineraryID]
	if !ok {
		return models.Draft{}, false, nil
	}
	if m.ttl > 0 && m.now().After(d.expires) {
		delete(m.drafts, itineraryID)
		return models.Draft{}, false, nil
	}
	out := d.draft
	out.Days = cloneDays(out.Days)
	return out, true, nil
}

func (m *MemoryDrafts) Store(_ context.Context, d models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.Days = cloneDays(d.Days)
	m.drafts[d.ItineraryID] = memoryDraft{draft: d, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryDrafts) Drop(_ context.Context, itineraryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, itineraryID)
	return nil
}
