package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"itinera/models"

	"github.com/redis/go-redis/v9"
)

const draftPrefix = "itinerary:draft:"

// DraftStore keeps editing sessions as JSON values that expire after TTL.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func draftKey(itineraryID string) string {
	return draftPrefix + itineraryID
}

// Load reports ok=false when no session is open.
func (s *DraftStore) Load(ctx context.Context, itineraryID string) (models.Draft, bool, error) {
	var d models.Draft
	raw, err := s.client.Get(ctx, draftKey(itineraryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return d, false, nil
	}
	if err != nil {
		return d, false, fmt.Errorf("load draft %s: %w", itineraryID, err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, false, fmt.Errorf("decode draft %s: %w", itineraryID, err)
	}
	return d, true, nil
}

// Store writes the draft and refreshes its TTL.
func (s *DraftStore) Store(ctx context.Context, d models.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", d.ItineraryID, err)
	}
	if err := s.client.Set(ctx, draftKey(d.ItineraryID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store draft %s: %w", d.ItineraryID, err)
	}
	return nil
}

func (s *DraftStore) Drop(ctx context.Context, itineraryID string) error {
	if err := s.client.Del(ctx, draftKey(itineraryID)).Err(); err != nil {
		return fmt.Errorf("drop draft %s: %w", itineraryID, err)
	}
	return nil
}
