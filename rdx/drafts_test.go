package rdx

import (
	"context"
	"os"
	"testing"
	"time"

	"itinera/models"
)

// Runs against a live server only when REDIS_ADDR is set.
func TestDraftStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	store := NewDraftStore(client, time.Minute)
	id := "test-" + time.Now().Format("150405.000000")
	defer store.Drop(ctx, id)

	if _, ok, err := store.Load(ctx, id); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	in := models.Draft{
		ItineraryID: id,
		OwnerID:     "u1",
		BaseVersion: 3,
		Days:        []models.Day{{DayNumber: 1, Items: []models.Item{{TimelineID: "t1", Title: "Museum", StartTime: "09:00", Duration: 60}}}},
	}
	if err := store.Store(ctx, in); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok, err := store.Load(ctx, id)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.BaseVersion != 3 || got.Days[0].Items[0].StartTime != "09:00" {
		t.Fatalf("unexpected draft %+v", got)
	}
	if ttl := client.TTL(ctx, draftKey(id)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	if err := store.Drop(ctx, id); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok, _ := store.Load(ctx, id); ok {
		t.Fatal("draft survived drop")
	}
}
