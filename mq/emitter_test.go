package mq

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"itinera/models"

	"github.com/redis/go-redis/v9"
)

type collect struct {
	mu  sync.Mutex
	got []models.Notice
}

func (c *collect) Deliver(n models.Notice) {
	c.mu.Lock()
	c.got = append(c.got, n)
	c.mu.Unlock()
}

func (c *collect) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestForward(t *testing.T) {
	c := &collect{}
	if err := forward(`{"id":"n1","itineraryid":"it-1","kind":"drop","summary":"Added","timestamp":1}`, c); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if err := forward(`not json`, c); err == nil {
		t.Fatal("expected parse error")
	}
	if err := forward(`{"id":"n2"}`, c); err == nil {
		t.Fatal("expected error for notice without itinerary")
	}
	if c.len() != 1 || c.got[0].Kind != "drop" {
		t.Fatalf("unexpected deliveries %+v", c.got)
	}
}

func TestDirect(t *testing.T) {
	c := &collect{}
	Direct{Sink: c}.Notify(models.Notice{ItineraryID: "it-1"})
	if c.len() != 1 {
		t.Fatalf("expected one delivery, got %d", c.len())
	}
}

// Runs against a live server only when REDIS_ADDR is set.
func TestEmitterThroughRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &collect{}
	go StartNoticeWorker(ctx, client, c)
	time.Sleep(200 * time.Millisecond)

	NewEmitter(client).Notify(models.Notice{ID: "n1", ItineraryID: "it-1", Kind: "move"})
	deadline := time.Now().Add(3 * time.Second)
	for c.len() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if c.len() != 1 {
		t.Fatalf("expected one notice, got %d", c.len())
	}
}
