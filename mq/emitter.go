package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"itinera/logx"
	"itinera/models"

	"github.com/redis/go-redis/v9"
)

// NoticeChannel carries timeline notices between server instances.
const NoticeChannel = "itinerary-notices"

// Sink receives notices for delivery to connected clients.
type Sink interface {
	Deliver(n models.Notice)
}

// Emitter publishes notices to Redis without blocking the caller.
type Emitter struct {
	client  *redis.Client
	channel string
	timeout time.Duration
}

func NewEmitter(client *redis.Client) *Emitter {
	return &Emitter{client: client, channel: NoticeChannel, timeout: 2 * time.Second}
}

// Notify publishes in the background; failures are only logged.
func (e *Emitter) Notify(n models.Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		logx.Error("marshal notice", err, "itinerary", n.ItineraryID)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.client.Publish(ctx, e.channel, data).Err(); err != nil {
			logx.Error("publish notice", err, "itinerary", n.ItineraryID, "kind", n.Kind)
			return
		}
		logx.Debug("notice published", "itinerary", n.ItineraryID, "kind", n.Kind)
	}()
}

// Direct hands notices straight to a local sink, for single-instance runs.
type Direct struct {
	Sink Sink
}

func (d Direct) Notify(n models.Notice) {
	d.Sink.Deliver(n)
}

// StartNoticeWorker forwards published notices to sink until ctx is done.
func StartNoticeWorker(ctx context.Context, client *redis.Client, sink Sink) error {
	sub := client.Subscribe(ctx, NoticeChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", NoticeChannel, err)
	}
	ch := sub.Channel()

	logx.Info("notice worker listening", "channel", NoticeChannel)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := forward(msg.Payload, sink); err != nil {
				logx.Error("notice worker", err)
			}
		}
	}
}

func forward(payload string, sink Sink) error {
	var n models.Notice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return fmt.Errorf("parse notice: %w", err)
	}
	if n.ItineraryID == "" {
		return fmt.Errorf("notice %s has no itinerary", n.ID)
	}
	sink.Deliver(n)
	return nil
}
