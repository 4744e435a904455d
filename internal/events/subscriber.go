package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Handler processes one decoded event
type Handler func(ctx context.Context, event *Event) error

const (
	maxHandleAttempts = 3
	retryBackoff      = 200 * time.Millisecond
)

// Subscriber dispatches events from one topic to handlers registered by event type
type Subscriber struct {
	subscriber message.Subscriber
	handlers   map[string]Handler
	logger     *slog.Logger
}

func NewSubscriber(subscriber message.Subscriber, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		subscriber: subscriber,
		handlers:   make(map[string]Handler),
		logger:     logger,
	}
}

// Handle registers h for eventType. Must be called before Run.
func (s *Subscriber) Handle(eventType string, h Handler) {
	s.handlers[eventType] = h
}

// Run consumes topic until ctx is cancelled or the subscriber is closed
func (s *Subscriber) Run(ctx context.Context, topic string) error {
	messages, err := s.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	s.logger.Info("Event subscriber started", "topic", topic)
	for msg := range messages {
		s.process(msg)
	}
	s.logger.Info("Event subscriber stopped", "topic", topic)
	return nil
}

func (s *Subscriber) process(msg *message.Message) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Redelivery cannot fix a malformed payload
		s.logger.Error("Dropping undecodable event", "message_uuid", msg.UUID, "error", err)
		msg.Ack()
		return
	}

	handler, ok := s.handlers[event.Type]
	if !ok {
		msg.Ack()
		return
	}

	var err error
	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		if err = handler(msg.Context(), &event); err == nil {
			msg.Ack()
			return
		}
		s.logger.Warn("Event handler failed",
			"event_type", event.Type,
			"event_id", event.ID,
			"attempt", attempt,
			"error", err)
		if attempt < maxHandleAttempts {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
	}

	// Handlers are idempotent recomputes and the batch commands repair any gap, so the
	// message is dropped instead of being redelivered forever.
	s.logger.Error("Event handler gave up", "event_type", event.Type, "event_id", event.ID, "error", err)
	msg.Ack()
}
