package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventSessionCompleted, 7, SessionCompletedData{SessionID: 3, UserID: 7, TotalScore: 20})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "practice-service", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())

	var data SessionCompletedData
	require.NoError(t, event.Decode(&data))
	assert.Equal(t, uint(3), data.SessionID)
	assert.Equal(t, 20, data.TotalScore)
}

func TestMockEventPublisher(t *testing.T) {
	pub := NewMockEventPublisher(testLogger())
	event, err := NewEvent(EventSessionCompleted, 1, SessionCompletedData{SessionID: 1})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), TopicSessions, event))
	assert.Len(t, pub.GetPublishedEvents(), 1)

	pub.ClearEvents()
	assert.Empty(t, pub.GetPublishedEvents())

	pub.Err = errors.New("broker down")
	assert.Error(t, pub.Publish(context.Background(), TopicSessions, event))
}

func newChannel(t *testing.T) *gochannel.GoChannel {
	ch := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(testLogger()))
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func TestSubscriber_DispatchesByType(t *testing.T) {
	ch := newChannel(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan SessionCompletedData, 1)
	sub := NewSubscriber(ch, testLogger())
	sub.Handle(EventSessionCompleted, func(ctx context.Context, event *Event) error {
		var data SessionCompletedData
		if err := event.Decode(&data); err != nil {
			return err
		}
		received <- data
		return nil
	})

	messages, err := ch.Subscribe(ctx, TopicSessions)
	require.NoError(t, err)
	go func() {
		for msg := range messages {
			sub.process(msg)
		}
	}()

	pub := NewWatermillPublisher(ch, testLogger())
	ignored, err := NewEvent(EventSessionAbandoned, 9, SessionAbandonedData{SessionID: 1})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, TopicSessions, ignored))

	event, err := NewEvent(EventSessionCompleted, 9, SessionCompletedData{SessionID: 42, UserID: 9})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, TopicSessions, event))

	select {
	case data := <-received:
		assert.Equal(t, uint(42), data.SessionID)
		assert.Equal(t, uint(9), data.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestSubscriber_RetriesThenAcks(t *testing.T) {
	sub := NewSubscriber(nil, testLogger())
	var calls atomic.Int32
	sub.Handle(EventSessionCompleted, func(ctx context.Context, event *Event) error {
		calls.Add(1)
		return errors.New("database unavailable")
	})

	event, err := NewEvent(EventSessionCompleted, 1, SessionCompletedData{SessionID: 1})
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), raw)

	sub.process(msg)

	assert.Equal(t, int32(maxHandleAttempts), calls.Load())
	select {
	case <-msg.Acked():
	default:
		t.Fatal("message should be acked after the last attempt")
	}
}

func TestSubscriber_DropsMalformedPayload(t *testing.T) {
	sub := NewSubscriber(nil, testLogger())
	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))

	sub.process(msg)

	select {
	case <-msg.Acked():
	default:
		t.Fatal("malformed message should be acked")
	}
}
