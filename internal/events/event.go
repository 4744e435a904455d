package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// TopicSessions carries session lifecycle events
	TopicSessions = "practice.sessions"

	EventSessionCompleted = "session.completed"
	EventSessionAbandoned = "session.abandoned"

	eventSource  = "practice-service"
	eventVersion = "1.0"
)

// Event is the envelope written to every topic
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    uint            `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType string, userID uint, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      raw,
	}, nil
}

// Decode unmarshals the payload into dest
func (e *Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", e.Type, err)
	}
	return nil
}

// SessionCompletedData is published when a session is finished
type SessionCompletedData struct {
	SessionID      uint      `json:"session_id"`
	UserID         uint      `json:"user_id"`
	QuizID         *uint     `json:"quiz_id,omitempty"`
	TotalScore     int       `json:"total_score"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	Accuracy       float64   `json:"accuracy"`
	CompletedAt    time.Time `json:"completed_at"`
}

// SessionAbandonedData is published when a user gives up on a session
type SessionAbandonedData struct {
	SessionID   uint      `json:"session_id"`
	UserID      uint      `json:"user_id"`
	AbandonedAt time.Time `json:"abandoned_at"`
}
