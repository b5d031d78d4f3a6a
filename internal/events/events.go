// Package events publishes account lifecycle notifications for the back
// office: a registration waiting for approval, an approval being granted.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"tillpoint/internal/logger"
	"tillpoint/internal/uuid"
)

// Event types.
const (
	TypeRegistrationPending = "registration.pending"
	TypeUserApproved        = "user.approved"
)

// Event is the JSON body of one notification.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	BusinessID *uint     `json:"business_id,omitempty"`
}

// New stamps an event with a time-ordered id and the current time.
func New(eventType string, userID uint, username string, businessID *uint) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
		Username:   username,
		BusinessID: businessID,
	}
}

// Publisher delivers events. Callers treat publishing as best-effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when no broker
// is configured.
type LogPublisher struct {
	log *zap.SugaredLogger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{log: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.log.Infow("Auth event", "type", event.Type, "id", event.ID, "body", string(body))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
