// Package events publishes transaction lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names a transaction lifecycle change
type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
)

// Event is a lightweight notification; consumers fetch the record themselves
type Event struct {
	Type          Type      `json:"type"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// New stamps an event with the current time
func New(t Type, transactionID, userID uuid.UUID) Event {
	return Event{
		Type:          t,
		TransactionID: transactionID,
		UserID:        userID,
		OccurredAt:    time.Now().UTC(),
	}
}

// ToJSON encodes the event as a message body
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to interested parties
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
