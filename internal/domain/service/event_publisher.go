package service

import (
	"context"
	"time"
)

// AccountEventType names a credential change other services may react to.
type AccountEventType string

const (
	AccountRegistered      AccountEventType = "account.registered"
	AccountEmailChanged    AccountEventType = "account.email_changed"
	AccountPasswordChanged AccountEventType = "account.password_changed"
)

// AccountEvent is published after a credential change has been persisted.
type AccountEvent struct {
	EventID    string           `json:"event_id"`
	Type       AccountEventType `json:"type"`
	UserID     string           `json:"user_id"`
	Username   string           `json:"username"`
	Email      string           `json:"email"`
	OccurredAt time.Time        `json:"occurred_at"`
	RequestID  string           `json:"request_id,omitempty"` // For distributed tracing
}

// EventPublisher defines the interface for publishing account events to a message queue
type EventPublisher interface {
	// PublishAccountEvent publishes a single account event
	PublishAccountEvent(ctx context.Context, event *AccountEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
