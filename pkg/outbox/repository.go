package outbox

import (
	"context"
	"time"
)

// Repository persists staged outbox events
type Repository interface {
	// Save stages a single event
	Save(ctx context.Context, event *Event) error

	// SaveAll stages multiple events in one write
	SaveAll(ctx context.Context, events []*Event) error

	// FindUnpublished returns undelivered events in creation order,
	// skipping events that exhausted their retry budget
	FindUnpublished(ctx context.Context, limit int) ([]*Event, error)

	// MarkPublished records a successful delivery
	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry records a failed delivery attempt
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// DeletePublished removes delivered events older than the given age
	DeletePublished(ctx context.Context, olderThan time.Duration) error
}
