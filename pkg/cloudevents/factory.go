package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plantgate-platform/dispatch-service/pkg/tenant"
)

// EventFactory creates CloudEvents for dispatch domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new CloudEvent with the given parameters.
// Tenant context present on ctx is stamped onto the event.
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CloudEvent {
	event := &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	if tc := tenant.FromContextOptional(ctx); !tc.IsEmpty() {
		event.SetTenantContext(tc)
	}

	return event
}

// CreateBookingCreatedEvent creates a BookingCreated event
func (f *EventFactory) CreateBookingCreatedEvent(ctx context.Context, data BookingCreatedData) *CloudEvent {
	event := f.CreateEvent(ctx, BookingCreated, "booking/"+data.BookingID, data)
	event.BookingID = data.BookingID
	event.OrderID = data.OrderID
	return event
}

// CreateBookingClaimedEvent creates a BookingClaimed event
func (f *EventFactory) CreateBookingClaimedEvent(ctx context.Context, data BookingClaimedData) *CloudEvent {
	event := f.CreateEvent(ctx, BookingClaimed, "booking/"+data.BookingID, data)
	event.BookingID = data.BookingID
	return event
}

// CreateCheckpointPassedEvent creates a CheckpointPassed event
func (f *EventFactory) CreateCheckpointPassedEvent(ctx context.Context, data CheckpointPassedData) *CloudEvent {
	event := f.CreateEvent(ctx, CheckpointPassed, "booking/"+data.BookingID, data)
	event.BookingID = data.BookingID
	return event
}

// CreateBookingCompletedEvent creates a BookingCompleted event
func (f *EventFactory) CreateBookingCompletedEvent(ctx context.Context, data BookingFinishedData) *CloudEvent {
	event := f.CreateEvent(ctx, BookingCompleted, "booking/"+data.BookingID, data)
	event.BookingID = data.BookingID
	event.OrderID = data.OrderID
	return event
}

// CreateBookingCancelledEvent creates a BookingCancelled event
func (f *EventFactory) CreateBookingCancelledEvent(ctx context.Context, data BookingFinishedData) *CloudEvent {
	event := f.CreateEvent(ctx, BookingCancelled, "booking/"+data.BookingID, data)
	event.BookingID = data.BookingID
	event.OrderID = data.OrderID
	return event
}

// CreateOrderReconciledEvent creates an OrderReconciled event
func (f *EventFactory) CreateOrderReconciledEvent(ctx context.Context, data OrderReconciledData) *CloudEvent {
	event := f.CreateEvent(ctx, OrderReconciled, "order/"+data.OrderID, data)
	event.OrderID = data.OrderID
	return event
}
