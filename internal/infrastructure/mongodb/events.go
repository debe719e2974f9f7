package mongodb

import (
	"context"
	"fmt"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
	"github.com/plantgate-platform/dispatch-service/pkg/kafka"
	"github.com/plantgate-platform/dispatch-service/pkg/outbox"
	outboxMongo "github.com/plantgate-platform/dispatch-service/pkg/outbox/mongodb"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// stageDomainEvents converts pending domain events to CloudEvents and
// writes them to the outbox. Callers invoke it with the same context
// as the aggregate write so both land in one transaction.
func stageDomainEvents(
	ctx context.Context,
	outboxRepo *outboxMongo.Repository,
	eventFactory *cloudevents.EventFactory,
	aggregateID, aggregateType string,
	events []domain.DomainEvent,
) error {
	if len(events) == 0 {
		return nil
	}

	staged := make([]*outbox.Event, 0, len(events))
	for _, event := range events {
		cloudEvent, topic := toCloudEvent(ctx, eventFactory, event)
		if cloudEvent == nil {
			continue
		}

		outboxEvent, err := outbox.NewEvent(aggregateID, aggregateType, topic, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		staged = append(staged, outboxEvent)
	}

	if err := outboxRepo.SaveAll(ctx, staged); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

func toCloudEvent(ctx context.Context, factory *cloudevents.EventFactory, event domain.DomainEvent) (*cloudevents.CloudEvent, string) {
	switch e := event.(type) {
	case *domain.BookingCreatedEvent:
		ce := factory.CreateEvent(ctx, e.EventType(), "booking/"+e.BookingID, e)
		ce.BookingID = e.BookingID
		ce.OrderID = e.OrderID
		return ce, kafka.Topics.BookingEvents
	case *domain.BookingClaimedEvent:
		ce := factory.CreateEvent(ctx, e.EventType(), "booking/"+e.BookingID, e)
		ce.BookingID = e.BookingID
		return ce, kafka.Topics.BookingEvents
	case *domain.CheckpointPassedEvent:
		ce := factory.CreateEvent(ctx, e.EventType(), "booking/"+e.BookingID, e)
		ce.BookingID = e.BookingID
		return ce, kafka.Topics.BookingEvents
	case *domain.BookingExecutedEvent:
		ce := factory.CreateEvent(ctx, e.EventType(), "booking/"+e.BookingID, e)
		ce.BookingID = e.BookingID
		ce.OrderID = e.OrderID
		return ce, kafka.Topics.BookingEvents
	case *domain.BookingCancelledEvent:
		ce := factory.CreateEvent(ctx, e.EventType(), "booking/"+e.BookingID, e)
		ce.BookingID = e.BookingID
		ce.OrderID = e.OrderID
		return ce, kafka.Topics.BookingEvents
	case *domain.OrderReconciledEvent:
		ce := factory.CreateEvent(ctx, e.EventType(), "order/"+e.OrderID, e)
		ce.OrderID = e.OrderID
		return ce, kafka.Topics.OrderEvents
	default:
		return nil, ""
	}
}
