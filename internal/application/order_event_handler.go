package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
	"github.com/plantgate-platform/dispatch-service/pkg/kafka"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// OrderEventHandler applies payment-status changes from the billing
// system to the local order projections. It consumes CloudEvents from
// the inbound order topic.
type OrderEventHandler struct {
	orderRepo domain.OrderRepository
	logger    *logging.Logger
}

// NewOrderEventHandler creates a new OrderEventHandler
func NewOrderEventHandler(orderRepo domain.OrderRepository, logger *logging.Logger) *OrderEventHandler {
	return &OrderEventHandler{
		orderRepo: orderRepo,
		logger:    logger.WithComponent("order-event-handler"),
	}
}

// Register subscribes the handler on the inbound order topic
func (h *OrderEventHandler) Register(consumer *kafka.InstrumentedConsumer) {
	consumer.Subscribe(kafka.Topics.OrdersInbound, cloudevents.OrderPaymentUpdated, h.HandlePaymentUpdated)
}

// HandlePaymentUpdated upserts the local order projection from a
// billing payment event. Unknown orders are created so a payment
// arriving before the order sync still lands.
func (h *OrderEventHandler) HandlePaymentUpdated(ctx context.Context, event *cloudevents.CloudEvent) error {
	var data cloudevents.OrderPaymentData
	if err := decodeEventData(event, &data); err != nil {
		return fmt.Errorf("failed to decode payment event %s: %w", event.ID, err)
	}
	if data.OrderID == "" {
		return fmt.Errorf("payment event %s carries no order id", event.ID)
	}

	order, err := h.orderRepo.FindByOrderID(ctx, data.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		order = domain.NewOrder(data.OrderID, data.OrderNumber, "", "", "", 0)
	}

	switch data.Status {
	case "paid":
		order.MarkPaid()
	case "cancelled":
		order.MarkCancelled()
	default:
		h.logger.WithContext(ctx).Warn("Ignoring unknown payment status",
			"orderId", data.OrderID, "status", data.Status)
		return nil
	}

	if err := h.orderRepo.Save(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	h.logger.WithContext(ctx).Info("Order payment status applied",
		"orderId", data.OrderID, "status", data.Status)
	return nil
}

// decodeEventData re-marshals the generic event payload into a typed
// struct; consumed events carry Data as a decoded map
func decodeEventData(event *cloudevents.CloudEvent, out interface{}) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
