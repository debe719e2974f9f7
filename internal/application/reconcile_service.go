package application

import (
	"context"
	"fmt"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// ReconcileService recomputes an order's booked and released quantity
// totals from its bookings. Pure aggregation over the current booking
// set, so repeated runs are idempotent.
type ReconcileService struct {
	orderRepo       domain.OrderRepository
	bookingRepo     domain.BookingRepository
	logger          *logging.Logger
	businessMetrics *middleware.BusinessMetrics
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	orderRepo domain.OrderRepository,
	bookingRepo domain.BookingRepository,
	logger *logging.Logger,
	businessMetrics *middleware.BusinessMetrics,
) *ReconcileService {
	return &ReconcileService{
		orderRepo:       orderRepo,
		bookingRepo:     bookingRepo,
		logger:          logger,
		businessMetrics: businessMetrics,
	}
}

// Reconcile rewrites quanBooked and quanReleased on the order from its
// bookings: booked sums the loading volume of live bookings, released
// sums the weighed netto of executed ones. An order with no bookings
// is left untouched.
func (s *ReconcileService) Reconcile(ctx context.Context, orderID string) error {
	order, err := s.orderRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return errors.ErrNotFoundWithID("order", orderID)
	}
	if !order.Reconcilable() {
		s.businessMetrics.RecordReconciliation("rejected")
		return errors.MapDomainError(domain.ErrOrderNotReconcilable).
			WithDetail("status", string(order.Status))
	}

	bookings, err := s.bookingRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}
	if len(bookings) == 0 {
		s.businessMetrics.RecordReconciliation("noop")
		return nil
	}

	var bookedKg, releasedKg int64
	for _, b := range bookings {
		if b.IsActive && !b.IsCancelled && !b.IsExecuted {
			bookedKg += b.LoadingVolume.Kg
		}
		if b.IsExecuted && !b.IsCancelled && !b.IsActive && b.VehicleNetto != nil {
			releasedKg += b.VehicleNetto.Kg
		}
	}

	order.ApplyReconciliation(bookedKg, releasedKg)

	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.businessMetrics.RecordReconciliation("failed")
		return fmt.Errorf("failed to save reconciled order: %w", err)
	}

	s.businessMetrics.RecordReconciliation("applied")
	s.logger.WithContext(ctx).Debug("Order quantities reconciled",
		"orderId", orderID,
		"bookedKg", bookedKg,
		"releasedKg", releasedKg)
	return nil
}
