package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

func reconcileBooking(t *testing.T, orderID string, tons float64) *domain.Booking {
	t.Helper()
	ops := pipelineOperations()
	b := domain.NewBooking(domain.NewBookingParams{
		BookingID:          "bk-" + orderID,
		OrderID:            orderID,
		OrderNumber:        "ZKZ-1001",
		Owner:              domain.PartySnapshot{ID: "u-client", Name: "Client"},
		Vehicle:            domain.VehicleSnapshot{ID: "v-1", RegistrationNumber: "123ABC01"},
		WorkshopScheduleID: "ws-1",
		WorkshopSapID:      "WS-100",
		StartAt:            time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
		EndAt:              time.Date(2026, 9, 10, 9, 20, 0, 0, time.UTC),
		BookedTons:         tons,
		FirstOperation:     ops[0],
	}, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	b.ClearDomainEvents()
	return b
}

func newReconcileFixture(t *testing.T) (*ReconcileService, *mockOrderRepo, *mockBookingRepo) {
	t.Helper()
	orderRepo := &mockOrderRepo{}
	bookingRepo := &mockBookingRepo{}
	svc := NewReconcileService(orderRepo, bookingRepo, testLogger(), testBusinessMetrics())
	return svc, orderRepo, bookingRepo
}

func TestReconcileSumsBookedAndReleased(t *testing.T) {
	svc, orderRepo, bookingRepo := newReconcileFixture(t)

	order := domain.NewOrder("ord-1", "ZKZ-1001", "u-client", "Client", "", 50)
	order.MarkPaid()
	order.StartProgress()
	orderRepo.orders = append(orderRepo.orders, order)

	live := reconcileBooking(t, "ord-1", 12.5)
	executed := reconcileBooking(t, "ord-1", 10)
	executed.SetTara(14.2, time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC))
	executed.SetBrutto(24.2, time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC))
	ops := pipelineOperations()
	require.NoError(t, executed.Execute(ops[4], time.Date(2026, 9, 10, 10, 30, 0, 0, time.UTC)))

	cancelled := reconcileBooking(t, "ord-1", 7)
	require.NoError(t, cancelled.CancelProcess(ops[5], "u-gate", "Gate", "process cancelled", time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC)))

	bookingRepo.bookings = append(bookingRepo.bookings, live, executed, cancelled)

	require.NoError(t, svc.Reconcile(context.Background(), "ord-1"))

	require.NotNil(t, orderRepo.lastSaved)
	assert.Equal(t, int64(12500), orderRepo.lastSaved.QuanBooked.Kg)
	assert.Equal(t, int64(10000), orderRepo.lastSaved.QuanReleased.Kg)
	assert.Equal(t, int64(27500), orderRepo.lastSaved.QuanLeft.Kg)
}

func TestReconcileIdempotent(t *testing.T) {
	svc, orderRepo, bookingRepo := newReconcileFixture(t)

	order := domain.NewOrder("ord-1", "ZKZ-1001", "u-client", "Client", "", 50)
	order.MarkPaid()
	order.StartProgress()
	orderRepo.orders = append(orderRepo.orders, order)
	bookingRepo.bookings = append(bookingRepo.bookings, reconcileBooking(t, "ord-1", 12.5))

	require.NoError(t, svc.Reconcile(context.Background(), "ord-1"))
	first := *orderRepo.lastSaved

	require.NoError(t, svc.Reconcile(context.Background(), "ord-1"))
	second := *orderRepo.lastSaved

	assert.Equal(t, first.QuanBooked, second.QuanBooked)
	assert.Equal(t, first.QuanReleased, second.QuanReleased)
	assert.Equal(t, first.QuanLeft, second.QuanLeft)
}

func TestReconcileNoBookingsIsNoop(t *testing.T) {
	svc, orderRepo, _ := newReconcileFixture(t)

	order := domain.NewOrder("ord-1", "ZKZ-1001", "u-client", "Client", "", 50)
	order.MarkPaid()
	orderRepo.orders = append(orderRepo.orders, order)

	require.NoError(t, svc.Reconcile(context.Background(), "ord-1"))
	assert.Nil(t, orderRepo.lastSaved)
}

func TestReconcileRejectsWrongStatus(t *testing.T) {
	svc, orderRepo, _ := newReconcileFixture(t)

	order := domain.NewOrder("ord-1", "ZKZ-1001", "u-client", "Client", "", 50)
	orderRepo.orders = append(orderRepo.orders, order)

	err := svc.Reconcile(context.Background(), "ord-1")
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrOrderNotReconcilable)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeBadRequest, appErr.Code)
}

func TestReconcileUnknownOrder(t *testing.T) {
	svc, _, _ := newReconcileFixture(t)

	err := svc.Reconcile(context.Background(), "missing")
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}
