package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/metrics"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("dispatch-service-test")
	cfg.Level = logging.LevelError
	return logging.New(cfg)
}

func testBusinessMetrics() *middleware.BusinessMetrics {
	return middleware.NewBusinessMetrics(metrics.New(metrics.DefaultConfig("dispatch-test")))
}

// mockUnitOfWork runs the callback directly; transaction semantics are
// covered by the integration suite
type mockUnitOfWork struct{}

func (m *mockUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockOperationRepo struct {
	operations []*domain.Operation
	saveFn     func(context.Context, *domain.Operation) error
}

func (m *mockOperationRepo) Save(ctx context.Context, op *domain.Operation) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, op)
	}
	m.operations = append(m.operations, op)
	return nil
}

func (m *mockOperationRepo) FindByValue(_ context.Context, value domain.OperationValue) (*domain.Operation, error) {
	for _, op := range m.operations {
		if op.Value == value {
			return op, nil
		}
	}
	return nil, nil
}

func (m *mockOperationRepo) FindActive(_ context.Context) ([]*domain.Operation, error) {
	var active []*domain.Operation
	for _, op := range m.operations {
		if op.IsActive {
			active = append(active, op)
		}
	}
	return active, nil
}

func (m *mockOperationRepo) FindAll(_ context.Context) ([]*domain.Operation, error) {
	return m.operations, nil
}

type mockWorkshopRepo struct {
	workshops []*domain.Workshop
}

func (m *mockWorkshopRepo) Save(_ context.Context, w *domain.Workshop) error {
	m.workshops = append(m.workshops, w)
	return nil
}

func (m *mockWorkshopRepo) FindBySapID(_ context.Context, sapID string) (*domain.Workshop, error) {
	for _, w := range m.workshops {
		if w.SapID == sapID {
			return w, nil
		}
	}
	return nil, nil
}

func (m *mockWorkshopRepo) FindAll(_ context.Context) ([]*domain.Workshop, error) {
	return m.workshops, nil
}

type mockScheduleRepo struct {
	schedules []*domain.WorkshopSchedule
}

func (m *mockScheduleRepo) Save(_ context.Context, s *domain.WorkshopSchedule) error {
	m.schedules = append(m.schedules, s)
	return nil
}

func (m *mockScheduleRepo) FindByID(_ context.Context, id string) (*domain.WorkshopSchedule, error) {
	for _, s := range m.schedules {
		if s.ID.Hex() == id {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockScheduleRepo) FindActiveForDate(_ context.Context, workshopSapID string, date time.Time) (*domain.WorkshopSchedule, error) {
	for _, s := range m.schedules {
		if s.WorkshopSapID == workshopSapID && s.IsActive && s.CoversDate(date) {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockScheduleRepo) FindOverlapping(_ context.Context, workshopSapID string, dateStart, dateEnd time.Time) ([]*domain.WorkshopSchedule, error) {
	var out []*domain.WorkshopSchedule
	for _, s := range m.schedules {
		if s.WorkshopSapID == workshopSapID && s.IsActive && s.OverlapsWindow(dateStart, dateEnd) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) FindAll(_ context.Context) ([]*domain.WorkshopSchedule, error) {
	return m.schedules, nil
}

type mockBookingRepo struct {
	bookings []*domain.Booking
	createFn func(context.Context, *domain.Booking, int) error
	countFn  func(context.Context, string, time.Time) (int64, error)

	lastSaved *domain.Booking
}

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking, maxAtOneTime int) error {
	if m.createFn != nil {
		return m.createFn(ctx, b, maxAtOneTime)
	}
	m.bookings = append(m.bookings, b)
	return nil
}

func (m *mockBookingRepo) Save(_ context.Context, b *domain.Booking) error {
	m.lastSaved = b
	return nil
}

func (m *mockBookingRepo) FindByBookingID(_ context.Context, bookingID string) (*domain.Booking, error) {
	for _, b := range m.bookings {
		if b.BookingID == bookingID {
			return b, nil
		}
	}
	return nil, nil
}

func (m *mockBookingRepo) FindByOrderID(_ context.Context, orderID string) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range m.bookings {
		if b.OrderID == orderID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) CountActiveAtStart(ctx context.Context, workshopScheduleID string, startAt time.Time) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, workshopScheduleID, startAt)
	}
	var count int64
	for _, b := range m.bookings {
		if b.WorkshopScheduleID == workshopScheduleID && b.IsActive && b.StartAt.Equal(startAt) {
			count++
		}
	}
	return count, nil
}

type mockStepRepo struct {
	steps []*domain.BookingStep
}

func (m *mockStepRepo) Save(_ context.Context, step *domain.BookingStep) error {
	for i, existing := range m.steps {
		if existing.ID == step.ID {
			m.steps[i] = step
			return nil
		}
	}
	m.steps = append(m.steps, step)
	return nil
}

func (m *mockStepRepo) SaveAll(ctx context.Context, steps []*domain.BookingStep) error {
	for _, s := range steps {
		if err := m.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStepRepo) FindOpenByBookingID(_ context.Context, bookingID string) (*domain.BookingStep, error) {
	for _, s := range m.steps {
		if s.BookingID == bookingID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockStepRepo) FindByBookingID(_ context.Context, bookingID string) ([]*domain.BookingStep, error) {
	var out []*domain.BookingStep
	for _, s := range m.steps {
		if s.BookingID == bookingID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockOrderRepo struct {
	orders []*domain.Order

	lastSaved *domain.Order
}

func (m *mockOrderRepo) Save(_ context.Context, o *domain.Order) error {
	m.lastSaved = o
	for i, existing := range m.orders {
		if existing.OrderID == o.OrderID {
			m.orders[i] = o
			return nil
		}
	}
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockOrderRepo) FindByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, nil
}

type mockBaseWeightRepo struct {
	weights []*domain.BaseWeight
}

func (m *mockBaseWeightRepo) Save(_ context.Context, w *domain.BaseWeight) error {
	m.weights = append(m.weights, w)
	return nil
}

func (m *mockBaseWeightRepo) FindEffective(_ context.Context, carNumber string, at time.Time) (*domain.BaseWeight, error) {
	for _, w := range m.weights {
		if w.CarNumber == carNumber && w.IsEffectiveAt(at) {
			return w, nil
		}
	}
	return nil, nil
}

type mockUserRepo struct {
	users []*domain.User
}

func (m *mockUserRepo) FindByUserID(_ context.Context, userID string) (*domain.User, error) {
	for _, u := range m.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, nil
}

type mockOrgRepo struct {
	orgs []*domain.Organization
}

func (m *mockOrgRepo) FindByOrgID(_ context.Context, orgID string) (*domain.Organization, error) {
	for _, o := range m.orgs {
		if o.OrgID == orgID {
			return o, nil
		}
	}
	return nil, nil
}

type mockVehicleRepo struct {
	vehicles []*domain.Vehicle
}

func (m *mockVehicleRepo) FindByVehicleID(_ context.Context, vehicleID string) (*domain.Vehicle, error) {
	for _, v := range m.vehicles {
		if v.VehicleID == vehicleID {
			return v, nil
		}
	}
	return nil, nil
}

// pipelineOperations wires the standard four-step pipeline with its
// two terminals
func pipelineOperations() []*domain.Operation {
	entry := domain.NewOperation("Entry checkpoint", domain.OpEntryCheckpoint, "gatekeeper", true, false, true)
	entry.NextValue = domain.OpInitialWeighing

	weighing := domain.NewOperation("Initial weighing", domain.OpInitialWeighing, "weigher", false, false, true)
	weighing.PrevValue = domain.OpEntryCheckpoint
	weighing.NextValue = domain.OpLoadingValidation

	validation := domain.NewOperation("Validation before loading", domain.OpLoadingValidation, "loader", false, false, true)
	validation.PrevValue = domain.OpInitialWeighing
	validation.NextValue = domain.OpLoadingGoods

	loading := domain.NewOperation("Loading goods", domain.OpLoadingGoods, "loader", false, false, true)
	loading.PrevValue = domain.OpLoadingValidation
	loading.NextValue = domain.OpCompleted

	completed := domain.NewOperation("Completed", domain.OpCompleted, "", false, true, false)
	completed.PrevValue = domain.OpLoadingGoods

	cancelled := domain.NewOperation("Cancelled", domain.OpCancelled, "", false, true, false)

	return []*domain.Operation{entry, weighing, validation, loading, completed, cancelled}
}

func mustSchedule(t *testing.T, sapID string) *domain.WorkshopSchedule {
	t.Helper()
	schedule, err := domain.NewWorkshopSchedule(
		"ws-1", sapID,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		"09:00", "18:00",
		20, 5, 4, 15, 15,
	)
	require.NoError(t, err)
	return schedule
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
