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

type checkpointFixture struct {
	svc            *CheckpointService
	operationRepo  *mockOperationRepo
	bookingRepo    *mockBookingRepo
	stepRepo       *mockStepRepo
	orderRepo      *mockOrderRepo
	baseWeightRepo *mockBaseWeightRepo
	schedule       *domain.WorkshopSchedule
	booking        *domain.Booking
}

// newCheckpointFixture builds a booking at the given pipeline position
// with a paid order in progress, evaluated at 09:05 of the booked day
func newCheckpointFixture(t *testing.T, at domain.OperationValue) *checkpointFixture {
	t.Helper()

	f := &checkpointFixture{
		operationRepo:  &mockOperationRepo{operations: pipelineOperations()},
		bookingRepo:    &mockBookingRepo{},
		stepRepo:       &mockStepRepo{},
		orderRepo:      &mockOrderRepo{},
		baseWeightRepo: &mockBaseWeightRepo{},
	}
	scheduleRepo := &mockScheduleRepo{}
	userRepo := &mockUserRepo{users: []*domain.User{
		{UserID: "u-gate", Name: "Gate Keeper", IIN: "800101300111", RoleValue: "gatekeeper", UserType: domain.UserTypeIndividual},
		{UserID: "u-weigher", Name: "Scale Operator", RoleValue: "weigher", UserType: domain.UserTypeIndividual},
		{UserID: "u-loader", Name: "Loader One", RoleValue: "loader", UserType: domain.UserTypeIndividual},
		{UserID: "u-loader-2", Name: "Loader Two", RoleValue: "loader", UserType: domain.UserTypeIndividual},
	}}

	f.schedule = mustSchedule(t, "WS-100")
	scheduleRepo.schedules = append(scheduleRepo.schedules, f.schedule)

	order := domain.NewOrder("ord-1", "ZKZ-1001", "u-client", "Aidar Sadykov", "", 40)
	order.MarkPaid()
	order.StartProgress()
	f.orderRepo.orders = append(f.orderRepo.orders, order)

	var startOp *domain.Operation
	for _, op := range f.operationRepo.operations {
		if op.Value == at {
			startOp = op
		}
	}
	require.NotNil(t, startOp)

	now := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	f.booking = domain.NewBooking(domain.NewBookingParams{
		BookingID:          "bk-1",
		OrderID:            "ord-1",
		OrderNumber:        "ZKZ-1001",
		Owner:              domain.PartySnapshot{ID: "u-client", Name: "Aidar Sadykov"},
		Vehicle:            domain.VehicleSnapshot{ID: "v-1", RegistrationNumber: "123ABC01"},
		WorkshopScheduleID: f.schedule.ID.Hex(),
		WorkshopSapID:      "WS-100",
		StartAt:            time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
		EndAt:              time.Date(2026, 9, 10, 9, 20, 0, 0, time.UTC),
		BookedTons:         12.5,
		FirstOperation:     startOp,
	}, now)
	f.booking.ClearDomainEvents()
	f.bookingRepo.bookings = append(f.bookingRepo.bookings, f.booking)

	metrics := testBusinessMetrics()
	logger := testLogger()
	reconciler := NewReconcileService(f.orderRepo, f.bookingRepo, logger, metrics)

	f.svc = NewCheckpointService(
		f.bookingRepo, f.stepRepo, f.operationRepo, scheduleRepo,
		f.baseWeightRepo, f.orderRepo, userRepo,
		reconciler, &mockUnitOfWork{}, logger, metrics,
	)
	f.svc.now = fixedClock(time.Date(2026, 9, 10, 9, 5, 0, 0, time.UTC))
	return f
}

// claim puts the booking into the claimed state with an open step
func (f *checkpointFixture) claim(t *testing.T, employeeID, employeeName string) {
	t.Helper()
	now := time.Date(2026, 9, 10, 9, 5, 0, 0, time.UTC)

	var op *domain.Operation
	for _, o := range f.operationRepo.operations {
		if o.Value == f.booking.CurrentOperationValue {
			op = o
		}
	}
	require.NotNil(t, op)

	step := domain.NewOpenStep(f.booking, op, now)
	require.NoError(t, step.Take(employeeID, employeeName, "", now))
	require.NoError(t, f.stepRepo.Save(context.Background(), step))
	require.NoError(t, f.booking.Claim(employeeID, employeeName, now))
}

func TestClaimStep(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)

	dto, err := f.svc.ClaimStep(context.Background(), ClaimStepCommand{BookingID: "bk-1", EmployeeID: "u-gate"})
	require.NoError(t, err)
	require.NotNil(t, dto)

	assert.Equal(t, string(domain.OpEntryCheckpoint), dto.OperationValue)
	assert.Equal(t, "u-gate", dto.ResponsibleID)
	assert.Nil(t, dto.IsPassed)

	assert.True(t, f.booking.IsUsed)
	assert.Equal(t, "u-gate", f.booking.ResponsibleID)
	assert.Equal(t, "Gate Keeper", f.booking.ResponsibleName)
}

func TestClaimStepRoleMismatch(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)

	_, err := f.svc.ClaimStep(context.Background(), ClaimStepCommand{BookingID: "bk-1", EmployeeID: "u-loader"})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeForbidden, appErr.Code)
}

func TestClaimStepAlreadyClaimed(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
	f.claim(t, "u-gate", "Gate Keeper")

	_, err := f.svc.ClaimStep(context.Background(), ClaimStepCommand{BookingID: "bk-1", EmployeeID: "u-gate"})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "already claimed")
}

func TestClaimStepArrivalWindow(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr string
	}{
		{
			// Grace is 15 minutes, so 08:45 opens the window
			name:    "too early",
			now:     time.Date(2026, 9, 10, 8, 30, 0, 0, time.UTC),
			wantErr: "too early",
		},
		{
			name:    "too late",
			now:     time.Date(2026, 9, 10, 9, 40, 0, 0, time.UTC),
			wantErr: "too late",
		},
		{
			name: "inside widened window",
			now:  time.Date(2026, 9, 10, 8, 50, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
			f.svc.now = fixedClock(tt.now)

			_, err := f.svc.ClaimStep(context.Background(), ClaimStepCommand{BookingID: "bk-1", EmployeeID: "u-gate"})
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.CodeBadRequest, appErr.Code)
			assert.Contains(t, appErr.Message, tt.wantErr)
		})
	}
}

func TestDecidePassOpensNextStep(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
	f.claim(t, "u-gate", "Gate Keeper")

	dto, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-gate",
		CurrentOperationValue: string(domain.OpEntryCheckpoint),
		IsPassed:              true,
	})
	require.NoError(t, err)

	require.NotNil(t, dto.IsPassed)
	assert.True(t, *dto.IsPassed)
	assert.Equal(t, string(domain.OpEntryCheckpoint), dto.OperationValue)

	// The booking advanced and was released for the next claim
	assert.Equal(t, domain.OpInitialWeighing, f.booking.CurrentOperationValue)
	assert.Empty(t, f.booking.ResponsibleID)
	assert.True(t, f.booking.IsActive)

	open, err := f.stepRepo.FindOpenByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, domain.OpInitialWeighing, open.OperationValue)
	assert.Empty(t, open.ResponsibleID)
}

func TestDecideRejectCancelsProcess(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
	f.claim(t, "u-gate", "Gate Keeper")

	dto, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-gate",
		CurrentOperationValue: string(domain.OpEntryCheckpoint),
		IsPassed:              false,
		CancelReason:          "vehicle plate does not match",
	})
	require.NoError(t, err)

	require.NotNil(t, dto.IsPassed)
	assert.False(t, *dto.IsPassed)
	assert.Equal(t, "vehicle plate does not match", dto.CancelReason)

	assert.True(t, f.booking.IsCancelled)
	assert.False(t, f.booking.IsActive)
	assert.False(t, f.booking.IsExecuted)
	assert.Equal(t, domain.OpCancelled, f.booking.CurrentOperationValue)
	assert.Equal(t, "process cancelled", f.booking.CancelReason)

	steps, err := f.stepRepo.FindByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	terminal := steps[1]
	assert.Equal(t, domain.OpCancelled, terminal.OperationValue)
	require.NotNil(t, terminal.IsPassed)
	assert.False(t, *terminal.IsPassed)
	assert.Equal(t, "previous operation was cancelled", terminal.CancelReason)

	// The rejected booking no longer counts toward the order
	require.NotNil(t, f.orderRepo.lastSaved)
	assert.Equal(t, int64(0), f.orderRepo.lastSaved.QuanBooked.Kg)
	assert.Equal(t, int64(40000), f.orderRepo.lastSaved.QuanLeft.Kg)
}

func TestDecideAutoPassOnBaseWeight(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
	f.claim(t, "u-gate", "Gate Keeper")

	f.baseWeightRepo.weights = append(f.baseWeightRepo.weights, domain.NewBaseWeight(
		"123ABC01", 14.2,
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
	))

	_, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-gate",
		CurrentOperationValue: string(domain.OpEntryCheckpoint),
		IsPassed:              true,
	})
	require.NoError(t, err)

	// Weighing and the validation after it resolved without a claim
	assert.Equal(t, domain.OpLoadingGoods, f.booking.CurrentOperationValue)
	require.NotNil(t, f.booking.VehicleTara)
	assert.InDelta(t, 14.2, f.booking.VehicleTara.Tons, 0.0001)

	steps, err := f.stepRepo.FindByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	require.Len(t, steps, 4)

	var decided int
	for _, s := range steps {
		if s.OperationValue == domain.OpInitialWeighing || s.OperationValue == domain.OpLoadingValidation {
			require.NotNil(t, s.IsPassed, "step %s should be auto-decided", s.OperationValue)
			assert.True(t, *s.IsPassed)
			decided++
		}
	}
	assert.Equal(t, 2, decided)

	open, err := f.stepRepo.FindOpenByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, domain.OpLoadingGoods, open.OperationValue)
}

func TestDecideLoadingGoodsCompletesBooking(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpLoadingGoods)
	f.booking.SetTara(14.2, time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC))
	f.claim(t, "u-loader", "Loader One")

	brutto := 26.7
	dto, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-loader",
		CurrentOperationValue: string(domain.OpLoadingGoods),
		IsPassed:              true,
		BruttoTons:            &brutto,
	})
	require.NoError(t, err)
	require.NotNil(t, dto.IsPassed)

	assert.True(t, f.booking.IsExecuted)
	assert.False(t, f.booking.IsActive)
	assert.Equal(t, domain.OpCompleted, f.booking.CurrentOperationValue)
	require.NotNil(t, f.booking.VehicleNetto)
	assert.Equal(t, int64(12500), f.booking.VehicleNetto.Kg)

	steps, err := f.stepRepo.FindByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.NotNil(t, steps[1].IsPassed)
	assert.True(t, *steps[1].IsPassed)
	assert.Equal(t, domain.OpCompleted, steps[1].OperationValue)

	// Executed tonnage moved from booked to released
	require.NotNil(t, f.orderRepo.lastSaved)
	assert.Equal(t, int64(0), f.orderRepo.lastSaved.QuanBooked.Kg)
	assert.Equal(t, int64(12500), f.orderRepo.lastSaved.QuanReleased.Kg)
}

func TestDecideLoadingGoodsRequiresWeight(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpLoadingGoods)
	f.claim(t, "u-loader", "Loader One")

	_, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-loader",
		CurrentOperationValue: string(domain.OpLoadingGoods),
		IsPassed:              true,
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeBadRequest, appErr.Code)
	assert.Contains(t, appErr.Message, "weight is required")
}

func TestDecideResponsibleOnly(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpLoadingValidation)
	f.claim(t, "u-loader", "Loader One")

	tara := 14.2
	_, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-loader-2",
		CurrentOperationValue: string(domain.OpLoadingValidation),
		IsPassed:              true,
		TaraTons:              &tara,
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeForbidden, appErr.Code)
}

func TestDecideOperationMismatch(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
	f.claim(t, "u-gate", "Gate Keeper")

	_, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-gate",
		CurrentOperationValue: string(domain.OpLoadingGoods),
		IsPassed:              true,
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "different operation")
}

func TestDecideNextOperationMismatch(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
	f.claim(t, "u-gate", "Gate Keeper")

	_, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-gate",
		CurrentOperationValue: string(domain.OpEntryCheckpoint),
		NextOperationValue:    string(domain.OpLoadingGoods),
		IsPassed:              true,
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "different next operation")
	assert.Equal(t, string(domain.OpInitialWeighing), appErr.Details["nextOperation"])
}

func TestDecideForcedPassWhenCancelForbidden(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)
	for _, op := range f.operationRepo.operations {
		if op.Value == domain.OpEntryCheckpoint {
			op.CanCancel = false
		}
	}
	f.claim(t, "u-gate", "Gate Keeper")

	dto, err := f.svc.Decide(context.Background(), DecideCommand{
		BookingID:             "bk-1",
		EmployeeID:            "u-gate",
		CurrentOperationValue: string(domain.OpEntryCheckpoint),
		IsPassed:              false,
		CancelReason:          "should be ignored",
	})
	require.NoError(t, err)

	require.NotNil(t, dto.IsPassed)
	assert.True(t, *dto.IsPassed)
	assert.Equal(t, domain.OpInitialWeighing, f.booking.CurrentOperationValue)
	assert.False(t, f.booking.IsCancelled)
}

func TestClaimAndDecideAfterTerminal(t *testing.T) {
	f := newCheckpointFixture(t, domain.OpEntryCheckpoint)

	var cancelled *domain.Operation
	for _, op := range f.operationRepo.operations {
		if op.Value == domain.OpCancelled {
			cancelled = op
		}
	}
	now := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.booking.CancelProcess(cancelled, "u-gate", "Gate Keeper", "process cancelled", now))

	_, err := f.svc.ClaimStep(context.Background(), ClaimStepCommand{BookingID: "bk-1", EmployeeID: "u-gate"})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeBadRequest, appErr.Code)

	_, err = f.svc.Decide(context.Background(), DecideCommand{BookingID: "bk-1", EmployeeID: "u-gate", IsPassed: true})
	require.Error(t, err)
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeBadRequest, appErr.Code)
}
