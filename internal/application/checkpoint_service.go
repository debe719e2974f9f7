package application

import (
	"context"
	"fmt"
	"time"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// cancelledProcessReason is stamped onto the booking when any step is
// rejected and onto the terminal step auto-created one step ahead
const (
	cancelledProcessReason  = "process cancelled"
	previousCancelledReason = "previous operation was cancelled"
)

// decisionFunc applies the operation-specific side effects of a
// decision before the common flow closes the step
type decisionFunc func(b *domain.Booking, cmd DecideCommand, now time.Time) error

// CheckpointService drives bookings through the operation pipeline:
// employees claim the current step, then record a pass or reject
// decision on it.
type CheckpointService struct {
	bookingRepo     domain.BookingRepository
	stepRepo        domain.BookingStepRepository
	operationRepo   domain.OperationRepository
	scheduleRepo    domain.WorkshopScheduleRepository
	baseWeightRepo  domain.BaseWeightRepository
	orderRepo       domain.OrderRepository
	userRepo        domain.UserRepository
	reconciler      *ReconcileService
	uow             domain.UnitOfWork
	logger          *logging.Logger
	businessMetrics *middleware.BusinessMetrics

	// deciders maps operation values to their specific side effects;
	// operations without an entry run only the common flow
	deciders map[domain.OperationValue]decisionFunc

	now func() time.Time
}

// NewCheckpointService creates a new CheckpointService
func NewCheckpointService(
	bookingRepo domain.BookingRepository,
	stepRepo domain.BookingStepRepository,
	operationRepo domain.OperationRepository,
	scheduleRepo domain.WorkshopScheduleRepository,
	baseWeightRepo domain.BaseWeightRepository,
	orderRepo domain.OrderRepository,
	userRepo domain.UserRepository,
	reconciler *ReconcileService,
	uow domain.UnitOfWork,
	logger *logging.Logger,
	businessMetrics *middleware.BusinessMetrics,
) *CheckpointService {
	s := &CheckpointService{
		bookingRepo:     bookingRepo,
		stepRepo:        stepRepo,
		operationRepo:   operationRepo,
		scheduleRepo:    scheduleRepo,
		baseWeightRepo:  baseWeightRepo,
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		reconciler:      reconciler,
		uow:             uow,
		logger:          logger,
		businessMetrics: businessMetrics,
		now:             func() time.Time { return time.Now().UTC() },
	}

	s.deciders = map[domain.OperationValue]decisionFunc{
		domain.OpEntryCheckpoint:   decideEntryCheckpoint,
		domain.OpInitialWeighing:   decideInitialWeighing,
		domain.OpLoadingValidation: decideLoadingValidation,
		domain.OpLoadingGoods:      decideLoadingGoods,
	}
	return s
}

// ClaimStep assigns the employee as responsible for the booking's
// current step. For the entry checkpoint the claim must fall inside
// the booked interval widened by the schedule's grace minutes.
func (s *CheckpointService) ClaimStep(ctx context.Context, cmd ClaimStepCommand) (*BookingStepDTO, error) {
	booking, err := s.loadBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.EnsureWorkable(); err != nil {
		return nil, errors.MapDomainError(err)
	}

	employee, err := s.loadEmployee(ctx, cmd.EmployeeID)
	if err != nil {
		return nil, err
	}

	chain, err := s.loadChain(ctx)
	if err != nil {
		return nil, err
	}
	op, err := chain.Get(booking.CurrentOperationValue)
	if err != nil {
		return nil, errors.ErrInternal("booking references an unknown operation").Wrap(err)
	}
	if op.IsLast {
		return nil, errors.ErrBadRequest("booking already reached a terminal operation")
	}

	if op.RequiresRole() && employee.RoleValue != op.RoleValue {
		return nil, errors.ErrForbidden("employee role does not match the current operation").
			WithDetail("requiredRole", op.RoleValue)
	}
	if booking.IsClaimed() {
		return nil, errors.MapDomainError(domain.ErrBookingAlreadyClaimed)
	}

	now := s.now()
	if op.Value == domain.OpEntryCheckpoint {
		if err := s.checkArrivalWindow(ctx, booking, now); err != nil {
			return nil, err
		}
	}

	var step *domain.BookingStep
	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		step, err = s.stepRepo.FindOpenByBookingID(ctx, booking.BookingID)
		if err != nil {
			return fmt.Errorf("failed to load open step: %w", err)
		}
		if step == nil {
			step = domain.NewOpenStep(booking, op, now)
		}
		if err := step.Take(employee.UserID, employee.Name, employee.IIN, now); err != nil {
			return errors.MapDomainError(err)
		}
		if err := booking.Claim(employee.UserID, employee.Name, now); err != nil {
			return errors.MapDomainError(err)
		}

		if err := s.stepRepo.Save(ctx, step); err != nil {
			return fmt.Errorf("failed to save step: %w", err)
		}
		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, err
	}

	s.logger.WithContext(ctx).Info("Checkpoint step claimed",
		"bookingId", booking.BookingID,
		"operation", string(op.Value),
		"employeeId", employee.UserID)

	return ToBookingStepDTO(step), nil
}

// Decide records an employee decision on the booking's current step
// and advances the pipeline: close the open step, move to the next
// operation or a terminal, auto-resolve what can be auto-resolved and
// reconcile the order, all in one transaction.
func (s *CheckpointService) Decide(ctx context.Context, cmd DecideCommand) (*BookingStepDTO, error) {
	booking, err := s.loadBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.EnsureWorkable(); err != nil {
		return nil, errors.MapDomainError(err)
	}

	chain, err := s.loadChain(ctx)
	if err != nil {
		return nil, err
	}
	op, err := chain.Get(booking.CurrentOperationValue)
	if err != nil {
		return nil, errors.ErrInternal("booking references an unknown operation").Wrap(err)
	}
	if op.IsLast {
		return nil, errors.ErrBadRequest("booking already reached a terminal operation")
	}
	if cmd.CurrentOperationValue != "" && cmd.CurrentOperationValue != string(op.Value) {
		return nil, errors.ErrBadRequest("decision addresses a different operation").
			WithDetail("currentOperation", string(op.Value))
	}
	if cmd.NextOperationValue != "" && (cmd.IsPassed || !op.CanCancel) {
		next, err := chain.Next(op.Value)
		if err != nil {
			return nil, errors.ErrInternal("pipeline has no next operation").Wrap(err)
		}
		if cmd.NextOperationValue != string(next.Value) {
			return nil, errors.ErrBadRequest("decision expects a different next operation").
				WithDetail("nextOperation", string(next.Value))
		}
	}

	employee, err := s.loadEmployee(ctx, cmd.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDecisionRights(booking, op, employee); err != nil {
		return nil, err
	}

	// A step that cannot be rejected is always recorded as passed
	if !op.CanCancel {
		cmd.IsPassed = true
	}

	now := s.now()
	if decide, ok := s.deciders[op.Value]; ok {
		if err := decide(booking, cmd, now); err != nil {
			return nil, err
		}
	}

	var closed *domain.BookingStep
	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		closed, err = s.closeCurrentStep(ctx, booking, op, employee, cmd, now)
		if err != nil {
			return err
		}

		booking.ReleaseClaim(now)

		var follow []*domain.BookingStep
		if cmd.IsPassed {
			follow, err = s.advance(ctx, chain, booking, employee, now)
		} else {
			follow, err = s.cancel(chain, booking, employee, now)
		}
		if err != nil {
			return err
		}

		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		if len(follow) > 0 {
			if err := s.stepRepo.SaveAll(ctx, follow); err != nil {
				return fmt.Errorf("failed to save follow-up steps: %w", err)
			}
		}

		return s.reconciler.Reconcile(ctx, booking.OrderID)
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		s.logger.WithContext(ctx).WithError(err).Error("Failed to record decision",
			"bookingId", cmd.BookingID, "operation", string(op.Value))
		return nil, err
	}

	s.recordOutcome(ctx, booking, op, cmd.IsPassed)
	return ToBookingStepDTO(closed), nil
}

// checkDecisionRights enforces the role and responsibility gates of
// the current operation
func (s *CheckpointService) checkDecisionRights(booking *domain.Booking, op *domain.Operation, employee *domain.User) error {
	if op.RequiresRole() {
		if !booking.IsClaimed() {
			return errors.MapDomainError(domain.ErrBookingNotClaimed)
		}
		if employee.RoleValue != op.RoleValue {
			return errors.ErrForbidden("employee role does not match the current operation").
				WithDetail("requiredRole", op.RoleValue)
		}
	}

	// Weight-confirmation steps may only be decided by the employee
	// who claimed them
	if op.Value == domain.OpLoadingValidation || op.Value == domain.OpLoadingGoods {
		if booking.ResponsibleID != employee.UserID {
			return errors.ErrForbidden(domain.ErrNotResponsible.Error())
		}
	}
	return nil
}

// closeCurrentStep closes the open step with the decision, creating it
// through the take mechanism first if it was never claimed
func (s *CheckpointService) closeCurrentStep(ctx context.Context, booking *domain.Booking, op *domain.Operation, employee *domain.User, cmd DecideCommand, now time.Time) (*domain.BookingStep, error) {
	step, err := s.stepRepo.FindOpenByBookingID(ctx, booking.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open step: %w", err)
	}
	if step == nil {
		step = domain.NewOpenStep(booking, op, now)
		if err := step.Take(employee.UserID, employee.Name, employee.IIN, now); err != nil {
			return nil, errors.MapDomainError(err)
		}
	}
	if step.OperationValue != op.Value {
		return nil, errors.ErrInternal("open step does not match the current operation")
	}
	if err := step.Close(cmd.IsPassed, cmd.CancelReason, now); err != nil {
		return nil, errors.MapDomainError(err)
	}
	if err := s.stepRepo.Save(ctx, step); err != nil {
		return nil, fmt.Errorf("failed to save step: %w", err)
	}
	return step, nil
}

// advance walks the booking forward after a passed step. Intermediate
// operations get an empty open step awaiting a claim; an effective
// base weight auto-resolves the initial weighing and the step after
// it; a terminal reached one step ahead finishes the booking with an
// already-decided step.
func (s *CheckpointService) advance(ctx context.Context, chain *domain.OperationChain, booking *domain.Booking, employee *domain.User, now time.Time) ([]*domain.BookingStep, error) {
	next, err := chain.Next(booking.CurrentOperationValue)
	if err != nil {
		return nil, errors.ErrInternal("pipeline has no next operation").Wrap(err)
	}

	var steps []*domain.BookingStep
	autoRemaining := 0
	for {
		if next.IsLast {
			steps = append(steps, domain.NewDecidedStep(booking, next, true, "", "", "", now))
			if err := booking.Execute(next, now); err != nil {
				return nil, errors.MapDomainError(err)
			}
			return steps, nil
		}

		if err := booking.AdvanceTo(next, employee.UserID, now); err != nil {
			return nil, errors.MapDomainError(err)
		}

		if autoRemaining > 0 {
			autoRemaining--
			steps = append(steps, domain.NewDecidedStep(booking, next, true, "", "", "", now))
			next, err = chain.Next(next.Value)
			if err != nil {
				return nil, errors.ErrInternal("pipeline has no next operation").Wrap(err)
			}
			continue
		}

		if next.Value == domain.OpInitialWeighing {
			base, err := s.baseWeightRepo.FindEffective(ctx, booking.CarNumber, now)
			if err != nil {
				return nil, fmt.Errorf("failed to look up base weight: %w", err)
			}
			if base != nil {
				booking.SetTara(base.Tara.Tons, now)
				steps = append(steps, domain.NewDecidedStep(booking, next, true, "", "", "", now))
				// The measured weight also resolves the step that
				// would otherwise ask for it manually
				autoRemaining = 1
				next, err = chain.Next(next.Value)
				if err != nil {
					return nil, errors.ErrInternal("pipeline has no next operation").Wrap(err)
				}
				continue
			}
		}

		steps = append(steps, domain.NewOpenStep(booking, next, now))
		return steps, nil
	}
}

// cancel forces the booking to the cancellation terminal after a
// rejected step
func (s *CheckpointService) cancel(chain *domain.OperationChain, booking *domain.Booking, employee *domain.User, now time.Time) ([]*domain.BookingStep, error) {
	terminal := chain.CancelTerminal()
	step := domain.NewDecidedStep(booking, terminal, false, previousCancelledReason, employee.UserID, employee.Name, now)
	if err := booking.CancelProcess(terminal, employee.UserID, employee.Name, cancelledProcessReason, now); err != nil {
		return nil, errors.MapDomainError(err)
	}
	return []*domain.BookingStep{step}, nil
}

func (s *CheckpointService) checkArrivalWindow(ctx context.Context, booking *domain.Booking, now time.Time) error {
	schedule, err := s.scheduleRepo.FindByID(ctx, booking.WorkshopScheduleID)
	if err != nil {
		return fmt.Errorf("failed to load capacity schedule: %w", err)
	}
	if schedule == nil {
		return errors.ErrNotFoundWithID("workshop schedule", booking.WorkshopScheduleID)
	}

	earliest, latest := schedule.ArrivalWindow(booking.StartAt, booking.EndAt)
	if now.Before(earliest) {
		return errors.MapDomainError(domain.ErrArrivalTooEarly)
	}
	if now.After(latest) {
		return errors.MapDomainError(domain.ErrArrivalTooLate)
	}
	return nil
}

func (s *CheckpointService) recordOutcome(ctx context.Context, booking *domain.Booking, op *domain.Operation, passed bool) {
	decision := "passed"
	if !passed {
		decision = "rejected"
	}
	s.businessMetrics.RecordCheckpointDecision(string(op.Value), decision)

	switch {
	case booking.IsExecuted:
		s.businessMetrics.RecordBookingFinished("completed")
		if booking.VehicleNetto != nil {
			s.businessMetrics.RecordTonnageDispatched(booking.WorkshopSapID, booking.VehicleNetto.Kg)
		}
	case booking.IsCancelled:
		s.businessMetrics.RecordBookingFinished("cancelled")
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "booking.decision",
		EntityType: "booking",
		EntityID:   booking.BookingID,
		Action:     decision,
		RelatedIDs: map[string]string{
			"operation": string(op.Value),
			"orderId":   booking.OrderID,
		},
	})
}

func (s *CheckpointService) loadBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, errors.ErrNotFoundWithID("booking", bookingID)
	}
	return booking, nil
}

func (s *CheckpointService) loadEmployee(ctx context.Context, employeeID string) (*domain.User, error) {
	employee, err := s.userRepo.FindByUserID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if employee == nil {
		return nil, errors.ErrNotFoundWithID("user", employeeID)
	}
	return employee, nil
}

func (s *CheckpointService) loadChain(ctx context.Context) (*domain.OperationChain, error) {
	operations, err := s.operationRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}
	chain, err := domain.NewOperationChain(operations)
	if err != nil {
		return nil, errors.ErrInternal("checkpoint pipeline is misconfigured").Wrap(err)
	}
	return chain, nil
}

// Operation-specific decision side effects

func decideEntryCheckpoint(_ *domain.Booking, _ DecideCommand, _ time.Time) error {
	// Arrival is validated at claim time; the decision itself is the
	// common flow
	return nil
}

func decideInitialWeighing(b *domain.Booking, cmd DecideCommand, now time.Time) error {
	if !cmd.IsPassed {
		return nil
	}
	if cmd.TaraTons == nil {
		return errors.ErrBadRequest("vehicle tara weight is required to pass the initial weighing")
	}
	b.SetTara(*cmd.TaraTons, now)
	return nil
}

func decideLoadingValidation(b *domain.Booking, cmd DecideCommand, now time.Time) error {
	if !cmd.IsPassed {
		return nil
	}
	if cmd.TaraTons != nil {
		b.SetTara(*cmd.TaraTons, now)
	}
	if b.VehicleTara == nil {
		return errors.ErrBadRequest("vehicle tara weight is required to pass the loading validation")
	}
	return nil
}

func decideLoadingGoods(b *domain.Booking, cmd DecideCommand, now time.Time) error {
	if !cmd.IsPassed {
		return nil
	}
	if cmd.BruttoTons != nil {
		b.SetBrutto(*cmd.BruttoTons, now)
	}
	if cmd.NettoTons != nil {
		b.SetNetto(*cmd.NettoTons, now)
	}
	if b.VehicleNetto == nil {
		return errors.ErrBadRequest("a loaded vehicle weight is required to pass the loading")
	}
	return nil
}
