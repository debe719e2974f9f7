package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// BookingLimits bounds the tonnage of a single booking
type BookingLimits struct {
	MinTons float64
	MaxTons float64
}

// DefaultBookingLimits returns the per-booking tonnage bounds used
// when none are configured
func DefaultBookingLimits() BookingLimits {
	return BookingLimits{MinTons: 1, MaxTons: 60}
}

// bookingContext carries everything the validation sequence resolved,
// handed to the transform step as one immutable value
type bookingContext struct {
	requester    *domain.User
	order        *domain.Order
	schedule     *domain.WorkshopSchedule
	organization *domain.Organization
	driver       *domain.User
	vehicle      *domain.Vehicle
	trailer      *domain.Vehicle
	firstOp      *domain.Operation
}

// BookingService creates slot bookings against paid orders
type BookingService struct {
	orderRepo       domain.OrderRepository
	scheduleRepo    domain.WorkshopScheduleRepository
	bookingRepo     domain.BookingRepository
	operationRepo   domain.OperationRepository
	userRepo        domain.UserRepository
	orgRepo         domain.OrganizationRepository
	vehicleRepo     domain.VehicleRepository
	availability    *AvailabilityService
	reconciler      *ReconcileService
	uow             domain.UnitOfWork
	limits          BookingLimits
	logger          *logging.Logger
	businessMetrics *middleware.BusinessMetrics

	now func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	orderRepo domain.OrderRepository,
	scheduleRepo domain.WorkshopScheduleRepository,
	bookingRepo domain.BookingRepository,
	operationRepo domain.OperationRepository,
	userRepo domain.UserRepository,
	orgRepo domain.OrganizationRepository,
	vehicleRepo domain.VehicleRepository,
	availability *AvailabilityService,
	reconciler *ReconcileService,
	uow domain.UnitOfWork,
	limits BookingLimits,
	logger *logging.Logger,
	businessMetrics *middleware.BusinessMetrics,
) *BookingService {
	return &BookingService{
		orderRepo:       orderRepo,
		scheduleRepo:    scheduleRepo,
		bookingRepo:     bookingRepo,
		operationRepo:   operationRepo,
		userRepo:        userRepo,
		orgRepo:         orgRepo,
		vehicleRepo:     vehicleRepo,
		availability:    availability,
		reconciler:      reconciler,
		uow:             uow,
		limits:          limits,
		logger:          logger,
		businessMetrics: businessMetrics,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking runs the validation sequence and, on success, inserts
// the booking, flips the order into progress and reconciles its
// quantity totals within one transaction.
func (s *BookingService) CreateBooking(ctx context.Context, cmd CreateBookingCommand) (*BookingDTO, error) {
	bctx, err := s.validate(ctx, cmd)
	if err != nil {
		return nil, err
	}

	now := s.now()
	params := domain.NewBookingParams{
		BookingID:          "BK-" + uuid.New().String()[:8],
		OrderID:            bctx.order.OrderID,
		OrderNumber:        bctx.order.OrderNumber,
		Owner:              bctx.requester.Snapshot(),
		Vehicle:            bctx.vehicle.Snapshot(),
		WorkshopScheduleID: bctx.schedule.ID.Hex(),
		WorkshopSapID:      bctx.schedule.WorkshopSapID,
		StartAt:            cmd.StartAt,
		EndAt:              cmd.EndAt,
		BookedTons:         cmd.BookedTons,
		FirstOperation:     bctx.firstOp,
	}
	if bctx.driver != nil {
		d := bctx.driver.Snapshot()
		params.Driver = &d
	}
	if bctx.organization != nil {
		o := bctx.organization.Snapshot()
		params.Organization = &o
	}
	if bctx.trailer != nil {
		t := bctx.trailer.Snapshot()
		params.Trailer = &t
	}

	booking := domain.NewBooking(params, now)

	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		if err := s.bookingRepo.Create(ctx, booking, bctx.schedule.MachineAtOneTime); err != nil {
			if err == domain.ErrCapacityExhausted {
				return errors.ErrBadRequest("insufficient space at the selected time")
			}
			return fmt.Errorf("failed to save booking: %w", err)
		}

		bctx.order.StartProgress()
		if err := s.orderRepo.Save(ctx, bctx.order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		return s.reconciler.Reconcile(ctx, bctx.order.OrderID)
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		s.logger.WithContext(ctx).WithError(err).Error("Failed to create booking",
			"orderId", cmd.OrderID, "workshopScheduleId", cmd.WorkshopScheduleID)
		return nil, err
	}

	s.businessMetrics.RecordBookingCreated(bctx.schedule.WorkshopSapID)

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "booking.created",
		EntityType: "booking",
		EntityID:   booking.BookingID,
		Action:     "created",
		RelatedIDs: map[string]string{
			"orderId":       booking.OrderID,
			"workshopSapId": booking.WorkshopSapID,
			"vehicleId":     booking.Vehicle.ID,
		},
	})

	return ToBookingDTO(booking), nil
}

// GetBooking returns a booking by its business id
func (s *BookingService) GetBooking(ctx context.Context, query GetBookingQuery) (*BookingDTO, error) {
	booking, err := s.bookingRepo.FindByBookingID(ctx, query.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, errors.ErrNotFoundWithID("booking", query.BookingID)
	}
	return ToBookingDTO(booking), nil
}

// ListOrderBookings returns all bookings of one order
func (s *BookingService) ListOrderBookings(ctx context.Context, query ListOrderBookingsQuery) ([]*BookingDTO, error) {
	bookings, err := s.bookingRepo.FindByOrderID(ctx, query.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	dtos := make([]*BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, ToBookingDTO(b))
	}
	return dtos, nil
}

// validate runs the booking checks in order, short-circuiting on the
// first failure, and resolves every referenced entity exactly once.
func (s *BookingService) validate(ctx context.Context, cmd CreateBookingCommand) (*bookingContext, error) {
	bctx := &bookingContext{}

	requester, err := s.userRepo.FindByUserID(ctx, cmd.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester: %w", err)
	}
	if requester == nil {
		return nil, errors.ErrNotFoundWithID("user", cmd.RequesterID)
	}
	bctx.requester = requester

	// 1. Order access
	order, err := s.orderRepo.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, errors.ErrNotFoundWithID("order", cmd.OrderID)
	}
	if !order.Bookable() {
		return nil, errors.MapDomainError(domain.ErrOrderNotBookable).
			WithDetail("status", string(order.Status))
	}
	if err := s.checkOrderAccess(ctx, requester, order); err != nil {
		return nil, err
	}
	bctx.order = order

	// 2. Capacity schedule existence
	schedule, err := s.scheduleRepo.FindByID(ctx, cmd.WorkshopScheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load capacity schedule: %w", err)
	}
	if schedule == nil {
		return nil, errors.ErrNotFoundWithID("workshop schedule", cmd.WorkshopScheduleID)
	}
	bctx.schedule = schedule

	// 3. Availability, re-derived the same way the read path does
	if err := s.checkAvailability(ctx, schedule, cmd); err != nil {
		return nil, err
	}

	// 4. Organization access, legal requesters only
	if requester.IsLegal() {
		org, err := s.checkOrganizationAccess(ctx, requester, order)
		if err != nil {
			return nil, err
		}
		bctx.organization = org
	}

	// 5. Driver access
	driver, err := s.checkDriverAccess(ctx, requester, bctx.organization, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	bctx.driver = driver

	// 6. Vehicle and trailer ownership
	vehicle, err := s.checkVehicleAccess(ctx, requester, cmd.VehicleID)
	if err != nil {
		return nil, err
	}
	bctx.vehicle = vehicle
	if cmd.TrailerID != "" {
		trailer, err := s.checkVehicleAccess(ctx, requester, cmd.TrailerID)
		if err != nil {
			return nil, err
		}
		bctx.trailer = trailer
	}

	// 7. Tonnage bounds
	if cmd.BookedTons <= s.limits.MinTons || cmd.BookedTons >= s.limits.MaxTons {
		return nil, errors.ErrBadRequest(
			fmt.Sprintf("booked tonnage must be between %g and %g tons", s.limits.MinTons, s.limits.MaxTons))
	}
	if cmd.BookedTons > order.QuanLeft.Tons {
		overage := cmd.BookedTons - order.QuanLeft.Tons
		return nil, errors.ErrBadRequest(
			fmt.Sprintf("booked tonnage exceeds the order remainder by %g tons", overage)).
			WithDetail("overageTons", fmt.Sprintf("%g", overage))
	}

	firstOp, err := s.resolveFirstOperation(ctx)
	if err != nil {
		return nil, err
	}
	bctx.firstOp = firstOp

	return bctx, nil
}

func (s *BookingService) checkOrderAccess(ctx context.Context, requester *domain.User, order *domain.Order) error {
	if order.OwnerID == requester.UserID {
		return nil
	}
	if order.OrganizationID != "" && requester.MemberOf(order.OrganizationID) {
		org, err := s.orgRepo.FindByOrgID(ctx, order.OrganizationID)
		if err != nil {
			return fmt.Errorf("failed to load organization: %w", err)
		}
		if org != nil && org.IsVerified {
			return nil
		}
	}
	return errors.ErrBadRequest("no access to this order")
}

func (s *BookingService) checkAvailability(ctx context.Context, schedule *domain.WorkshopSchedule, cmd CreateBookingCommand) error {
	if startOfDay(cmd.Date).Before(startOfDay(s.now())) {
		return errors.ErrBadRequest("cannot book a slot on a past date")
	}
	if !schedule.IsActive || !schedule.CoversDate(cmd.Date) {
		return errors.ErrBadRequest("schedule does not cover the requested date").
			WithDetail("workshopScheduleId", cmd.WorkshopScheduleID)
	}
	free, err := s.availability.FreeIntervalsForSchedule(ctx, schedule, cmd.Date)
	if err != nil {
		return err
	}
	for _, iv := range free {
		if iv.StartAt.Equal(cmd.StartAt) && iv.EndAt.Equal(cmd.EndAt) {
			return nil
		}
	}
	return errors.ErrBadRequest("insufficient space at the selected time")
}

func (s *BookingService) checkOrganizationAccess(ctx context.Context, requester *domain.User, order *domain.Order) (*domain.Organization, error) {
	if order.OrganizationID == "" {
		return nil, errors.ErrBadRequest("order does not belong to an organization")
	}
	org, err := s.orgRepo.FindByOrgID(ctx, order.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, errors.ErrNotFoundWithID("organization", order.OrganizationID)
	}
	if org.OwnerID != requester.UserID {
		return nil, errors.ErrBadRequest("no access to the order organization")
	}
	return org, nil
}

func (s *BookingService) checkDriverAccess(ctx context.Context, requester *domain.User, org *domain.Organization, driverID string) (*domain.User, error) {
	if driverID == "" {
		return nil, errors.ErrBadRequest("driver is required")
	}
	if driverID == requester.UserID {
		return requester, nil
	}
	if !requester.IsLegal() {
		return nil, errors.ErrBadRequest("an individual client must drive in person")
	}

	driver, err := s.userRepo.FindByUserID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	if driver == nil {
		return nil, errors.ErrNotFoundWithID("driver", driverID)
	}
	if org == nil || !org.Employs(driverID) {
		return nil, errors.ErrBadRequest("driver is not an employee of the order organization")
	}
	return driver, nil
}

func (s *BookingService) checkVehicleAccess(ctx context.Context, requester *domain.User, vehicleID string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, errors.ErrNotFoundWithID("vehicle", vehicleID)
	}
	if vehicle.OwnerID == requester.UserID {
		return vehicle, nil
	}
	if vehicle.OrganizationID != "" && requester.MemberOf(vehicle.OrganizationID) {
		org, err := s.orgRepo.FindByOrgID(ctx, vehicle.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load organization: %w", err)
		}
		if org != nil && org.IsVerified {
			return vehicle, nil
		}
	}
	return nil, errors.ErrBadRequest("no access to this vehicle").
		WithDetail("vehicleId", vehicleID)
}

func (s *BookingService) resolveFirstOperation(ctx context.Context) (*domain.Operation, error) {
	operations, err := s.operationRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}
	chain, err := domain.NewOperationChain(operations)
	if err != nil {
		return nil, errors.ErrInternal("checkpoint pipeline is misconfigured").Wrap(err)
	}
	return chain.First(), nil
}
