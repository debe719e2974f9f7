package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCapacityExhausted is returned by the transactional booking insert
// when the interval's concurrent capacity is already taken
var ErrCapacityExhausted = errors.New("no free space at the selected time")

// UnitOfWork runs a function with all repository calls inside one
// transaction. A checkpoint decision closes a step, moves the booking
// and reconciles the order as a single unit.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// OperationRepository persists pipeline configuration
type OperationRepository interface {
	// Save persists an operation (upsert by value)
	Save(ctx context.Context, op *Operation) error

	// FindByValue retrieves an operation by its machine value
	FindByValue(ctx context.Context, value OperationValue) (*Operation, error)

	// FindActive retrieves all active operations
	FindActive(ctx context.Context) ([]*Operation, error)

	// FindAll retrieves every operation including inactive ones
	FindAll(ctx context.Context) ([]*Operation, error)
}

// WorkshopRepository persists workshop reference data
type WorkshopRepository interface {
	// Save persists a workshop (upsert by sapId)
	Save(ctx context.Context, workshop *Workshop) error

	// FindBySapID retrieves a workshop by its SAP code
	FindBySapID(ctx context.Context, sapID string) (*Workshop, error)

	// FindAll retrieves all workshops
	FindAll(ctx context.Context) ([]*Workshop, error)
}

// WorkshopScheduleRepository persists capacity schedules
type WorkshopScheduleRepository interface {
	// Save persists a capacity schedule
	Save(ctx context.Context, schedule *WorkshopSchedule) error

	// FindByID retrieves a schedule by its hex id
	FindByID(ctx context.Context, id string) (*WorkshopSchedule, error)

	// FindActiveForDate retrieves the active schedule whose validity
	// window covers the given date, nil when none does
	FindActiveForDate(ctx context.Context, workshopSapID string, date time.Time) (*WorkshopSchedule, error)

	// FindOverlapping retrieves active schedules of the workshop whose
	// validity windows overlap the given window
	FindOverlapping(ctx context.Context, workshopSapID string, dateStart, dateEnd time.Time) ([]*WorkshopSchedule, error)

	// FindAll retrieves all capacity schedules
	FindAll(ctx context.Context) ([]*WorkshopSchedule, error)
}

// BookingRepository persists bookings together with their domain
// events via the transactional outbox
type BookingRepository interface {
	// Create inserts a new booking after re-counting the interval's
	// active bookings inside the same transaction; returns
	// ErrCapacityExhausted when maxAtOneTime is already reached
	Create(ctx context.Context, booking *Booking, maxAtOneTime int) error

	// Save upserts an existing booking and stages its domain events
	Save(ctx context.Context, booking *Booking) error

	// FindByBookingID retrieves a booking by its business id
	FindByBookingID(ctx context.Context, bookingID string) (*Booking, error)

	// FindByOrderID retrieves all bookings of an order
	FindByOrderID(ctx context.Context, orderID string) ([]*Booking, error)

	// CountActiveAtStart counts active bookings of a capacity schedule
	// whose interval starts exactly at the given time
	CountActiveAtStart(ctx context.Context, workshopScheduleID string, startAt time.Time) (int64, error)
}

// BookingStepRepository persists the booking audit trail
type BookingStepRepository interface {
	// Save persists a step record
	Save(ctx context.Context, step *BookingStep) error

	// SaveAll persists several step records at once
	SaveAll(ctx context.Context, steps []*BookingStep) error

	// FindOpenByBookingID retrieves the booking's undecided step,
	// nil when none is open
	FindOpenByBookingID(ctx context.Context, bookingID string) (*BookingStep, error)

	// FindByBookingID retrieves all steps of a booking in creation order
	FindByBookingID(ctx context.Context, bookingID string) ([]*BookingStep, error)
}

// OrderRepository persists local order projections
type OrderRepository interface {
	// Save persists an order (upsert by orderId)
	Save(ctx context.Context, order *Order) error

	// FindByOrderID retrieves an order by its business id
	FindByOrderID(ctx context.Context, orderID string) (*Order, error)

	// FindByOrderNumber retrieves an order by its external number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
}

// BaseWeightRepository reads pre-measured vehicle weights
type BaseWeightRepository interface {
	// Save persists a base weight record
	Save(ctx context.Context, weight *BaseWeight) error

	// FindEffective retrieves the base weight effective for the car
	// number at the given moment, nil when none applies
	FindEffective(ctx context.Context, carNumber string, at time.Time) (*BaseWeight, error)
}

// UserRepository reads identity reference data
type UserRepository interface {
	FindByUserID(ctx context.Context, userID string) (*User, error)
}

// OrganizationRepository reads organization reference data
type OrganizationRepository interface {
	FindByOrgID(ctx context.Context, orgID string) (*Organization, error)
}

// VehicleRepository reads vehicle reference data
type VehicleRepository interface {
	FindByVehicleID(ctx context.Context, vehicleID string) (*Vehicle, error)
}
