package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseDomainEvent contains common event fields
type BaseDomainEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AggregateId string    `json:"aggregateId"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseDomainEvent) EventType() string     { return e.Type }
func (e BaseDomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseDomainEvent) AggregateID() string   { return e.AggregateId }

func newBase(eventType, aggregateID string) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateId: aggregateID,
		Timestamp:   time.Now().UTC(),
	}
}

// BookingCreatedEvent is raised when a client books a loading slot
type BookingCreatedEvent struct {
	BaseDomainEvent
	BookingID     string    `json:"bookingId"`
	OrderID       string    `json:"orderId"`
	WorkshopSapID string    `json:"workshopSapId"`
	VehicleID     string    `json:"vehicleId"`
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
	BookedTons    float64   `json:"bookedTons"`
	BookedKg      int64     `json:"bookedKg"`
}

// NewBookingCreatedEvent creates a new BookingCreatedEvent
func NewBookingCreatedEvent(b *Booking) *BookingCreatedEvent {
	return &BookingCreatedEvent{
		BaseDomainEvent: newBase("plantgate.booking.created", b.BookingID),
		BookingID:       b.BookingID,
		OrderID:         b.OrderID,
		WorkshopSapID:   b.WorkshopSapID,
		VehicleID:       b.Vehicle.ID,
		StartAt:         b.StartAt,
		EndAt:           b.EndAt,
		BookedTons:      b.LoadingVolume.Tons,
		BookedKg:        b.LoadingVolume.Kg,
	}
}

// BookingClaimedEvent is raised when an employee takes responsibility
// for the booking's current step
type BookingClaimedEvent struct {
	BaseDomainEvent
	BookingID  string         `json:"bookingId"`
	Operation  OperationValue `json:"operation"`
	EmployeeID string         `json:"employeeId"`
}

// NewBookingClaimedEvent creates a new BookingClaimedEvent
func NewBookingClaimedEvent(b *Booking, employeeID string) *BookingClaimedEvent {
	return &BookingClaimedEvent{
		BaseDomainEvent: newBase("plantgate.booking.claimed", b.BookingID),
		BookingID:       b.BookingID,
		Operation:       b.CurrentOperationValue,
		EmployeeID:      employeeID,
	}
}

// CheckpointPassedEvent is raised when a booking advances past a
// non-terminal operation
type CheckpointPassedEvent struct {
	BaseDomainEvent
	BookingID     string         `json:"bookingId"`
	Operation     OperationValue `json:"operation"`
	NextOperation OperationValue `json:"nextOperation"`
	EmployeeID    string         `json:"employeeId,omitempty"`
}

// NewCheckpointPassedEvent creates a new CheckpointPassedEvent
func NewCheckpointPassedEvent(b *Booking, from, to OperationValue, employeeID string) *CheckpointPassedEvent {
	return &CheckpointPassedEvent{
		BaseDomainEvent: newBase("plantgate.booking.checkpoint-passed", b.BookingID),
		BookingID:       b.BookingID,
		Operation:       from,
		NextOperation:   to,
		EmployeeID:      employeeID,
	}
}

// BookingExecutedEvent is raised when a booking finishes at the
// success terminal
type BookingExecutedEvent struct {
	BaseDomainEvent
	BookingID    string  `json:"bookingId"`
	OrderID      string  `json:"orderId"`
	ReleasedTons float64 `json:"releasedTons"`
	ReleasedKg   int64   `json:"releasedKg"`
}

// NewBookingExecutedEvent creates a new BookingExecutedEvent
func NewBookingExecutedEvent(b *Booking) *BookingExecutedEvent {
	e := &BookingExecutedEvent{
		BaseDomainEvent: newBase("plantgate.booking.completed", b.BookingID),
		BookingID:       b.BookingID,
		OrderID:         b.OrderID,
	}
	if b.VehicleNetto != nil {
		e.ReleasedTons = b.VehicleNetto.Tons
		e.ReleasedKg = b.VehicleNetto.Kg
	}
	return e
}

// BookingCancelledEvent is raised when a booking is forced to the
// cancellation terminal
type BookingCancelledEvent struct {
	BaseDomainEvent
	BookingID string `json:"bookingId"`
	OrderID   string `json:"orderId"`
	Reason    string `json:"reason"`
}

// NewBookingCancelledEvent creates a new BookingCancelledEvent
func NewBookingCancelledEvent(b *Booking, reason string) *BookingCancelledEvent {
	return &BookingCancelledEvent{
		BaseDomainEvent: newBase("plantgate.booking.cancelled", b.BookingID),
		BookingID:       b.BookingID,
		OrderID:         b.OrderID,
		Reason:          reason,
	}
}

// OrderReconciledEvent is raised after the reconciler recomputes an
// order's quantity totals
type OrderReconciledEvent struct {
	BaseDomainEvent
	OrderID       string  `json:"orderId"`
	QuanTons      float64 `json:"quanTons"`
	BookedTons    float64 `json:"bookedTons"`
	ReleasedTons  float64 `json:"releasedTons"`
	AvailableTons float64 `json:"availableTons"`
}

// NewOrderReconciledEvent creates a new OrderReconciledEvent
func NewOrderReconciledEvent(o *Order) *OrderReconciledEvent {
	return &OrderReconciledEvent{
		BaseDomainEvent: newBase("plantgate.order.reconciled", o.OrderID),
		OrderID:         o.OrderID,
		QuanTons:        o.Quan.Tons,
		BookedTons:      o.QuanBooked.Tons,
		ReleasedTons:    o.QuanReleased.Tons,
		AvailableTons:   o.QuanLeft.Tons,
	}
}
