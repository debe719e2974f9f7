package domain

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for the Booking aggregate
var (
	ErrBookingNotActive      = errors.New("booking is not active")
	ErrBookingFinished       = errors.New("booking already reached a terminal state")
	ErrBookingAlreadyClaimed = errors.New("booking step is already claimed by another employee")
	ErrBookingNotClaimed     = errors.New("booking step has no responsible employee")
	ErrNotResponsible        = errors.New("employee is not the responsible for this booking")
	ErrArrivalTooEarly       = errors.New("too early to enter, the booked interval has not started")
	ErrArrivalTooLate        = errors.New("too late to enter, the booked interval has passed")
)

// PartySnapshot is an identity snapshot frozen onto the booking at
// creation time, preserved as it was even if the source record changes
type PartySnapshot struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	IIN  string `bson:"iin,omitempty" json:"iin,omitempty"`
	SID  string `bson:"sid,omitempty" json:"sid,omitempty"`
}

// OrganizationSnapshot freezes the booking organization's display data
type OrganizationSnapshot struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	BIN  string `bson:"bin,omitempty" json:"bin,omitempty"`
}

// VehicleSnapshot freezes a vehicle's registration data
type VehicleSnapshot struct {
	ID                 string `bson:"id" json:"id"`
	RegistrationNumber string `bson:"registrationNumber" json:"registrationNumber"`
	Info               string `bson:"info,omitempty" json:"info,omitempty"`
}

// Weight is a measured weight stored in tonnes with a mirrored
// kilograms value (kg = tonnes x 1000); both units are read downstream
type Weight struct {
	Tons float64 `bson:"tons" json:"tons"`
	Kg   int64   `bson:"kg" json:"kg"`
}

// NewWeight builds a tonne weight with its kilogram mirror. The
// kilogram value is rounded so tonne arithmetic does not truncate.
func NewWeight(tons float64) Weight {
	return Weight{Tons: tons, Kg: int64(math.Round(tons * 1000))}
}

// Booking is a client's reserved loading interval against an order,
// advanced through the checkpoint pipeline by employees. The four
// lifecycle flags narrow monotonically: cancelled and executed are
// mutually exclusive terminals, and either one clears isActive.
type Booking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID string             `bson:"bookingId" json:"bookingId"`
	TenantID  string             `bson:"tenantId" json:"tenantId"`
	FactoryID string             `bson:"factoryId" json:"factoryId"`

	OrderID     string `bson:"orderId" json:"orderId"`
	OrderNumber string `bson:"orderNumber" json:"orderNumber"`

	Owner        PartySnapshot         `bson:"owner" json:"owner"`
	Driver       *PartySnapshot        `bson:"driver,omitempty" json:"driver,omitempty"`
	Organization *OrganizationSnapshot `bson:"organization,omitempty" json:"organization,omitempty"`
	Vehicle      VehicleSnapshot       `bson:"vehicle" json:"vehicle"`
	Trailer      *VehicleSnapshot      `bson:"trailer,omitempty" json:"trailer,omitempty"`
	CarNumber    string                `bson:"carNumber" json:"carNumber"`

	WorkshopScheduleID string `bson:"workshopScheduleId" json:"workshopScheduleId"`
	WorkshopSapID      string `bson:"workshopSapId" json:"workshopSapId"`

	CurrentOperationValue OperationValue `bson:"currentOperationValue" json:"currentOperationValue"`
	CurrentOperationTitle string         `bson:"currentOperationTitle" json:"currentOperationTitle"`

	StartAt            time.Time  `bson:"startAt" json:"startAt"`
	EndAt              time.Time  `bson:"endAt" json:"endAt"`
	RescheduledStartAt *time.Time `bson:"rescheduledStartAt,omitempty" json:"rescheduledStartAt,omitempty"`
	RescheduledEndAt   *time.Time `bson:"rescheduledEndAt,omitempty" json:"rescheduledEndAt,omitempty"`

	LoadingVolume Weight  `bson:"loadingVolume" json:"loadingVolume"`
	VehicleTara   *Weight `bson:"vehicleTara,omitempty" json:"vehicleTara,omitempty"`
	VehicleNetto  *Weight `bson:"vehicleNetto,omitempty" json:"vehicleNetto,omitempty"`
	VehicleBrutto *Weight `bson:"vehicleBrutto,omitempty" json:"vehicleBrutto,omitempty"`

	ResponsibleID   string `bson:"responsibleId,omitempty" json:"responsibleId,omitempty"`
	ResponsibleName string `bson:"responsibleName,omitempty" json:"responsibleName,omitempty"`

	IsActive    bool       `bson:"isActive" json:"isActive"`
	IsUsed      bool       `bson:"isUsed" json:"isUsed"`
	IsCancelled bool       `bson:"isCancelled" json:"isCancelled"`
	IsExecuted  bool       `bson:"isExecuted" json:"isExecuted"`
	ExecutedAt  *time.Time `bson:"executedAt,omitempty" json:"executedAt,omitempty"`

	CancelledBy     string     `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelledByName string     `bson:"cancelledByName,omitempty" json:"cancelledByName,omitempty"`
	CancelReason    string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CancelledAt     *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Domain events - transient, not persisted
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewBookingParams carries the validated inputs for booking creation
type NewBookingParams struct {
	BookingID          string
	OrderID            string
	OrderNumber        string
	Owner              PartySnapshot
	Driver             *PartySnapshot
	Organization       *OrganizationSnapshot
	Vehicle            VehicleSnapshot
	Trailer            *VehicleSnapshot
	WorkshopScheduleID string
	WorkshopSapID      string
	StartAt            time.Time
	EndAt              time.Time
	BookedTons         float64
	FirstOperation     *Operation
}

// NewBooking creates a booking positioned at the pipeline's first
// operation with all lifecycle flags in their initial state
func NewBooking(p NewBookingParams, now time.Time) *Booking {
	carNumber := p.Vehicle.RegistrationNumber
	if p.Trailer != nil && p.Trailer.RegistrationNumber != "" {
		carNumber += " / " + p.Trailer.RegistrationNumber
	}

	b := &Booking{
		ID:                    primitive.NewObjectID(),
		BookingID:             p.BookingID,
		OrderID:               p.OrderID,
		OrderNumber:           p.OrderNumber,
		Owner:                 p.Owner,
		Driver:                p.Driver,
		Organization:          p.Organization,
		Vehicle:               p.Vehicle,
		Trailer:               p.Trailer,
		CarNumber:             carNumber,
		WorkshopScheduleID:    p.WorkshopScheduleID,
		WorkshopSapID:         p.WorkshopSapID,
		CurrentOperationValue: p.FirstOperation.Value,
		CurrentOperationTitle: p.FirstOperation.Title,
		StartAt:               p.StartAt,
		EndAt:                 p.EndAt,
		LoadingVolume:         NewWeight(p.BookedTons),
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
		domainEvents:          make([]DomainEvent, 0),
	}

	b.addDomainEvent(NewBookingCreatedEvent(b))
	return b
}

// IsFinished reports whether the booking reached a terminal state
func (b *Booking) IsFinished() bool {
	return b.IsCancelled || b.IsExecuted
}

// IsClaimed reports whether an employee is already responsible
func (b *Booking) IsClaimed() bool {
	return b.ResponsibleID != "" || b.ResponsibleName != ""
}

// EnsureWorkable rejects any pipeline action against an inactive or
// finished booking
func (b *Booking) EnsureWorkable() error {
	if b.IsFinished() {
		return ErrBookingFinished
	}
	if !b.IsActive {
		return ErrBookingNotActive
	}
	return nil
}

// Claim assigns an employee as responsible for the currently open step
// and marks the booking as in service
func (b *Booking) Claim(employeeID, employeeName string, now time.Time) error {
	if err := b.EnsureWorkable(); err != nil {
		return err
	}
	if b.IsClaimed() {
		return ErrBookingAlreadyClaimed
	}

	b.ResponsibleID = employeeID
	b.ResponsibleName = employeeName
	b.IsUsed = true
	b.UpdatedAt = now
	b.addDomainEvent(NewBookingClaimedEvent(b, employeeID))
	return nil
}

// ReleaseClaim clears the responsible so the next step can be claimed
func (b *Booking) ReleaseClaim(now time.Time) {
	b.ResponsibleID = ""
	b.ResponsibleName = ""
	b.UpdatedAt = now
}

// AdvanceTo moves the booking's pipeline position to the given
// non-terminal operation
func (b *Booking) AdvanceTo(op *Operation, employeeID string, now time.Time) error {
	if err := b.EnsureWorkable(); err != nil {
		return err
	}

	from := b.CurrentOperationValue
	b.CurrentOperationValue = op.Value
	b.CurrentOperationTitle = op.Title
	b.UpdatedAt = now
	b.addDomainEvent(NewCheckpointPassedEvent(b, from, op.Value, employeeID))
	return nil
}

// Execute finishes the booking at the success terminal
func (b *Booking) Execute(terminal *Operation, now time.Time) error {
	if err := b.EnsureWorkable(); err != nil {
		return err
	}

	b.CurrentOperationValue = terminal.Value
	b.CurrentOperationTitle = terminal.Title
	b.IsExecuted = true
	b.IsActive = false
	b.IsCancelled = false
	b.ExecutedAt = &now
	b.EndAt = now
	b.UpdatedAt = now
	b.addDomainEvent(NewBookingExecutedEvent(b))
	return nil
}

// CancelProcess finishes the booking at the cancellation terminal
func (b *Booking) CancelProcess(terminal *Operation, byID, byName, reason string, now time.Time) error {
	if err := b.EnsureWorkable(); err != nil {
		return err
	}

	b.CurrentOperationValue = terminal.Value
	b.CurrentOperationTitle = terminal.Title
	b.IsCancelled = true
	b.IsActive = false
	b.IsExecuted = false
	b.CancelledBy = byID
	b.CancelledByName = byName
	b.CancelReason = reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	b.addDomainEvent(NewBookingCancelledEvent(b, reason))
	return nil
}

// SetTara records the empty-vehicle weight in tonnes
func (b *Booking) SetTara(tons float64, now time.Time) {
	w := NewWeight(tons)
	b.VehicleTara = &w
	b.recomputeNetto()
	b.UpdatedAt = now
}

// SetBrutto records the loaded-vehicle weight in tonnes
func (b *Booking) SetBrutto(tons float64, now time.Time) {
	w := NewWeight(tons)
	b.VehicleBrutto = &w
	b.recomputeNetto()
	b.UpdatedAt = now
}

// SetNetto records the goods weight directly in tonnes
func (b *Booking) SetNetto(tons float64, now time.Time) {
	w := NewWeight(tons)
	b.VehicleNetto = &w
	b.UpdatedAt = now
}

func (b *Booking) recomputeNetto() {
	if b.VehicleTara != nil && b.VehicleBrutto != nil {
		w := NewWeight(b.VehicleBrutto.Tons - b.VehicleTara.Tons)
		b.VehicleNetto = &w
	}
}

func (b *Booking) addDomainEvent(event DomainEvent) {
	b.domainEvents = append(b.domainEvents, event)
}

// DomainEvents returns all pending domain events
func (b *Booking) DomainEvents() []DomainEvent {
	return b.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (b *Booking) ClearDomainEvents() {
	b.domainEvents = make([]DomainEvent, 0)
}
