package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for the local order projection
var (
	ErrOrderNotBookable     = errors.New("order is not available for booking")
	ErrOrderNotReconcilable = errors.New("order is not in a reconcilable status")
)

// OrderStatus represents the order lifecycle, driven by the external
// billing system for payment transitions and locally for booking ones
type OrderStatus string

const (
	OrderStatusAwaitingPayment     OrderStatus = "awaiting_payment"
	OrderStatusPaidAwaitingBooking OrderStatus = "paid_awaiting_booking"
	OrderStatusInProgress          OrderStatus = "in_progress"
	OrderStatusCompleted           OrderStatus = "completed"
	OrderStatusCancelled           OrderStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusAwaitingPayment, OrderStatusPaidAwaitingBooking,
		OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order is the local projection of a paid material order. Quantity
// totals are owned by the reconciler: booked covers live bookings,
// released covers executed ones, left is what remains bookable.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID     string             `bson:"orderId" json:"orderId"`
	OrderNumber string             `bson:"orderNumber" json:"orderNumber"`
	TenantID    string             `bson:"tenantId" json:"tenantId"`
	FactoryID   string             `bson:"factoryId" json:"factoryId"`

	OwnerID        string `bson:"ownerId" json:"ownerId"`
	OwnerName      string `bson:"ownerName" json:"ownerName"`
	OrganizationID string `bson:"organizationId,omitempty" json:"organizationId,omitempty"`

	Status   OrderStatus `bson:"status" json:"status"`
	IsActive bool        `bson:"isActive" json:"isActive"`
	IsPaid   bool        `bson:"isPaid" json:"isPaid"`

	Quan         Weight `bson:"quan" json:"quan"`
	QuanBooked   Weight `bson:"quanBooked" json:"quanBooked"`
	QuanReleased Weight `bson:"quanReleased" json:"quanReleased"`
	QuanLeft     Weight `bson:"quanLeft" json:"quanLeft"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Domain events - transient, not persisted
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewOrder creates a local order projection awaiting payment
func NewOrder(orderID, orderNumber, ownerID, ownerName, organizationID string, quanTons float64) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:             primitive.NewObjectID(),
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		OwnerID:        ownerID,
		OwnerName:      ownerName,
		OrganizationID: organizationID,
		Status:         OrderStatusAwaitingPayment,
		IsActive:       true,
		Quan:           NewWeight(quanTons),
		QuanLeft:       NewWeight(quanTons),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Bookable reports whether a new booking may be created against the
// order: it must be active, paid, and awaiting booking or in progress
func (o *Order) Bookable() bool {
	return o.IsActive && o.IsPaid &&
		(o.Status == OrderStatusPaidAwaitingBooking || o.Status == OrderStatusInProgress)
}

// Reconcilable reports whether quantity totals may be recomputed
func (o *Order) Reconcilable() bool {
	return o.Status == OrderStatusPaidAwaitingBooking || o.Status == OrderStatusInProgress
}

// StartProgress moves a freshly booked order out of the waiting state
func (o *Order) StartProgress() {
	if o.Status == OrderStatusPaidAwaitingBooking {
		o.Status = OrderStatusInProgress
		o.UpdatedAt = time.Now().UTC()
	}
}

// MarkPaid applies an external payment confirmation
func (o *Order) MarkPaid() {
	o.IsPaid = true
	if o.Status == OrderStatusAwaitingPayment {
		o.Status = OrderStatusPaidAwaitingBooking
	}
	o.UpdatedAt = time.Now().UTC()
}

// MarkCancelled applies an external cancellation
func (o *Order) MarkCancelled() {
	o.Status = OrderStatusCancelled
	o.IsActive = false
	o.UpdatedAt = time.Now().UTC()
}

// ApplyReconciliation overwrites the quantity totals from a fresh
// aggregation over the order's bookings. Pure assignment, never
// accumulation, so repeated runs with the same bookings are idempotent.
func (o *Order) ApplyReconciliation(bookedKg, releasedKg int64) {
	o.QuanBooked = Weight{Tons: float64(bookedKg) / 1000, Kg: bookedKg}
	o.QuanReleased = Weight{Tons: float64(releasedKg) / 1000, Kg: releasedKg}

	leftKg := o.Quan.Kg - bookedKg - releasedKg
	if leftKg < 0 {
		leftKg = 0
	}
	o.QuanLeft = Weight{Tons: float64(leftKg) / 1000, Kg: leftKg}
	o.UpdatedAt = time.Now().UTC()
	o.domainEvents = append(o.domainEvents, NewOrderReconciledEvent(o))
}

// DomainEvents returns all pending domain events
func (o *Order) DomainEvents() []DomainEvent {
	return o.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (o *Order) ClearDomainEvents() {
	o.domainEvents = make([]DomainEvent, 0)
}
