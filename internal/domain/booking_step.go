package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for step records
var (
	ErrStepAlreadyDecided = errors.New("step is already decided")
	ErrStepNotOpen        = errors.New("no open step awaiting a decision")
)

// BookingStep is one row of a booking's audit trail through the
// pipeline. IsPassed is nil while the step awaits a decision; exactly
// one step per booking may be open at a time. Rows are never deleted.
type BookingStep struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  string             `bson:"tenantId" json:"tenantId"`
	FactoryID string             `bson:"factoryId" json:"factoryId"`

	BookingID      string         `bson:"bookingId" json:"bookingId"`
	OperationValue OperationValue `bson:"operationValue" json:"operationValue"`
	OperationTitle string         `bson:"operationTitle" json:"operationTitle"`

	ResponsibleID   string `bson:"responsibleId,omitempty" json:"responsibleId,omitempty"`
	ResponsibleName string `bson:"responsibleName,omitempty" json:"responsibleName,omitempty"`
	ResponsibleIIN  string `bson:"responsibleIin,omitempty" json:"responsibleIin,omitempty"`

	IsPassed *bool      `bson:"isPassed" json:"isPassed"`
	StartAt  *time.Time `bson:"startAt,omitempty" json:"startAt,omitempty"`
	EndAt    *time.Time `bson:"endAt,omitempty" json:"endAt,omitempty"`

	CancelledAt  *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelReason string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewOpenStep creates an undecided step awaiting a future claim; every
// field except the booking and operation references stays empty
func NewOpenStep(booking *Booking, op *Operation, now time.Time) *BookingStep {
	return &BookingStep{
		ID:             primitive.NewObjectID(),
		TenantID:       booking.TenantID,
		FactoryID:      booking.FactoryID,
		BookingID:      booking.BookingID,
		OperationValue: op.Value,
		OperationTitle: op.Title,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewDecidedStep creates a step that is closed on arrival, used for
// auto-resolved operations and terminals reached one step ahead
func NewDecidedStep(booking *Booking, op *Operation, passed bool, reason string, employeeID, employeeName string, now time.Time) *BookingStep {
	step := NewOpenStep(booking, op, now)
	step.ResponsibleID = employeeID
	step.ResponsibleName = employeeName
	step.StartAt = &now
	step.close(passed, reason, now)
	return step
}

// IsOpen reports whether the step still awaits a decision
func (s *BookingStep) IsOpen() bool {
	return s.IsPassed == nil
}

// Take assigns the claiming employee and starts the step clock
func (s *BookingStep) Take(employeeID, employeeName, employeeIIN string, now time.Time) error {
	if !s.IsOpen() {
		return ErrStepAlreadyDecided
	}
	s.ResponsibleID = employeeID
	s.ResponsibleName = employeeName
	s.ResponsibleIIN = employeeIIN
	s.StartAt = &now
	s.UpdatedAt = now
	return nil
}

// Close records the decision on an open step
func (s *BookingStep) Close(passed bool, reason string, now time.Time) error {
	if !s.IsOpen() {
		return ErrStepAlreadyDecided
	}
	s.close(passed, reason, now)
	return nil
}

func (s *BookingStep) close(passed bool, reason string, now time.Time) {
	s.IsPassed = &passed
	s.EndAt = &now
	if !passed {
		s.CancelledAt = &now
		s.CancelReason = reason
	}
	s.UpdatedAt = now
}
