package cloudevents

import (
	"time"

	"github.com/plantgate-platform/dispatch-service/pkg/tenant"
)

// EventType constants for dispatch domain events
const (
	// Booking lifecycle events
	BookingCreated   = "plantgate.booking.created"
	BookingClaimed   = "plantgate.booking.claimed"
	CheckpointPassed = "plantgate.booking.checkpoint-passed"
	BookingCompleted = "plantgate.booking.completed"
	BookingCancelled = "plantgate.booking.cancelled"

	// Order events
	OrderReconciled     = "plantgate.order.reconciled"
	OrderPaymentUpdated = "plantgate.order.payment-updated"
)

// Source constants for event sources
const (
	SourceDispatch = "/plantgate/dispatch-service"
	SourceBilling  = "/plantgate/billing-gateway"
)

// CloudEvents extension attribute names
const (
	ExtTenantID      = "pgtenantid"
	ExtFactoryID     = "pgfactoryid"
	ExtWorkshopID    = "pgworkshopid"
	ExtCorrelationID = "pgcorrelationid"
	ExtBookingID     = "pgbookingid"
	ExtOrderID       = "pgorderid"
)

// CloudEvent represents a CloudEvents v1.0 compliant event for the
// dispatch platform.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Platform extensions
	CorrelationID string `json:"pgcorrelationid,omitempty"`
	TenantID      string `json:"pgtenantid,omitempty"`
	FactoryID     string `json:"pgfactoryid,omitempty"`
	WorkshopID    string `json:"pgworkshopid,omitempty"`
	BookingID     string `json:"pgbookingid,omitempty"`
	OrderID       string `json:"pgorderid,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// SetTenantContext sets tenant context extensions on a CloudEvent
func (e *CloudEvent) SetTenantContext(tc *tenant.Context) {
	if tc == nil {
		return
	}
	e.TenantID = tc.TenantID
	e.FactoryID = tc.FactoryID
	e.WorkshopID = tc.WorkshopID
}

// GetTenantContext extracts tenant context from a CloudEvent
func (e *CloudEvent) GetTenantContext() *tenant.Context {
	return &tenant.Context{
		TenantID:   e.TenantID,
		FactoryID:  e.FactoryID,
		WorkshopID: e.WorkshopID,
	}
}

// WithTenantContext is a builder method that sets tenant context and returns the event
func (e *CloudEvent) WithTenantContext(tc *tenant.Context) *CloudEvent {
	e.SetTenantContext(tc)
	return e
}

// BookingCreatedData is the payload for BookingCreated events.
type BookingCreatedData struct {
	BookingID     string    `json:"bookingId"`
	OrderID       string    `json:"orderId"`
	WorkshopSapID string    `json:"workshopSapId"`
	VehicleID     string    `json:"vehicleId"`
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
	BookedTons    float64   `json:"bookedTons"`
	BookedKg      int64     `json:"bookedKg"`
}

// BookingClaimedData is the payload for BookingClaimed events.
type BookingClaimedData struct {
	BookingID  string `json:"bookingId"`
	Operation  string `json:"operation"`
	EmployeeID string `json:"employeeId"`
}

// CheckpointPassedData is the payload for CheckpointPassed events.
type CheckpointPassedData struct {
	BookingID     string `json:"bookingId"`
	Operation     string `json:"operation"`
	NextOperation string `json:"nextOperation,omitempty"`
	EmployeeID    string `json:"employeeId"`
	IsPassed      bool   `json:"isPassed"`
	Cancelled     bool   `json:"cancelled"`
}

// BookingFinishedData is the payload for BookingCompleted and
// BookingCancelled events.
type BookingFinishedData struct {
	BookingID    string  `json:"bookingId"`
	OrderID      string  `json:"orderId"`
	Outcome      string  `json:"outcome"`
	ReleasedTons float64 `json:"releasedTons,omitempty"`
	ReleasedKg   int64   `json:"releasedKg,omitempty"`
}

// OrderReconciledData is the payload for OrderReconciled events.
type OrderReconciledData struct {
	OrderID       string  `json:"orderId"`
	QuanTons      float64 `json:"quanTons"`
	BookedTons    float64 `json:"bookedTons"`
	ReleasedTons  float64 `json:"releasedTons"`
	AvailableTons float64 `json:"availableTons"`
}

// OrderPaymentData is the payload consumed from billing for
// OrderPaymentUpdated events.
type OrderPaymentData struct {
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	Status      string  `json:"status"`
	PaidAmount  float64 `json:"paidAmount,omitempty"`
}
