package application

import "time"

// CreateBookingCommand represents the command to book a loading slot
type CreateBookingCommand struct {
	RequesterID        string
	OrderID            string
	WorkshopScheduleID string
	Date               time.Time
	StartAt            time.Time
	EndAt              time.Time
	VehicleID          string
	TrailerID          string
	BookedTons         float64
	OrganizationID     string
	DriverID           string
}

// ClaimStepCommand represents the command to take responsibility for
// a booking's current checkpoint step
type ClaimStepCommand struct {
	BookingID  string
	EmployeeID string
}

// DecideCommand represents an employee decision on a claimed step
type DecideCommand struct {
	BookingID             string
	EmployeeID            string
	CurrentOperationValue string
	NextOperationValue    string
	IsPassed              bool
	CancelReason          string
	TaraTons              *float64
	BruttoTons            *float64
	NettoTons             *float64
}

// GetFreeIntervalsQuery represents the query for bookable intervals
type GetFreeIntervalsQuery struct {
	WorkshopSapID string
	Date          time.Time
}

// GetBookingQuery represents the query for a single booking
type GetBookingQuery struct {
	BookingID string
}

// ListOrderBookingsQuery represents the query for an order's bookings
type ListOrderBookingsQuery struct {
	OrderID string
}

// CreateOperationCommand represents the command to add a pipeline step
type CreateOperationCommand struct {
	Title     string
	Value     string
	RoleValue string
	IsFirst   bool
	IsLast    bool
	PrevValue string
	NextValue string
	CanCancel bool
}

// CreateWorkshopCommand represents the command to register a workshop
type CreateWorkshopCommand struct {
	SapID string
	Title string
}

// CreateWorkshopScheduleCommand represents the command to configure a
// workshop's capacity over a validity window
type CreateWorkshopScheduleCommand struct {
	WorkshopSapID          string
	DateStart              time.Time
	DateEnd                time.Time
	StartAt                string
	EndAt                  string
	CarServiceMin          int
	BreakBetweenServiceMin int
	MachineAtOneTime       int
	CanEarlierComeMin      int
	CanLateComeMin         int
}
