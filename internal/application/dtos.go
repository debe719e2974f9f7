package application

import "time"

// FreeIntervalDTO represents one bookable interval with its remaining
// capacity
type FreeIntervalDTO struct {
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt"`
	FreeSpace int       `json:"freeSpace"`
}

// WeightDTO carries a weight in both stored units
type WeightDTO struct {
	Tons float64 `json:"tons"`
	Kg   int64   `json:"kg"`
}

// PartyDTO represents a person snapshot in responses
type PartyDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IIN  string `json:"iin,omitempty"`
}

// OrganizationDTO represents an organization snapshot in responses
type OrganizationDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	BIN  string `json:"bin,omitempty"`
}

// VehicleDTO represents a vehicle snapshot in responses
type VehicleDTO struct {
	ID                 string `json:"id"`
	RegistrationNumber string `json:"registrationNumber"`
	Info               string `json:"info,omitempty"`
}

// BookingDTO represents a booking in application layer responses
type BookingDTO struct {
	BookingID             string           `json:"bookingId"`
	OrderID               string           `json:"orderId"`
	OrderNumber           string           `json:"orderNumber"`
	Owner                 PartyDTO         `json:"owner"`
	Driver                *PartyDTO        `json:"driver,omitempty"`
	Organization          *OrganizationDTO `json:"organization,omitempty"`
	Vehicle               VehicleDTO       `json:"vehicle"`
	Trailer               *VehicleDTO      `json:"trailer,omitempty"`
	CarNumber             string           `json:"carNumber"`
	WorkshopScheduleID    string           `json:"workshopScheduleId"`
	WorkshopSapID         string           `json:"workshopSapId"`
	CurrentOperationValue string           `json:"currentOperationValue"`
	CurrentOperationTitle string           `json:"currentOperationTitle"`
	StartAt               time.Time        `json:"startAt"`
	EndAt                 time.Time        `json:"endAt"`
	LoadingVolume         WeightDTO        `json:"loadingVolume"`
	VehicleTara           *WeightDTO       `json:"vehicleTara,omitempty"`
	VehicleNetto          *WeightDTO       `json:"vehicleNetto,omitempty"`
	VehicleBrutto         *WeightDTO       `json:"vehicleBrutto,omitempty"`
	ResponsibleID         string           `json:"responsibleId,omitempty"`
	ResponsibleName       string           `json:"responsibleName,omitempty"`
	IsActive              bool             `json:"isActive"`
	IsUsed                bool             `json:"isUsed"`
	IsCancelled           bool             `json:"isCancelled"`
	IsExecuted            bool             `json:"isExecuted"`
	ExecutedAt            *time.Time       `json:"executedAt,omitempty"`
	CancelReason          string           `json:"cancelReason,omitempty"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// BookingStepDTO represents one audit-trail step in responses
type BookingStepDTO struct {
	ID              string     `json:"id"`
	BookingID       string     `json:"bookingId"`
	OperationValue  string     `json:"operationValue"`
	OperationTitle  string     `json:"operationTitle"`
	ResponsibleID   string     `json:"responsibleId,omitempty"`
	ResponsibleName string     `json:"responsibleName,omitempty"`
	IsPassed        *bool      `json:"isPassed"`
	StartAt         *time.Time `json:"startAt,omitempty"`
	EndAt           *time.Time `json:"endAt,omitempty"`
	CancelReason    string     `json:"cancelReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// OperationDTO represents a pipeline step in responses
type OperationDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Value     string `json:"value"`
	RoleValue string `json:"roleValue,omitempty"`
	IsFirst   bool   `json:"isFirst"`
	IsLast    bool   `json:"isLast"`
	PrevValue string `json:"prevValue,omitempty"`
	NextValue string `json:"nextValue,omitempty"`
	CanCancel bool   `json:"canCancel"`
	IsActive  bool   `json:"isActive"`
}

// WorkshopDTO represents a workshop in responses
type WorkshopDTO struct {
	ID       string `json:"id"`
	SapID    string `json:"sapId"`
	Title    string `json:"title"`
	IsActive bool   `json:"isActive"`
}

// WorkshopScheduleDTO represents a capacity schedule in responses
type WorkshopScheduleDTO struct {
	ID                     string    `json:"id"`
	WorkshopSapID          string    `json:"workshopSapId"`
	DateStart              time.Time `json:"dateStart"`
	DateEnd                time.Time `json:"dateEnd"`
	StartAt                string    `json:"startAt"`
	EndAt                  string    `json:"endAt"`
	CarServiceMin          int       `json:"carServiceMin"`
	BreakBetweenServiceMin int       `json:"breakBetweenServiceMin"`
	MachineAtOneTime       int       `json:"machineAtOneTime"`
	CanEarlierComeMin      int       `json:"canEarlierComeMin"`
	CanLateComeMin         int       `json:"canLateComeMin"`
	IsActive               bool      `json:"isActive"`
}

// OrderDTO represents the local order projection in responses
type OrderDTO struct {
	OrderID      string    `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	Status       string    `json:"status"`
	IsActive     bool      `json:"isActive"`
	IsPaid       bool      `json:"isPaid"`
	Quan         WeightDTO `json:"quan"`
	QuanBooked   WeightDTO `json:"quanBooked"`
	QuanReleased WeightDTO `json:"quanReleased"`
	QuanLeft     WeightDTO `json:"quanLeft"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
