package application

import (
	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// ToBookingDTO converts a domain Booking to BookingDTO
func ToBookingDTO(b *domain.Booking) *BookingDTO {
	if b == nil {
		return nil
	}

	dto := &BookingDTO{
		BookingID:             b.BookingID,
		OrderID:               b.OrderID,
		OrderNumber:           b.OrderNumber,
		Owner:                 toPartyDTO(b.Owner),
		Vehicle:               toVehicleDTO(b.Vehicle),
		CarNumber:             b.CarNumber,
		WorkshopScheduleID:    b.WorkshopScheduleID,
		WorkshopSapID:         b.WorkshopSapID,
		CurrentOperationValue: string(b.CurrentOperationValue),
		CurrentOperationTitle: b.CurrentOperationTitle,
		StartAt:               b.StartAt,
		EndAt:                 b.EndAt,
		LoadingVolume:         toWeightDTO(b.LoadingVolume),
		VehicleTara:           toWeightPtrDTO(b.VehicleTara),
		VehicleNetto:          toWeightPtrDTO(b.VehicleNetto),
		VehicleBrutto:         toWeightPtrDTO(b.VehicleBrutto),
		ResponsibleID:         b.ResponsibleID,
		ResponsibleName:       b.ResponsibleName,
		IsActive:              b.IsActive,
		IsUsed:                b.IsUsed,
		IsCancelled:           b.IsCancelled,
		IsExecuted:            b.IsExecuted,
		ExecutedAt:            b.ExecutedAt,
		CancelReason:          b.CancelReason,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}

	if b.Driver != nil {
		d := toPartyDTO(*b.Driver)
		dto.Driver = &d
	}
	if b.Organization != nil {
		dto.Organization = &OrganizationDTO{ID: b.Organization.ID, Name: b.Organization.Name, BIN: b.Organization.BIN}
	}
	if b.Trailer != nil {
		t := toVehicleDTO(*b.Trailer)
		dto.Trailer = &t
	}
	return dto
}

// ToBookingStepDTO converts a domain BookingStep to BookingStepDTO
func ToBookingStepDTO(s *domain.BookingStep) *BookingStepDTO {
	if s == nil {
		return nil
	}
	return &BookingStepDTO{
		ID:              s.ID.Hex(),
		BookingID:       s.BookingID,
		OperationValue:  string(s.OperationValue),
		OperationTitle:  s.OperationTitle,
		ResponsibleID:   s.ResponsibleID,
		ResponsibleName: s.ResponsibleName,
		IsPassed:        s.IsPassed,
		StartAt:         s.StartAt,
		EndAt:           s.EndAt,
		CancelReason:    s.CancelReason,
		CreatedAt:       s.CreatedAt,
	}
}

// ToOperationDTO converts a domain Operation to OperationDTO
func ToOperationDTO(op *domain.Operation) *OperationDTO {
	if op == nil {
		return nil
	}
	return &OperationDTO{
		ID:        op.ID.Hex(),
		Title:     op.Title,
		Value:     string(op.Value),
		RoleValue: op.RoleValue,
		IsFirst:   op.IsFirst,
		IsLast:    op.IsLast,
		PrevValue: string(op.PrevValue),
		NextValue: string(op.NextValue),
		CanCancel: op.CanCancel,
		IsActive:  op.IsActive,
	}
}

// ToWorkshopDTO converts a domain Workshop to WorkshopDTO
func ToWorkshopDTO(w *domain.Workshop) *WorkshopDTO {
	if w == nil {
		return nil
	}
	return &WorkshopDTO{
		ID:       w.ID.Hex(),
		SapID:    w.SapID,
		Title:    w.Title,
		IsActive: w.IsActive,
	}
}

// ToWorkshopScheduleDTO converts a domain WorkshopSchedule to its DTO
func ToWorkshopScheduleDTO(s *domain.WorkshopSchedule) *WorkshopScheduleDTO {
	if s == nil {
		return nil
	}
	return &WorkshopScheduleDTO{
		ID:                     s.ID.Hex(),
		WorkshopSapID:          s.WorkshopSapID,
		DateStart:              s.DateStart,
		DateEnd:                s.DateEnd,
		StartAt:                s.StartAt,
		EndAt:                  s.EndAt,
		CarServiceMin:          s.CarServiceMin,
		BreakBetweenServiceMin: s.BreakBetweenServiceMin,
		MachineAtOneTime:       s.MachineAtOneTime,
		CanEarlierComeMin:      s.CanEarlierComeMin,
		CanLateComeMin:         s.CanLateComeMin,
		IsActive:               s.IsActive,
	}
}

// ToOrderDTO converts a domain Order to OrderDTO
func ToOrderDTO(o *domain.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		OrderID:      o.OrderID,
		OrderNumber:  o.OrderNumber,
		Status:       string(o.Status),
		IsActive:     o.IsActive,
		IsPaid:       o.IsPaid,
		Quan:         toWeightDTO(o.Quan),
		QuanBooked:   toWeightDTO(o.QuanBooked),
		QuanReleased: toWeightDTO(o.QuanReleased),
		QuanLeft:     toWeightDTO(o.QuanLeft),
		UpdatedAt:    o.UpdatedAt,
	}
}

func toWeightDTO(w domain.Weight) WeightDTO {
	return WeightDTO{Tons: w.Tons, Kg: w.Kg}
}

func toWeightPtrDTO(w *domain.Weight) *WeightDTO {
	if w == nil {
		return nil
	}
	return &WeightDTO{Tons: w.Tons, Kg: w.Kg}
}

func toPartyDTO(p domain.PartySnapshot) PartyDTO {
	return PartyDTO{ID: p.ID, Name: p.Name, IIN: p.IIN}
}

func toVehicleDTO(v domain.VehicleSnapshot) VehicleDTO {
	return VehicleDTO{ID: v.ID, RegistrationNumber: v.RegistrationNumber, Info: v.Info}
}
