package application

import (
	"context"
	"fmt"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// ConfigService manages the administrator-owned reference data:
// pipeline operations, workshops and their capacity schedules
type ConfigService struct {
	operationRepo domain.OperationRepository
	workshopRepo  domain.WorkshopRepository
	scheduleRepo  domain.WorkshopScheduleRepository
	logger        *logging.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(
	operationRepo domain.OperationRepository,
	workshopRepo domain.WorkshopRepository,
	scheduleRepo domain.WorkshopScheduleRepository,
	logger *logging.Logger,
) *ConfigService {
	return &ConfigService{
		operationRepo: operationRepo,
		workshopRepo:  workshopRepo,
		scheduleRepo:  scheduleRepo,
		logger:        logger,
	}
}

// CreateOperation adds a pipeline step. The resulting operation set
// must still form a valid chain, otherwise the step is rejected.
func (s *ConfigService) CreateOperation(ctx context.Context, cmd CreateOperationCommand) (*OperationDTO, error) {
	if cmd.Title == "" || cmd.Value == "" {
		return nil, errors.ErrValidation("operation title and value are required")
	}

	existing, err := s.operationRepo.FindByValue(ctx, domain.OperationValue(cmd.Value))
	if err != nil {
		return nil, fmt.Errorf("failed to look up operation: %w", err)
	}
	if existing != nil {
		return nil, errors.ErrConflict(fmt.Sprintf("operation %q already exists", cmd.Value))
	}

	op := domain.NewOperation(cmd.Title, domain.OperationValue(cmd.Value), cmd.RoleValue, cmd.IsFirst, cmd.IsLast, cmd.CanCancel)
	op.PrevValue = domain.OperationValue(cmd.PrevValue)
	op.NextValue = domain.OperationValue(cmd.NextValue)

	active, err := s.operationRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}
	if _, err := domain.NewOperationChain(append(active, op)); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.operationRepo.Save(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to save operation: %w", err)
	}

	s.logger.WithContext(ctx).Info("Pipeline operation created", "value", cmd.Value)
	return ToOperationDTO(op), nil
}

// ListOperations returns every configured pipeline step
func (s *ConfigService) ListOperations(ctx context.Context) ([]*OperationDTO, error) {
	operations, err := s.operationRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}
	dtos := make([]*OperationDTO, 0, len(operations))
	for _, op := range operations {
		dtos = append(dtos, ToOperationDTO(op))
	}
	return dtos, nil
}

// CreateWorkshop registers a loading location
func (s *ConfigService) CreateWorkshop(ctx context.Context, cmd CreateWorkshopCommand) (*WorkshopDTO, error) {
	if cmd.SapID == "" || cmd.Title == "" {
		return nil, errors.ErrValidation("workshop sapId and title are required")
	}

	existing, err := s.workshopRepo.FindBySapID(ctx, cmd.SapID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up workshop: %w", err)
	}
	if existing != nil {
		return nil, errors.ErrConflict(fmt.Sprintf("workshop %q already exists", cmd.SapID))
	}

	workshop := domain.NewWorkshop(cmd.SapID, cmd.Title)
	if err := s.workshopRepo.Save(ctx, workshop); err != nil {
		return nil, fmt.Errorf("failed to save workshop: %w", err)
	}

	s.logger.WithContext(ctx).Info("Workshop created", "sapId", cmd.SapID)
	return ToWorkshopDTO(workshop), nil
}

// ListWorkshops returns every registered workshop
func (s *ConfigService) ListWorkshops(ctx context.Context) ([]*WorkshopDTO, error) {
	workshops, err := s.workshopRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workshops: %w", err)
	}
	dtos := make([]*WorkshopDTO, 0, len(workshops))
	for _, w := range workshops {
		dtos = append(dtos, ToWorkshopDTO(w))
	}
	return dtos, nil
}

// CreateWorkshopSchedule configures a workshop's capacity over a
// validity window. At most one active schedule may cover any date of
// a workshop, so overlapping windows are rejected.
func (s *ConfigService) CreateWorkshopSchedule(ctx context.Context, cmd CreateWorkshopScheduleCommand) (*WorkshopScheduleDTO, error) {
	workshop, err := s.workshopRepo.FindBySapID(ctx, cmd.WorkshopSapID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up workshop: %w", err)
	}
	if workshop == nil {
		return nil, errors.ErrNotFoundWithID("workshop", cmd.WorkshopSapID)
	}

	schedule, err := domain.NewWorkshopSchedule(
		workshop.ID.Hex(), workshop.SapID,
		cmd.DateStart, cmd.DateEnd,
		cmd.StartAt, cmd.EndAt,
		cmd.CarServiceMin, cmd.BreakBetweenServiceMin,
		cmd.MachineAtOneTime,
		cmd.CanEarlierComeMin, cmd.CanLateComeMin,
	)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	overlapping, err := s.scheduleRepo.FindOverlapping(ctx, cmd.WorkshopSapID, cmd.DateStart, cmd.DateEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, errors.ErrConflict("an active schedule already covers part of this validity window").
			WithDetail("conflictingScheduleId", overlapping[0].ID.Hex())
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to save capacity schedule: %w", err)
	}

	s.logger.WithContext(ctx).Info("Capacity schedule created",
		"workshopSapId", cmd.WorkshopSapID,
		"dateStart", cmd.DateStart.Format("2006-01-02"),
		"dateEnd", cmd.DateEnd.Format("2006-01-02"))
	return ToWorkshopScheduleDTO(schedule), nil
}

// ListWorkshopSchedules returns every configured capacity schedule
func (s *ConfigService) ListWorkshopSchedules(ctx context.Context) ([]*WorkshopScheduleDTO, error) {
	schedules, err := s.scheduleRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load capacity schedules: %w", err)
	}
	dtos := make([]*WorkshopScheduleDTO, 0, len(schedules))
	for _, sc := range schedules {
		dtos = append(dtos, ToWorkshopScheduleDTO(sc))
	}
	return dtos, nil
}
