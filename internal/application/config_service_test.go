package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantgate-platform/dispatch-service/pkg/errors"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

func newConfigFixture(t *testing.T) (*ConfigService, *mockOperationRepo, *mockWorkshopRepo, *mockScheduleRepo) {
	t.Helper()
	operationRepo := &mockOperationRepo{}
	workshopRepo := &mockWorkshopRepo{}
	scheduleRepo := &mockScheduleRepo{}
	svc := NewConfigService(operationRepo, workshopRepo, scheduleRepo, testLogger())
	return svc, operationRepo, workshopRepo, scheduleRepo
}

func TestCreateOperationRejectsBrokenChain(t *testing.T) {
	svc, operationRepo, _, _ := newConfigFixture(t)
	operationRepo.operations = pipelineOperations()

	// A second first operation cannot join the pipeline
	_, err := svc.CreateOperation(context.Background(), CreateOperationCommand{
		Title:   "Another entry",
		Value:   "second_entry",
		IsFirst: true,
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
}

func TestCreateOperationDuplicateValue(t *testing.T) {
	svc, operationRepo, _, _ := newConfigFixture(t)
	operationRepo.operations = pipelineOperations()

	_, err := svc.CreateOperation(context.Background(), CreateOperationCommand{
		Title: "Entry again",
		Value: string(domain.OpEntryCheckpoint),
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

func TestCreateWorkshopSchedule(t *testing.T) {
	svc, _, workshopRepo, scheduleRepo := newConfigFixture(t)
	workshopRepo.workshops = append(workshopRepo.workshops, domain.NewWorkshop("WS-100", "North gate"))

	dto, err := svc.CreateWorkshopSchedule(context.Background(), CreateWorkshopScheduleCommand{
		WorkshopSapID:          "WS-100",
		DateStart:              time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:                time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		StartAt:                "09:00",
		EndAt:                  "18:00",
		CarServiceMin:          20,
		BreakBetweenServiceMin: 5,
		MachineAtOneTime:       4,
		CanEarlierComeMin:      15,
		CanLateComeMin:         15,
	})
	require.NoError(t, err)
	require.NotNil(t, dto)
	assert.Equal(t, "WS-100", dto.WorkshopSapID)
	assert.Len(t, scheduleRepo.schedules, 1)
}

func TestCreateWorkshopScheduleRejectsOverlap(t *testing.T) {
	svc, _, workshopRepo, scheduleRepo := newConfigFixture(t)
	workshopRepo.workshops = append(workshopRepo.workshops, domain.NewWorkshop("WS-100", "North gate"))
	scheduleRepo.schedules = append(scheduleRepo.schedules, mustSchedule(t, "WS-100"))

	_, err := svc.CreateWorkshopSchedule(context.Background(), CreateWorkshopScheduleCommand{
		WorkshopSapID:          "WS-100",
		DateStart:              time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		DateEnd:                time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		StartAt:                "08:00",
		EndAt:                  "17:00",
		CarServiceMin:          30,
		BreakBetweenServiceMin: 10,
		MachineAtOneTime:       2,
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

func TestCreateWorkshopScheduleUnknownWorkshop(t *testing.T) {
	svc, _, _, _ := newConfigFixture(t)

	_, err := svc.CreateWorkshopSchedule(context.Background(), CreateWorkshopScheduleCommand{
		WorkshopSapID: "missing",
		DateStart:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:       time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		StartAt:       "09:00",
		EndAt:         "18:00",
		CarServiceMin: 20,
	})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestCreateWorkshopDuplicate(t *testing.T) {
	svc, _, workshopRepo, _ := newConfigFixture(t)
	workshopRepo.workshops = append(workshopRepo.workshops, domain.NewWorkshop("WS-100", "North gate"))

	_, err := svc.CreateWorkshop(context.Background(), CreateWorkshopCommand{SapID: "WS-100", Title: "Again"})
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}
