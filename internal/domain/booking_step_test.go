package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenStep(t *testing.T) {
	ops := createTestPipeline()
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC)

	step := NewOpenStep(b, ops[1], now)
	assert.Equal(t, "bk-1", step.BookingID)
	assert.Equal(t, OpInitialWeighing, step.OperationValue)
	assert.True(t, step.IsOpen())
	assert.Nil(t, step.StartAt)
	assert.Empty(t, step.ResponsibleID)
}

func TestStepTakeAndClose(t *testing.T) {
	ops := createTestPipeline()
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC)

	step := NewOpenStep(b, ops[0], now)
	require.NoError(t, step.Take("emp-1", "E. Guard", "750505300001", now))
	assert.Equal(t, "emp-1", step.ResponsibleID)
	require.NotNil(t, step.StartAt)
	assert.True(t, step.IsOpen())

	later := now.Add(5 * time.Minute)
	require.NoError(t, step.Close(true, "", later))
	assert.False(t, step.IsOpen())
	require.NotNil(t, step.IsPassed)
	assert.True(t, *step.IsPassed)
	assert.Equal(t, later, *step.EndAt)
	assert.Nil(t, step.CancelledAt)

	assert.ErrorIs(t, step.Take("emp-2", "X", "", later), ErrStepAlreadyDecided)
	assert.ErrorIs(t, step.Close(true, "", later), ErrStepAlreadyDecided)
}

func TestStepCloseRejected(t *testing.T) {
	ops := createTestPipeline()
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC)

	step := NewOpenStep(b, ops[0], now)
	require.NoError(t, step.Close(false, "vehicle mismatch", now))

	require.NotNil(t, step.IsPassed)
	assert.False(t, *step.IsPassed)
	require.NotNil(t, step.CancelledAt)
	assert.Equal(t, "vehicle mismatch", step.CancelReason)
}

func TestNewDecidedStep(t *testing.T) {
	ops := createTestPipeline()
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC)

	passed := NewDecidedStep(b, ops[1], true, "", "system", "Base weight", now)
	assert.False(t, passed.IsOpen())
	require.NotNil(t, passed.IsPassed)
	assert.True(t, *passed.IsPassed)
	assert.Equal(t, "system", passed.ResponsibleID)

	rejected := NewDecidedStep(b, ops[5], false, "previous operation was cancelled", "", "", now)
	require.NotNil(t, rejected.IsPassed)
	assert.False(t, *rejected.IsPassed)
	assert.Equal(t, "previous operation was cancelled", rejected.CancelReason)
}
