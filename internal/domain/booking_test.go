package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBooking(t *testing.T) *Booking {
	t.Helper()
	ops := createTestPipeline()
	now := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)

	return NewBooking(NewBookingParams{
		BookingID:   "bk-1",
		OrderID:     "ord-1",
		OrderNumber: "ZKZ-1001",
		Owner:       PartySnapshot{ID: "usr-1", Name: "A. Client", IIN: "880101300123"},
		Driver:      &PartySnapshot{ID: "usr-2", Name: "D. Driver"},
		Vehicle:     VehicleSnapshot{ID: "veh-1", RegistrationNumber: "123ABC01"},
		Trailer:     &VehicleSnapshot{ID: "veh-2", RegistrationNumber: "55TR02"},
		WorkshopScheduleID: "ws-1",
		WorkshopSapID:      "WSHP-01",
		StartAt:            time.Date(2026, 9, 10, 9, 25, 0, 0, time.UTC),
		EndAt:              time.Date(2026, 9, 10, 9, 45, 0, 0, time.UTC),
		BookedTons:         12.5,
		FirstOperation:     ops[0],
	}, now)
}

func TestNewBooking(t *testing.T) {
	b := createTestBooking(t)

	assert.Equal(t, OpEntryCheckpoint, b.CurrentOperationValue)
	assert.Equal(t, "123ABC01 / 55TR02", b.CarNumber)
	assert.True(t, b.IsActive)
	assert.False(t, b.IsUsed)
	assert.False(t, b.IsCancelled)
	assert.False(t, b.IsExecuted)

	assert.Equal(t, 12.5, b.LoadingVolume.Tons)
	assert.Equal(t, int64(12500), b.LoadingVolume.Kg)

	events := b.DomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*BookingCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "bk-1", created.BookingID)
	assert.Equal(t, int64(12500), created.BookedKg)
}

func TestBookingClaim(t *testing.T) {
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC)

	require.NoError(t, b.Claim("emp-1", "E. Guard", now))
	assert.Equal(t, "emp-1", b.ResponsibleID)
	assert.True(t, b.IsUsed)

	err := b.Claim("emp-2", "Other", now)
	assert.ErrorIs(t, err, ErrBookingAlreadyClaimed)
}

func TestBookingReleaseClaim(t *testing.T) {
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC)

	require.NoError(t, b.Claim("emp-1", "E. Guard", now))
	b.ReleaseClaim(now)

	assert.False(t, b.IsClaimed())
	assert.True(t, b.IsUsed, "used flag survives releasing the claim")
	require.NoError(t, b.Claim("emp-2", "W. Weigher", now))
}

func TestBookingAdvanceTo(t *testing.T) {
	ops := createTestPipeline()
	b := createTestBooking(t)
	b.ClearDomainEvents()
	now := time.Date(2026, 9, 10, 9, 40, 0, 0, time.UTC)

	require.NoError(t, b.AdvanceTo(ops[1], "emp-1", now))
	assert.Equal(t, OpInitialWeighing, b.CurrentOperationValue)

	events := b.DomainEvents()
	require.Len(t, events, 1)
	passed, ok := events[0].(*CheckpointPassedEvent)
	require.True(t, ok)
	assert.Equal(t, OpEntryCheckpoint, passed.Operation)
	assert.Equal(t, OpInitialWeighing, passed.NextOperation)
}

func TestBookingExecute(t *testing.T) {
	ops := createTestPipeline()
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC)

	require.NoError(t, b.Execute(ops[4], now))
	assert.True(t, b.IsExecuted)
	assert.False(t, b.IsActive)
	assert.False(t, b.IsCancelled)
	require.NotNil(t, b.ExecutedAt)
	assert.Equal(t, now, *b.ExecutedAt)
	assert.Equal(t, now, b.EndAt)
}

func TestBookingCancelProcess(t *testing.T) {
	ops := createTestPipeline()
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC)

	require.NoError(t, b.CancelProcess(ops[5], "emp-1", "E. Guard", "process cancelled", now))
	assert.True(t, b.IsCancelled)
	assert.False(t, b.IsActive)
	assert.False(t, b.IsExecuted)
	assert.Equal(t, "process cancelled", b.CancelReason)
}

// Once a booking reaches either terminal, every further pipeline
// action must be rejected.
func TestBookingTerminality(t *testing.T) {
	ops := createTestPipeline()
	now := time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		finish func(b *Booking)
	}{
		{"After execute", func(b *Booking) { _ = b.Execute(ops[4], now) }},
		{"After cancel", func(b *Booking) { _ = b.CancelProcess(ops[5], "e", "E", "r", now) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := createTestBooking(t)
			tt.finish(b)

			assert.ErrorIs(t, b.Claim("emp-1", "E", now), ErrBookingFinished)
			assert.ErrorIs(t, b.AdvanceTo(ops[1], "emp-1", now), ErrBookingFinished)
			assert.ErrorIs(t, b.Execute(ops[4], now), ErrBookingFinished)
			assert.ErrorIs(t, b.CancelProcess(ops[5], "e", "E", "r", now), ErrBookingFinished)
		})
	}
}

func TestBookingWeights(t *testing.T) {
	b := createTestBooking(t)
	now := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)

	b.SetTara(14.2, now)
	require.NotNil(t, b.VehicleTara)
	assert.Equal(t, int64(14200), b.VehicleTara.Kg)
	assert.Nil(t, b.VehicleNetto, "netto needs both tara and brutto")

	b.SetBrutto(26.7, now)
	require.NotNil(t, b.VehicleNetto)
	assert.InDelta(t, 12.5, b.VehicleNetto.Tons, 0.0001)
	assert.Equal(t, int64(12500), b.VehicleNetto.Kg)
}

func TestWeightKilogramMirror(t *testing.T) {
	w := NewWeight(3.75)
	assert.Equal(t, 3.75, w.Tons)
	assert.Equal(t, int64(3750), w.Kg)
}
