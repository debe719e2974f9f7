package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderLifecycle(t *testing.T) {
	o := NewOrder("ord-1", "ZKZ-1001", "usr-1", "A. Client", "", 50)

	assert.Equal(t, OrderStatusAwaitingPayment, o.Status)
	assert.False(t, o.Bookable())

	o.MarkPaid()
	assert.Equal(t, OrderStatusPaidAwaitingBooking, o.Status)
	assert.True(t, o.Bookable())

	o.StartProgress()
	assert.Equal(t, OrderStatusInProgress, o.Status)
	assert.True(t, o.Bookable())

	// StartProgress only fires from the waiting state
	o.StartProgress()
	assert.Equal(t, OrderStatusInProgress, o.Status)

	o.MarkCancelled()
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.False(t, o.IsActive)
	assert.False(t, o.Bookable())
}

func TestOrderApplyReconciliation(t *testing.T) {
	o := NewOrder("ord-1", "ZKZ-1001", "usr-1", "A. Client", "", 50)
	o.MarkPaid()

	o.ApplyReconciliation(12500, 10000)
	assert.Equal(t, int64(12500), o.QuanBooked.Kg)
	assert.InDelta(t, 12.5, o.QuanBooked.Tons, 0.0001)
	assert.Equal(t, int64(10000), o.QuanReleased.Kg)
	assert.Equal(t, int64(27500), o.QuanLeft.Kg)
	assert.InDelta(t, 27.5, o.QuanLeft.Tons, 0.0001)

	// Identical input yields identical totals, pure aggregation
	o.ApplyReconciliation(12500, 10000)
	assert.Equal(t, int64(12500), o.QuanBooked.Kg)
	assert.Equal(t, int64(27500), o.QuanLeft.Kg)
}

func TestOrderReconciliationClampsLeft(t *testing.T) {
	o := NewOrder("ord-1", "ZKZ-1001", "usr-1", "A. Client", "", 10)
	o.ApplyReconciliation(8000, 4000)
	assert.Equal(t, int64(0), o.QuanLeft.Kg)
}

func TestOrderStatusIsValid(t *testing.T) {
	require.True(t, OrderStatusInProgress.IsValid())
	require.True(t, OrderStatusPaidAwaitingBooking.IsValid())
	require.False(t, OrderStatus("shipped").IsValid())
}
