package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plantgate-platform/dispatch-service/pkg/metrics"
)

// MetricsMiddleware creates middleware that records HTTP metrics
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid recursion
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath() // Use route pattern, not actual path

		if path == "" {
			path = c.Request.URL.Path
		}

		m.RecordHTTPRequest(method, path, status, duration)
	}
}

// MetricsEndpoint returns a handler for the /metrics endpoint
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// BusinessMetrics provides helpers for recording business-specific metrics
type BusinessMetrics struct {
	metrics *metrics.Metrics
}

// NewBusinessMetrics creates a new BusinessMetrics helper
func NewBusinessMetrics(m *metrics.Metrics) *BusinessMetrics {
	return &BusinessMetrics{metrics: m}
}

// RecordBookingCreated records a booking creation event
func (b *BusinessMetrics) RecordBookingCreated(workshop string) {
	b.metrics.RecordBookingCreated(workshop)
}

// RecordBookingFinished records a booking reaching a terminal state
func (b *BusinessMetrics) RecordBookingFinished(outcome string) {
	b.metrics.RecordBookingFinished(outcome)
}

// RecordCheckpointDecision records a checkpoint pass or cancel decision
func (b *BusinessMetrics) RecordCheckpointDecision(operation, decision string) {
	b.metrics.RecordCheckpointDecision(operation, decision)
}

// RecordReconciliation records an order quantity reconciliation run
func (b *BusinessMetrics) RecordReconciliation(status string) {
	b.metrics.RecordReconciliation(status)
}

// RecordIntervalQuery records a free interval query
func (b *BusinessMetrics) RecordIntervalQuery(workshop string) {
	b.metrics.RecordIntervalQuery(workshop)
}

// RecordTonnageDispatched adds dispatched weight in kilograms
func (b *BusinessMetrics) RecordTonnageDispatched(workshop string, kg int64) {
	b.metrics.RecordTonnageDispatched(workshop, kg)
}

// RecordCircuitBreakerState records circuit breaker state
func (b *BusinessMetrics) RecordCircuitBreakerState(name string, state int) {
	b.metrics.SetCircuitBreakerState(name, state)
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (b *BusinessMetrics) RecordCircuitBreakerTrip(name string) {
	b.metrics.RecordCircuitBreakerTrip(name)
}
