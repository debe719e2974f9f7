package kafka

import (
	"context"
	"time"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/metrics"
	"github.com/plantgate-platform/dispatch-service/pkg/resilience"
)

// CircuitBreakerProducer wraps an instrumented producer with a circuit breaker.
// Publish failures trip the breaker so that a broker outage does not stall
// request handling with full write timeouts on every call.
type CircuitBreakerProducer struct {
	producer *InstrumentedProducer
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics
}

// NewCircuitBreakerProducer creates a producer protected by a circuit breaker
func NewCircuitBreakerProducer(producer *InstrumentedProducer, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	config := &resilience.CircuitBreakerConfig{
		Name:                  "kafka-producer",
		MaxRequests:           resilience.DefaultMaxRequests,
		Interval:              resilience.DefaultInterval,
		Timeout:               15 * time.Second,
		FailureThreshold:      resilience.DefaultFailureThreshold,
		FailureRatioThreshold: resilience.DefaultFailureRatioThreshold,
		MinRequestsToTrip:     resilience.DefaultMinRequestsToTrip,
	}

	breaker := resilience.NewCircuitBreaker(config, logger.Logger)

	return &CircuitBreakerProducer{
		producer: producer,
		breaker:  breaker,
		metrics:  m,
	}
}

// PublishEvent publishes an event through the circuit breaker
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	_, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	p.recordState()
	return err
}

// PublishBatch publishes a batch of events through the circuit breaker
func (p *CircuitBreakerProducer) PublishBatch(ctx context.Context, topic string, events []*cloudevents.CloudEvent) error {
	_, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishBatch(ctx, topic, events)
	})
	p.recordState()
	return err
}

func (p *CircuitBreakerProducer) recordState() {
	if p.metrics != nil {
		p.metrics.SetCircuitBreakerState(p.breaker.Name(), int(p.breaker.State()))
	}
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// NewProductionProducer assembles the full producer stack: base producer,
// instrumentation, circuit breaker.
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	base := NewProducer(config)
	instrumented := NewInstrumentedProducer(base, m, logger)
	return NewCircuitBreakerProducer(instrumented, m, logger)
}

// NewProductionConsumer assembles an instrumented consumer
func NewProductionConsumer(config *Config, m *metrics.Metrics, logger *logging.Logger) *InstrumentedConsumer {
	base := NewConsumer(config, logger.Logger)
	return NewInstrumentedConsumer(base, m, logger)
}
