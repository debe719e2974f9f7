package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/metrics"
)

// Producer is the delivery target for drained events. Both the
// instrumented and the circuit-breaker Kafka producers satisfy it.
type Producer interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error
}

// PublisherConfig holds configuration for the outbox publisher
type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultPublisherConfig returns default configuration
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		PollInterval: 1 * time.Second,
		BatchSize:    100,
	}
}

// Publisher drains staged events to Kafka on a polling loop
type Publisher struct {
	repo      Repository
	producer  Producer
	logger    *logging.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewPublisher creates a new outbox publisher
func NewPublisher(repo Repository, producer Producer, logger *logging.Logger, m *metrics.Metrics, config *PublisherConfig) *Publisher {
	if config == nil {
		config = DefaultPublisherConfig()
	}

	return &Publisher{
		repo:      repo,
		producer:  producer,
		logger:    logger,
		metrics:   m,
		interval:  config.PollInterval,
		batchSize: config.BatchSize,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start launches the polling loop
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("outbox publisher already running")
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Info("Starting outbox publisher", "interval", p.interval, "batchSize", p.batchSize)

	go p.run(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("outbox publisher not running")
	}
	p.mu.Unlock()

	close(p.stopCh)
	<-p.stoppedCh

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.logger.Info("Outbox publisher stopped")
	return nil
}

// IsRunning reports whether the polling loop is active
func (p *Publisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.stoppedCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.drain(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			p.logger.Info("Outbox publisher context cancelled")
			return
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	events, err := p.repo.FindUnpublished(ctx, p.batchSize)
	if err != nil {
		p.logger.WithError(err).Error("Failed to load unpublished outbox events")
		return
	}

	if p.metrics != nil {
		p.metrics.SetOutboxPending(len(events))
	}

	for _, event := range events {
		if err := p.deliver(ctx, event); err != nil {
			p.logger.WithError(err).Error("Outbox delivery failed",
				"eventId", event.ID,
				"eventType", event.EventType,
				"aggregateId", event.AggregateID,
				"retryCount", event.RetryCount,
			)
			if p.metrics != nil {
				p.metrics.RecordOutboxPublished(false)
			}
			if rerr := p.repo.IncrementRetry(ctx, event.ID, err.Error()); rerr != nil {
				p.logger.WithError(rerr).Error("Failed to record outbox retry", "eventId", event.ID)
			}
			continue
		}

		if p.metrics != nil {
			p.metrics.RecordOutboxPublished(true)
		}
		if merr := p.repo.MarkPublished(ctx, event.ID); merr != nil {
			p.logger.WithError(merr).Error("Failed to mark outbox event published", "eventId", event.ID)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event *Event) error {
	ce, err := event.ToCloudEvent()
	if err != nil {
		return fmt.Errorf("decode staged event: %w", err)
	}

	if err := p.producer.PublishEvent(ctx, event.Topic, ce); err != nil {
		return fmt.Errorf("publish to %s: %w", event.Topic, err)
	}

	p.logger.Debug("Delivered outbox event",
		"eventId", event.ID,
		"eventType", event.EventType,
		"topic", event.Topic,
	)
	return nil
}
