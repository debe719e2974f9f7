package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
)

// DefaultMaxRetries bounds delivery attempts for a single event.
const DefaultMaxRetries = 10

// Event is a CloudEvent staged for reliable delivery. It is written in
// the same transaction as the aggregate change it describes and drained
// to Kafka by the Publisher.
type Event struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// NewEvent stages a CloudEvent for the given aggregate and topic
func NewEvent(aggregateID, aggregateType, topic string, ce *cloudevents.CloudEvent) (*Event, error) {
	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     ce.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// IsPublished reports whether the event has been delivered
func (e *Event) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry reports whether another delivery attempt is allowed
func (e *Event) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}

// ToCloudEvent decodes the staged payload back into a CloudEvent
func (e *Event) ToCloudEvent() (*cloudevents.CloudEvent, error) {
	var ce cloudevents.CloudEvent
	if err := json.Unmarshal(e.Payload, &ce); err != nil {
		return nil, err
	}
	return &ce, nil
}
