package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. Events reach subscribers
// only after the unit of work that raised them has committed.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() int64
	AggregateType() string
}

// BaseDomainEvent is embedded by concrete events and satisfies DomainEvent.
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	At        time.Time `json:"occurred_at"`
	Aggregate string    `json:"aggregate_type"`
	Key       int64     `json:"aggregate_id"`
}

func (e BaseDomainEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseDomainEvent) EventType() string     { return e.Type }
func (e BaseDomainEvent) OccurredAt() time.Time { return e.At }
func (e BaseDomainEvent) AggregateID() int64    { return e.Key }
func (e BaseDomainEvent) AggregateType() string { return e.Aggregate }

// NewBaseDomainEvent stamps a fresh event id and the current UTC time.
func NewBaseDomainEvent(eventType, aggregate string, key int64) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		At:        time.Now().UTC(),
		Aggregate: aggregate,
		Key:       key,
	}
}
