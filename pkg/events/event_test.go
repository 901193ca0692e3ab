package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	BaseEvent
	AmountCentavos int64 `json:"amount_centavos"`
}

func TestNewBaseEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("PHT", 8*3600))
	event := NewBaseEvent("lending.loan.applied", "loan-1", "Loan", at)

	assert.NotEmpty(t, event.EventID())
	assert.Equal(t, "lending.loan.applied", event.EventType())
	assert.Equal(t, "loan-1", event.AggregateID())
	assert.Equal(t, "Loan", event.AggregateType())
	assert.Equal(t, at.UTC(), event.OccurredAt())
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
	var _ DomainEvent = sampleEvent{}
}

func TestNewOutboxEntry(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	event := sampleEvent{
		BaseEvent:      NewBaseEvent("lending.payment.recorded", "loan-9", "Loan", at),
		AmountCentavos: 1500_00,
	}

	entry, err := NewOutboxEntry(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), entry.ID)
	assert.Equal(t, "loan-9", entry.AggregateID)
	assert.Equal(t, "Loan", entry.AggregateType)
	assert.Equal(t, "lending.payment.recorded", entry.EventType)
	assert.Equal(t, at, entry.CreatedAt)
	assert.Nil(t, entry.PublishedAt)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(entry.Payload, &parsed))
	assert.Equal(t, "loan-9", parsed["aggregate_id"])
	assert.Equal(t, float64(150000), parsed["amount_centavos"])
}
