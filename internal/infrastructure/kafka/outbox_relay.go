// Package kafka moves ledger events to Kafka and membership events into the
// member directory.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/pkg/events"
	pkgkafka "github.com/jehnsen/coopledger/pkg/kafka"
)

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// OutboxRelay publishes committed outbox rows. Delivery is at least once;
// consumers deduplicate on the event_id header.
type OutboxRelay struct {
	repo      events.OutboxRepository
	publisher Publisher
	clock     port.Clock
	logger    *slog.Logger
	topic     string
	batchSize int
	interval  time.Duration
}

// NewOutboxRelay creates a relay that polls every interval.
func NewOutboxRelay(
	repo events.OutboxRepository,
	publisher Publisher,
	clock port.Clock,
	logger *slog.Logger,
	topic string,
	batchSize int,
	interval time.Duration,
) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		topic:     topic,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run relays until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay starting", "topic", r.topic, "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return nil
		case <-ticker.C:
			for {
				n, err := r.RelayOnce(ctx)
				if err != nil {
					r.logger.Error("outbox relay failed", "error", err)
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many rows it sent.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.repo.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	messages := make([]pkgkafka.Message, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_id":       e.ID,
				"event_type":     e.EventType,
				"aggregate_type": e.AggregateType,
			},
		})
		ids = append(ids, e.ID)
	}

	if err := r.publisher.Publish(ctx, r.topic, messages...); err != nil {
		return 0, fmt.Errorf("publish outbox batch: %w", err)
	}
	if err := r.repo.MarkPublished(ctx, ids, r.clock.Now()); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}

	r.logger.Debug("outbox batch relayed", "topic", r.topic, "count", len(entries))
	return len(entries), nil
}
