//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/infrastructure/clock"
	"github.com/jehnsen/coopledger/internal/infrastructure/kafka"
	"github.com/jehnsen/coopledger/internal/infrastructure/memory"
	pkgkafka "github.com/jehnsen/coopledger/pkg/kafka"
	"github.com/jehnsen/coopledger/pkg/testutil"
)

func TestOutboxRelay_PublishesToKafka(t *testing.T) {
	cfg := testutil.StartKafka(context.Background(), t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	producer, err := pkgkafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()

	repo := &mockOutboxRepo{entries: outboxEntries(2)}
	relay := kafka.NewOutboxRelay(repo, producer, clock.NewFixed(now), testLogger(), "coop.lending.loans", 10, time.Second)

	n, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	received := make(chan pkgkafka.Message, 2)
	consumer, err := pkgkafka.NewConsumer(cfg, "coop.lending.loans", func(_ context.Context, msg pkgkafka.Message) error {
		received <- msg
		return nil
	}, testLogger())
	require.NoError(t, err)
	defer consumer.Close()
	go func() { _ = consumer.Start(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case msg := <-received:
			assert.Equal(t, "loan-1", string(msg.Key))
			assert.Equal(t, "loan.payment_recorded", msg.Headers["event_type"])
		case <-ctx.Done():
			t.Fatal("timed out waiting for relayed events")
		}
	}
	assert.ElementsMatch(t, []string{"a", "b"}, repo.published)
}

func TestMemberEventHandler_ConsumesFromKafka(t *testing.T) {
	cfg := testutil.StartKafka(context.Background(), t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	producer, err := pkgkafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()

	payload, err := json.Marshal(kafka.MemberStatusChanged{
		CustomerID: "member-001",
		Status:     model.MemberStatusActive,
		OccurredAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, producer.Publish(ctx, "coop.membership.members", pkgkafka.Message{Key: []byte("member-001"), Value: payload}))

	directory := memory.NewMemberDirectory()
	consumer, err := pkgkafka.NewConsumer(cfg, "coop.membership.members",
		kafka.NewMemberEventHandler(directory, clock.NewFixed(now), testLogger()).Handle, testLogger())
	require.NoError(t, err)
	defer consumer.Close()
	go func() { _ = consumer.Start(ctx) }()

	require.Eventually(t, func() bool {
		active, err := directory.IsActiveMember(ctx, "member-001")
		return err == nil && active
	}, 45*time.Second, 250*time.Millisecond)
}
