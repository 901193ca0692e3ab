package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/kafka"

	pkgkafka "github.com/jehnsen/coopledger/pkg/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.6.1"

// StartKafka runs a single-node broker for the lifetime of t and returns a
// client config pointing at it. Every call gets its own consumer group so
// parallel tests never share offsets.
func StartKafka(ctx context.Context, t *testing.T) pkgkafka.Config {
	t.Helper()

	container, err := kafka.Run(ctx, kafkaImage, kafka.WithClusterID("coopledger-test"))
	if err != nil {
		t.Fatalf("start kafka container: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(stopCtx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("kafka brokers: %v", err)
	}

	return pkgkafka.Config{
		Brokers:       brokers,
		ConsumerGroup: "lendingd-test-" + uuid.NewString(),
	}
}
