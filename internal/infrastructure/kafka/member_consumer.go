package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jehnsen/coopledger/internal/domain/port"
	pkgkafka "github.com/jehnsen/coopledger/pkg/kafka"
)

// MemberStore persists membership status.
type MemberStore interface {
	UpsertMember(ctx context.Context, customerID, status string, at time.Time) error
}

// MemberStatusChanged is published by the membership system whenever a
// member joins, is suspended or leaves.
type MemberStatusChanged struct {
	OccurredAt time.Time `json:"occurred_at"`
	CustomerID string    `json:"customer_id"`
	Status     string    `json:"status"`
}

// MemberEventHandler keeps the member directory current.
type MemberEventHandler struct {
	store  MemberStore
	clock  port.Clock
	logger *slog.Logger
}

// NewMemberEventHandler stamps events that arrive without occurred_at with
// the clock's time.
func NewMemberEventHandler(store MemberStore, clock port.Clock, logger *slog.Logger) *MemberEventHandler {
	return &MemberEventHandler{store: store, clock: clock, logger: logger}
}

// Handle applies one membership event. Malformed events are logged and
// dropped so they do not block the partition.
func (h *MemberEventHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var evt MemberStatusChanged
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger.Warn("dropping malformed member event", "key", string(msg.Key), "error", err)
		return nil
	}
	evt.Status = strings.ToLower(strings.TrimSpace(evt.Status))
	if evt.CustomerID == "" || evt.Status == "" {
		h.logger.Warn("dropping incomplete member event", "key", string(msg.Key))
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = h.clock.Now()
	}

	if err := h.store.UpsertMember(ctx, evt.CustomerID, evt.Status, evt.OccurredAt); err != nil {
		return fmt.Errorf("update member %s: %w", evt.CustomerID, err)
	}
	h.logger.Info("member status updated", "customer_id", evt.CustomerID, "status", evt.Status)
	return nil
}
