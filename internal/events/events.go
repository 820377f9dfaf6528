package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/domain"
)

// Event types emitted after a decision commits.
const (
	TypeOrderApproved      = "order_approved"
	TypeOrderRejected      = "order_rejected"
	TypeExecutionFailed    = "execution_failed"
	TypeAmountAdjusted     = "amount_adjusted"
	TypeWalletLoadApproved = "wallet_load_approved"
	TypeWalletLoadRejected = "wallet_load_rejected"
)

// DecisionEvent describes one decision outcome. Delivery is at-least-once
// and unordered; consumers dedupe on subject id + status. The payload never
// carries proof bytes - only plain identifiers and amounts are accepted.
type DecisionEvent struct {
	EventType       string             `json:"event_type"`
	SubjectKind     domain.SubjectKind `json:"subject_kind"`
	SubjectID       uuid.UUID          `json:"subject_id"`
	UserID          uuid.UUID          `json:"user_id"`
	OrderType       domain.OrderType   `json:"order_type"`
	Status          domain.Status      `json:"status"`
	RequestedAmount int64              `json:"requested_amount_micros"`
	FinalAmount     int64              `json:"final_amount_micros"`
	PayoutMicros    int64              `json:"payout_micros,omitempty"`
	VoidMicros      int64              `json:"void_micros,omitempty"`
	ErrorCode       string             `json:"error_code,omitempty"`
	ActorKind       domain.ActorKind   `json:"actor_kind"`
	ActorID         string             `json:"actor_id"`
	TsUnixMs        int64              `json:"ts_unix_ms"`
}

// Emitter is the fire-and-forget event sink. Implementations must never
// fail a decision: emission happens strictly after commit and errors are
// logged, not returned.
type Emitter interface {
	Emit(ctx context.Context, event DecisionEvent)
}

// KafkaEmitter publishes decision events on one topic, keyed by subject id
// plus status so downstream consumers can collapse redeliveries.
type KafkaEmitter struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaEmitter(writer *kafka.Writer, timeout time.Duration) *KafkaEmitter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaEmitter{writer: writer, timeout: timeout}
}

// NewWriter builds the standard writer for the decision events topic.
// brokers is a comma-separated address list.
func NewWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (e *KafkaEmitter) Emit(ctx context.Context, event DecisionEvent) {
	event.TsUnixMs = time.Now().UnixMilli()
	payload, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("marshal decision event", zap.Error(err))
		return
	}

	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	key := fmt.Sprintf("%s:%s", event.SubjectID, event.Status)
	if err := e.writer.WriteMessages(emitCtx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}); err != nil {
		zap.L().Warn("decision event emission failed",
			zap.Error(err),
			zap.String("subject_id", event.SubjectID.String()),
			zap.String("status", string(event.Status)),
		)
	}
}

// NopEmitter drops events; used when no broker is configured and in tests.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, DecisionEvent) {}
