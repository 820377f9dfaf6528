package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

const subjectColumns = `id, idempotency_key, user_id, order_type, game_code, conversation_id,
	payment_method, requested_amount_micros, final_amount_micros, max_cashout_micros,
	amount_adjusted, adjusted_by, adjusted_at, status, approved_by_type, approved_by_id,
	approved_at, rejection_reason, executed_at, execution_attempts, execution_result,
	execution_error, created_at, updated_at`

func tableFor(kind domain.SubjectKind) string {
	if kind == domain.SubjectWalletLoad {
		return "wallet_load_requests"
	}
	return "orders"
}

func scanSubject(row pgx.Row, kind domain.SubjectKind) (models.Order, error) {
	var o models.Order
	var approvedByType *string
	err := row.Scan(
		&o.ID, &o.IdempotencyKey, &o.UserID, &o.Type, &o.GameCode, &o.ConversationID,
		&o.PaymentMethod, &o.RequestedAmountMicros, &o.FinalAmountMicros, &o.MaxCashoutMicros,
		&o.AmountAdjusted, &o.AdjustedBy, &o.AdjustedAt, &o.Status, &approvedByType, &o.ApprovedByID,
		&o.ApprovedAt, &o.RejectionReason, &o.ExecutedAt, &o.ExecutionAttempts, &o.ExecutionResult,
		&o.ExecutionError, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return models.Order{}, err
	}
	o.Kind = kind
	if approvedByType != nil {
		k := domain.ActorKind(*approvedByType)
		o.ApprovedByType = &k
	}
	return o, nil
}

func (q *Queries) getSubject(ctx context.Context, kind domain.SubjectKind, id uuid.UUID, forUpdate bool) (models.Order, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", subjectColumns, tableFor(kind))
	if forUpdate {
		sql += " FOR UPDATE"
	}
	o, err := scanSubject(q.db.QueryRow(ctx, sql, id), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, models.ErrNotFound
		}
		return models.Order{}, fmt.Errorf("get %s: %w", kind, err)
	}
	return o, nil
}

func (q *Queries) GetSubject(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) (models.Order, error) {
	return q.getSubject(ctx, kind, id, false)
}

// GetSubjectForUpdate locks the single subject row for the duration of the
// surrounding transaction. This is the sole serialization point of a decision.
func (q *Queries) GetSubjectForUpdate(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) (models.Order, error) {
	return q.getSubject(ctx, kind, id, true)
}

func (q *Queries) GetSubjectByIdempotencyKey(ctx context.Context, kind domain.SubjectKind, key string) (models.Order, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE idempotency_key = $1", subjectColumns, tableFor(kind))
	o, err := scanSubject(q.db.QueryRow(ctx, sql, key), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, models.ErrNotFound
		}
		return models.Order{}, fmt.Errorf("get %s by idempotency key: %w", kind, err)
	}
	return o, nil
}

// InsertSubject inserts a new pending subject. The unique constraint on
// idempotency_key makes a creation race lose cleanly: ON CONFLICT DO NOTHING
// reports zero rows and the caller re-queries the winner.
func (q *Queries) InsertSubject(ctx context.Context, order models.Order) (bool, error) {
	sql := fmt.Sprintf(`
		INSERT INTO %s (id, idempotency_key, user_id, order_type, game_code, conversation_id,
			payment_method, requested_amount_micros, final_amount_micros, max_cashout_micros,
			status, execution_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, NOW(), NOW())
		ON CONFLICT (idempotency_key) DO NOTHING`, tableFor(order.Kind))
	tag, err := q.db.Exec(ctx, sql,
		order.ID, order.IdempotencyKey, order.UserID, order.Type, order.GameCode,
		order.ConversationID, order.PaymentMethod, order.RequestedAmountMicros,
		order.FinalAmountMicros, order.MaxCashoutMicros, domain.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", order.Kind, err)
	}
	return tag.RowsAffected() == 1, nil
}

// DecisionParams is the terminal write of a decision. Status must already be
// one of the three terminal values.
type DecisionParams struct {
	ID              uuid.UUID
	Status          domain.Status
	ActorKind       domain.ActorKind
	ActorID         string
	FinalAmount     int64
	RejectionReason *string
	ApprovedAt      time.Time
	ExecutedAt      *time.Time
	ExecutionResult []byte
	ExecutionError  *string
}

// MarkDecision writes the terminal status. The WHERE clause re-checks that
// the row is still in a pending spelling, so a lost race updates zero rows
// instead of overwriting a terminal state.
func (q *Queries) MarkDecision(ctx context.Context, kind domain.SubjectKind, p DecisionParams) (int64, error) {
	sql := fmt.Sprintf(`
		UPDATE %s SET
			status = $1,
			approved_by_type = $2,
			approved_by_id = $3,
			approved_at = $4,
			final_amount_micros = $5,
			rejection_reason = $6,
			executed_at = $7,
			execution_result = $8,
			execution_error = $9,
			updated_at = NOW()
		WHERE id = $10 AND status = ANY($11)`, tableFor(kind))
	tag, err := q.db.Exec(ctx, sql,
		p.Status, p.ActorKind, p.ActorID, p.ApprovedAt, p.FinalAmount,
		p.RejectionReason, p.ExecutedAt, p.ExecutionResult, p.ExecutionError,
		p.ID, domain.PendingStatusSpellings(),
	)
	if err != nil {
		return 0, fmt.Errorf("mark %s decision: %w", kind, err)
	}
	return tag.RowsAffected(), nil
}

// AdjustmentParams records the one-time amount edit.
type AdjustmentParams struct {
	ID         uuid.UUID
	NewAmount  int64
	AdjustedBy string
	AdjustedAt time.Time
}

// ApplyAmountAdjustment flips amount_adjusted false -> true and writes the
// new final amount. The guard on amount_adjusted = FALSE makes the edit
// write-once at the database level.
func (q *Queries) ApplyAmountAdjustment(ctx context.Context, kind domain.SubjectKind, p AdjustmentParams) (int64, error) {
	sql := fmt.Sprintf(`
		UPDATE %s SET
			final_amount_micros = $1,
			amount_adjusted = TRUE,
			adjusted_by = $2,
			adjusted_at = $3,
			updated_at = NOW()
		WHERE id = $4 AND amount_adjusted = FALSE AND status = ANY($5)`, tableFor(kind))
	tag, err := q.db.Exec(ctx, sql, p.NewAmount, p.AdjustedBy, p.AdjustedAt, p.ID, domain.PendingStatusSpellings())
	if err != nil {
		return 0, fmt.Errorf("apply %s amount adjustment: %w", kind, err)
	}
	return tag.RowsAffected(), nil
}

// IncrementExecutionAttempts bumps the attempt counter by exactly one.
func (q *Queries) IncrementExecutionAttempts(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) error {
	sql := fmt.Sprintf("UPDATE %s SET execution_attempts = execution_attempts + 1, updated_at = NOW() WHERE id = $1", tableFor(kind))
	if _, err := q.db.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("increment %s execution attempts: %w", kind, err)
	}
	return nil
}
