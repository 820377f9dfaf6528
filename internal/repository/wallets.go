package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

const walletColumns = "user_id, cash_micros, play_credit_micros, bonus_micros, updated_at"

// EnsureWallet creates a zero-balance wallet row if the user has none yet.
func (q *Queries) EnsureWallet(ctx context.Context, userID uuid.UUID) error {
	sql := `
		INSERT INTO wallets (user_id, cash_micros, play_credit_micros, bonus_micros, updated_at)
		VALUES ($1, 0, 0, 0, NOW())
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := q.db.Exec(ctx, sql, userID); err != nil {
		return fmt.Errorf("ensure wallet: %w", err)
	}
	return nil
}

func (q *Queries) getWallet(ctx context.Context, userID uuid.UUID, forUpdate bool) (models.Wallet, error) {
	sql := fmt.Sprintf("SELECT %s FROM wallets WHERE user_id = $1", walletColumns)
	if forUpdate {
		sql += " FOR UPDATE"
	}
	var w models.Wallet
	err := q.db.QueryRow(ctx, sql, userID).Scan(
		&w.UserID, &w.CashMicros, &w.PlayCreditMicros, &w.BonusMicros, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Wallet{}, models.ErrNotFound
		}
		return models.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (q *Queries) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	return q.getWallet(ctx, userID, false)
}

// GetWalletForUpdate locks the owner's balance row inside the decision
// transaction, after the subject row lock.
func (q *Queries) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	return q.getWallet(ctx, userID, true)
}

// SetWalletComponent writes one component to an absolute value. The guard
// keeps balances non-negative even if the caller's math went wrong.
func (q *Queries) SetWalletComponent(ctx context.Context, userID uuid.UUID, component domain.BalanceComponent, balanceMicros int64) (int64, error) {
	var column string
	switch component {
	case domain.ComponentCash:
		column = "cash_micros"
	case domain.ComponentPlayCredits:
		column = "play_credit_micros"
	case domain.ComponentBonus:
		column = "bonus_micros"
	default:
		return 0, fmt.Errorf("unknown balance component: %s", component)
	}
	sql := fmt.Sprintf("UPDATE wallets SET %s = $1, updated_at = NOW() WHERE user_id = $2 AND $1 >= 0", column)
	tag, err := q.db.Exec(ctx, sql, balanceMicros, userID)
	if err != nil {
		return 0, fmt.Errorf("set wallet %s: %w", component, err)
	}
	return tag.RowsAffected(), nil
}

// ListWalletUserIDs pages wallet owners for the reconciliation sweep.
func (q *Queries) ListWalletUserIDs(ctx context.Context, limit, offset int32) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, "SELECT user_id FROM wallets ORDER BY user_id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list wallet users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wallet user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
