package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

// InsertLedgerEntry appends one immutable balance delta. The table has no
// UPDATE or DELETE path anywhere in the codebase.
func (q *Queries) InsertLedgerEntry(ctx context.Context, entry models.LedgerEntry) error {
	sql := `
		INSERT INTO wallet_ledger (id, user_id, order_id, component, delta_micros,
			resulting_balance_micros, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`
	_, err := q.db.Exec(ctx, sql,
		entry.ID, entry.UserID, entry.OrderID, entry.Component,
		entry.DeltaMicros, entry.ResultingBalanceMicros, entry.Description,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// LedgerNetForOrder sums every delta attributed to one order.
func (q *Queries) LedgerNetForOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var net int64
	err := q.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(delta_micros), 0) FROM wallet_ledger WHERE order_id = $1", orderID,
	).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("ledger net for order: %w", err)
	}
	return net, nil
}

// LedgerComponentSums returns per-component delta sums for one user. The
// reconciliation sweep compares these against the stored wallet row.
func (q *Queries) LedgerComponentSums(ctx context.Context, userID uuid.UUID) (map[domain.BalanceComponent]int64, error) {
	rows, err := q.db.Query(ctx, `
		SELECT component, COALESCE(SUM(delta_micros), 0)
		FROM wallet_ledger
		WHERE user_id = $1
		GROUP BY component`, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger component sums: %w", err)
	}
	defer rows.Close()

	sums := make(map[domain.BalanceComponent]int64, 3)
	for rows.Next() {
		var component domain.BalanceComponent
		var sum int64
		if err := rows.Scan(&component, &sum); err != nil {
			return nil, fmt.Errorf("scan ledger sum: %w", err)
		}
		sums[component] = sum
	}
	return sums, rows.Err()
}
