package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/veltapay/approval-engine/internal/models"
)

// GetReviewerGrant loads the permission row for one automated reviewer.
// Returns models.ErrNotFound when the reviewer has no grant at all.
func (q *Queries) GetReviewerGrant(ctx context.Context, reviewerID string) (models.ReviewerGrant, error) {
	var g models.ReviewerGrant
	err := q.db.QueryRow(ctx, `
		SELECT reviewer_id, is_active, can_approve_orders, can_approve_wallet_loads,
			can_approve_withdrawals, created_at
		FROM reviewer_grants WHERE reviewer_id = $1`, reviewerID,
	).Scan(&g.ReviewerID, &g.IsActive, &g.CanApproveOrders, &g.CanApproveWalletLoads,
		&g.CanApproveWithdrawals, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReviewerGrant{}, models.ErrNotFound
		}
		return models.ReviewerGrant{}, fmt.Errorf("get reviewer grant: %w", err)
	}
	return g, nil
}

// UpsertReviewerGrant writes or replaces a reviewer's permission row.
func (q *Queries) UpsertReviewerGrant(ctx context.Context, grant models.ReviewerGrant) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO reviewer_grants (reviewer_id, is_active, can_approve_orders,
			can_approve_wallet_loads, can_approve_withdrawals, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (reviewer_id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			can_approve_orders = EXCLUDED.can_approve_orders,
			can_approve_wallet_loads = EXCLUDED.can_approve_wallet_loads,
			can_approve_withdrawals = EXCLUDED.can_approve_withdrawals`,
		grant.ReviewerID, grant.IsActive, grant.CanApproveOrders,
		grant.CanApproveWalletLoads, grant.CanApproveWithdrawals,
	)
	if err != nil {
		return fmt.Errorf("upsert reviewer grant: %w", err)
	}
	return nil
}
