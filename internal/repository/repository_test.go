package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

func pendingSubject(kind domain.SubjectKind, key string) models.Order {
	return models.Order{
		ID:                    uuid.New(),
		Kind:                  kind,
		IdempotencyKey:        &key,
		UserID:                uuid.New(),
		Type:                  domain.OrderTypeDeposit,
		PaymentMethod:         "bank_transfer",
		RequestedAmountMicros: 50_000_000,
		FinalAmountMicros:     50_000_000,
		Status:                domain.StatusPending,
	}
}

func TestInsertSubjectIdempotencyConflict(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	q := store.Querier()
	ctx := context.Background()

	first := pendingSubject(domain.SubjectOrder, "order-dup-key")
	inserted, err := q.InsertSubject(ctx, first)
	require.NoError(t, err)
	require.True(t, inserted)

	second := pendingSubject(domain.SubjectOrder, "order-dup-key")
	inserted, err = q.InsertSubject(ctx, second)
	require.NoError(t, err)
	require.False(t, inserted)

	// The loser re-queries the winner by key.
	winner, err := q.GetSubjectByIdempotencyKey(ctx, domain.SubjectOrder, "order-dup-key")
	require.NoError(t, err)
	require.Equal(t, first.ID, winner.ID)
	require.Equal(t, domain.StatusPending, winner.Status)
}

func TestSubjectKindsUseSeparateTables(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	order := pendingSubject(domain.SubjectOrder, "shared-key")
	load := pendingSubject(domain.SubjectWalletLoad, "shared-key")

	inserted, err := q.InsertSubject(ctx, order)
	require.NoError(t, err)
	require.True(t, inserted)

	// Same key in the other table is not a conflict.
	inserted, err = q.InsertSubject(ctx, load)
	require.NoError(t, err)
	require.True(t, inserted)

	_, err = q.GetSubject(ctx, domain.SubjectWalletLoad, order.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	got, err := q.GetSubject(ctx, domain.SubjectWalletLoad, load.ID)
	require.NoError(t, err)
	require.Equal(t, domain.SubjectWalletLoad, got.Kind)
}

func TestMarkDecisionGuard(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	order := pendingSubject(domain.SubjectOrder, "decision-guard")
	_, err := q.InsertSubject(ctx, order)
	require.NoError(t, err)

	params := DecisionParams{
		ID:          order.ID,
		Status:      domain.StatusRejected,
		ActorKind:   domain.ActorAdmin,
		ActorID:     "admin-1",
		FinalAmount: order.FinalAmountMicros,
	}
	rows, err := q.MarkDecision(ctx, domain.SubjectOrder, params)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	// Terminal rows are never overwritten.
	params.Status = domain.StatusApprovedExecuted
	rows, err = q.MarkDecision(ctx, domain.SubjectOrder, params)
	require.NoError(t, err)
	require.Equal(t, int64(0), rows)

	got, err := q.GetSubject(ctx, domain.SubjectOrder, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, got.Status)
}

func TestMarkDecisionLegacyPendingSpelling(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	order := pendingSubject(domain.SubjectOrder, "legacy-pending")
	_, err := q.InsertSubject(ctx, order)
	require.NoError(t, err)

	_, err = db.Exec(ctx, "UPDATE orders SET status = 'awaiting_payment_proof' WHERE id = $1", order.ID)
	require.NoError(t, err)

	rows, err := q.MarkDecision(ctx, domain.SubjectOrder, DecisionParams{
		ID:          order.ID,
		Status:      domain.StatusRejected,
		ActorKind:   domain.ActorAdmin,
		ActorID:     "admin-1",
		FinalAmount: order.FinalAmountMicros,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
}

func TestApplyAmountAdjustmentWriteOnce(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	order := pendingSubject(domain.SubjectOrder, "adjust-once")
	_, err := q.InsertSubject(ctx, order)
	require.NoError(t, err)

	rows, err := q.ApplyAmountAdjustment(ctx, domain.SubjectOrder, AdjustmentParams{
		ID:         order.ID,
		NewAmount:  30_000_000,
		AdjustedBy: "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	rows, err = q.ApplyAmountAdjustment(ctx, domain.SubjectOrder, AdjustmentParams{
		ID:         order.ID,
		NewAmount:  10_000_000,
		AdjustedBy: "admin-2",
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), rows)

	got, err := q.GetSubject(ctx, domain.SubjectOrder, order.ID)
	require.NoError(t, err)
	require.True(t, got.AmountAdjusted)
	require.Equal(t, int64(30_000_000), got.FinalAmountMicros)
	require.Equal(t, int64(50_000_000), got.RequestedAmountMicros)
}

func TestIncrementExecutionAttempts(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	order := pendingSubject(domain.SubjectOrder, "attempts")
	_, err := q.InsertSubject(ctx, order)
	require.NoError(t, err)

	require.NoError(t, q.IncrementExecutionAttempts(ctx, domain.SubjectOrder, order.ID))
	require.NoError(t, q.IncrementExecutionAttempts(ctx, domain.SubjectOrder, order.ID))

	got, err := q.GetSubject(ctx, domain.SubjectOrder, order.ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), got.ExecutionAttempts)
}

func TestWalletLifecycle(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, q.EnsureWallet(ctx, userID))
	require.NoError(t, q.EnsureWallet(ctx, userID))

	w, err := q.GetWallet(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(0), w.Total())

	rows, err := q.SetWalletComponent(ctx, userID, domain.ComponentCash, 75_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	// Negative balances are refused at the database level.
	rows, err = q.SetWalletComponent(ctx, userID, domain.ComponentCash, -1)
	require.NoError(t, err)
	require.Equal(t, int64(0), rows)

	w, err = q.GetWallet(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(75_000_000), w.CashMicros)

	ids, err := q.ListWalletUserIDs(ctx, 10, 0)
	require.NoError(t, err)
	require.Contains(t, ids, userID)
}

func TestLedgerSums(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	userID := uuid.New()
	orderID := uuid.New()
	require.NoError(t, q.EnsureWallet(ctx, userID))

	entries := []models.LedgerEntry{
		{ID: uuid.New(), UserID: userID, OrderID: orderID, Component: domain.ComponentCash, DeltaMicros: 100_000_000, ResultingBalanceMicros: 100_000_000, Description: "wallet credit via bank_transfer"},
		{ID: uuid.New(), UserID: userID, OrderID: orderID, Component: domain.ComponentCash, DeltaMicros: -40_000_000, ResultingBalanceMicros: 60_000_000, Description: "withdrawal payout"},
		{ID: uuid.New(), UserID: userID, OrderID: orderID, Component: domain.ComponentBonus, DeltaMicros: 5_000_000, ResultingBalanceMicros: 5_000_000, Description: "signup bonus"},
	}
	for _, e := range entries {
		require.NoError(t, q.InsertLedgerEntry(ctx, e))
	}

	net, err := q.LedgerNetForOrder(ctx, orderID)
	require.NoError(t, err)
	require.Equal(t, int64(65_000_000), net)

	sums, err := q.LedgerComponentSums(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(60_000_000), sums[domain.ComponentCash])
	require.Equal(t, int64(5_000_000), sums[domain.ComponentBonus])
	require.Equal(t, int64(0), sums[domain.ComponentPlayCredits])
}

func TestRunInTxRollback(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	order := pendingSubject(domain.SubjectOrder, "rollback-key")
	sentinel := errors.New("abort")

	err := store.RunInTx(ctx, func(q Querier) error {
		inserted, err := q.InsertSubject(ctx, order)
		require.NoError(t, err)
		require.True(t, inserted)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.Querier().GetSubject(ctx, domain.SubjectOrder, order.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestReviewerGrants(t *testing.T) {
	db := setupTestDB(t)
	q := NewStore(db).Querier()
	ctx := context.Background()

	_, err := q.GetReviewerGrant(ctx, "rev-missing")
	require.ErrorIs(t, err, models.ErrNotFound)

	grant := models.ReviewerGrant{
		ReviewerID:            "rev-1",
		IsActive:              true,
		CanApproveOrders:      true,
		CanApproveWalletLoads: false,
		CanApproveWithdrawals: false,
	}
	require.NoError(t, q.UpsertReviewerGrant(ctx, grant))

	got, err := q.GetReviewerGrant(ctx, "rev-1")
	require.NoError(t, err)
	require.True(t, got.Allows(domain.CategoryOrder))
	require.False(t, got.Allows(domain.CategoryWithdrawal))

	grant.IsActive = false
	require.NoError(t, q.UpsertReviewerGrant(ctx, grant))

	got, err = q.GetReviewerGrant(ctx, "rev-1")
	require.NoError(t, err)
	require.False(t, got.Allows(domain.CategoryOrder))
}
