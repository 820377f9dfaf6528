package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

func TestReconciliationRunBalanced(t *testing.T) {
	q := newFakeQuerier()
	userID := uuid.New()
	q.setWallet(userID, 40_000_000, 0, 0)
	q.ledger = append(q.ledger, models.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		OrderID:     uuid.New(),
		Component:   domain.ComponentCash,
		DeltaMicros: 40_000_000,
	})

	svc := NewReconciliationService(&fakeStore{q: q})
	require.NoError(t, svc.Run(context.Background()))
}

func TestReconciliationRunReportsDivergence(t *testing.T) {
	q := newFakeQuerier()
	userID := uuid.New()
	// Stored cash disagrees with the ledger sum; the sweep must complete
	// without error and without touching the wallet.
	q.setWallet(userID, 99_000_000, 0, 0)
	q.ledger = append(q.ledger, models.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		OrderID:     uuid.New(),
		Component:   domain.ComponentCash,
		DeltaMicros: 40_000_000,
	})

	svc := NewReconciliationService(&fakeStore{q: q})
	require.NoError(t, svc.Run(context.Background()))
	require.Equal(t, int64(99_000_000), q.wallets[userID].CashMicros,
		"reconciliation never auto-corrects balances")
}
