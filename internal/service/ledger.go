package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/veltapay/approval-engine/internal/executor"
	"github.com/veltapay/approval-engine/internal/models"
	"github.com/veltapay/approval-engine/internal/repository"
)

// LedgerWriter applies executor mutations to a wallet and records one
// ledger row per mutation. It is the only code path allowed to change
// balances: executors describe movements, the writer performs them.
type LedgerWriter struct{}

func NewLedgerWriter() *LedgerWriter {
	return &LedgerWriter{}
}

// Apply takes the wallet row already locked by the caller, applies each
// mutation in order and persists the ledger trail. Any mutation that would
// drive a component negative aborts with models.ErrInvariantViolation so
// the surrounding transaction rolls back whole.
func (w *LedgerWriter) Apply(ctx context.Context, q repository.Querier, subjectID uuid.UUID, wallet *models.Wallet, mutations []executor.Mutation) error {
	for _, m := range mutations {
		if m.DeltaMicros == 0 {
			continue
		}
		balance := wallet.Component(m.Component) + m.DeltaMicros
		if balance < 0 {
			return fmt.Errorf("%s would go negative (delta %d): %w",
				m.Component, m.DeltaMicros, models.ErrInvariantViolation)
		}

		rows, err := q.SetWalletComponent(ctx, wallet.UserID, m.Component, balance)
		if err != nil {
			return fmt.Errorf("update wallet %s: %w", m.Component, err)
		}
		if rows != 1 {
			return fmt.Errorf("wallet %s update touched %d rows: %w",
				m.Component, rows, models.ErrInvariantViolation)
		}

		if err := q.InsertLedgerEntry(ctx, models.LedgerEntry{
			ID:                     uuid.New(),
			UserID:                 wallet.UserID,
			OrderID:                subjectID,
			Component:              m.Component,
			DeltaMicros:            m.DeltaMicros,
			ResultingBalanceMicros: balance,
			Description:            m.Description,
		}); err != nil {
			return err
		}

		wallet.SetComponent(m.Component, balance)
	}
	return nil
}
