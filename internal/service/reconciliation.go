package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/observability"
)

const reconciliationPageSize = 500

// ReconciliationService verifies the wallet invariant: every stored
// component must equal the sum of its ledger deltas.
type ReconciliationService struct {
	store QueryStore
}

func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run sweeps all wallets in pages and reports divergence. A divergence is
// logged and counted but never auto-corrected; the ledger is the record of
// what actually happened and fixing balances is an operator action.
func (s *ReconciliationService) Run(ctx context.Context) error {
	queries := s.store.Querier()

	var offset int32
	var checked, diverged int
	for {
		ids, err := queries.ListWalletUserIDs(ctx, reconciliationPageSize, offset)
		if err != nil {
			return fmt.Errorf("list wallets: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, userID := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}

			wallet, err := queries.GetWallet(ctx, userID)
			if err != nil {
				return fmt.Errorf("load wallet %s: %w", userID, err)
			}
			sums, err := queries.LedgerComponentSums(ctx, userID)
			if err != nil {
				return fmt.Errorf("ledger sums for %s: %w", userID, err)
			}

			checked++
			for _, component := range domain.ConsumptionOrder {
				stored := wallet.Component(component)
				expected := sums[component]
				if stored == expected {
					continue
				}
				diverged++
				observability.IncrementLedgerImbalance(string(component))
				zap.L().Error("CRITICAL: wallet diverged from ledger",
					zap.String("user_id", userID.String()),
					zap.String("component", string(component)),
					zap.Int64("stored_micros", stored),
					zap.Int64("ledger_micros", expected),
				)
			}
		}

		offset += int32(len(ids))
	}

	if diverged == 0 {
		zap.L().Info("wallets balanced", zap.Int("checked", checked))
	}
	return nil
}
