package executor

import (
	"context"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

// CreditResult is the success payload for wallet credits.
type CreditResult struct {
	CreditedMicros int64 `json:"credited_micros"`
}

// CreditExecutor handles deposits and wallet top-ups. There is no external
// side effect: the execution is the ledger credit itself, so this executor
// always succeeds and hands the credit mutation to the approval service.
// It still runs through the same transaction discipline as the others so
// status handling stays uniform.
type CreditExecutor struct{}

func (CreditExecutor) Execute(ctx context.Context, order models.Order, wallet models.Wallet) Outcome {
	amount := order.FinalAmountMicros
	return Outcome{
		Success: true,
		Result:  CreditResult{CreditedMicros: amount},
		Mutations: []Mutation{{
			Component:   domain.ComponentCash,
			DeltaMicros: amount,
			Description: "wallet credit via " + order.PaymentMethod,
		}},
	}
}
