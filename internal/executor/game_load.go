package executor

import (
	"context"
	"fmt"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/gateway"
	"github.com/veltapay/approval-engine/internal/models"
)

// GameLoadResult is the success payload persisted in execution_result.
type GameLoadResult struct {
	GameCode     string                  `json:"game_code"`
	AmountMicros int64                   `json:"amount_micros"`
	Credentials  gateway.GameCredentials `json:"credentials"`
}

// GameLoadExecutor grants play credits on the external game provider.
// Availability and grant success are confirmed before any wallet debit:
// the debit mutations are only ever applied by the approval service after
// this executor reports success.
type GameLoadExecutor struct {
	Gateway gateway.GameCreditGateway
}

// loadableComponents can fund a game load; bonus funds cannot.
var loadableComponents = []domain.BalanceComponent{domain.ComponentCash, domain.ComponentPlayCredits}

func (e *GameLoadExecutor) Execute(ctx context.Context, order models.Order, wallet models.Wallet) Outcome {
	if !e.Gateway.Available(ctx) {
		return failure(domain.ErrCodeGameLoadUnavailable, "game credit capability is unavailable")
	}

	amount := order.FinalAmountMicros
	debits, ok := consume(wallet, amount, loadableComponents, fmt.Sprintf("game load %s", order.GameCode))
	if !ok {
		return failure(domain.ErrCodeUpstreamFailure,
			fmt.Sprintf("insufficient loadable balance: need %d, have %d", amount, wallet.CashMicros+wallet.PlayCreditMicros))
	}

	creds, err := e.Gateway.GrantCredits(ctx, order.GameCode, order.UserID.String(), amount)
	if err != nil {
		if isContextErr(err) {
			return timeoutOutcome(err)
		}
		return failure(domain.ErrCodeUpstreamFailure, err.Error())
	}

	return Outcome{
		Success: true,
		Result: GameLoadResult{
			GameCode:     order.GameCode,
			AmountMicros: amount,
			Credentials:  creds,
		},
		Mutations: debits,
	}
}
