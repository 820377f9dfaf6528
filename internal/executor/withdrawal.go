package executor

import (
	"context"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/gateway"
	"github.com/veltapay/approval-engine/internal/models"
)

// WithdrawalResult is the success payload persisted in execution_result.
type WithdrawalResult struct {
	PayoutMicros int64  `json:"payout_micros"`
	VoidMicros   int64  `json:"void_micros"`
	GatewayRef   string `json:"gateway_ref"`
}

// WithdrawalExecutor disburses a payout through the external rail. The
// cashout law is evaluated against the wallet snapshot read under the
// decision lock; the rail must confirm the payout before any debit.
type WithdrawalExecutor struct {
	Gateway gateway.PayoutGateway
}

func (e *WithdrawalExecutor) Execute(ctx context.Context, order models.Order, wallet models.Wallet) Outcome {
	if !e.Gateway.Available(ctx) {
		return failure(domain.ErrCodePayoutUnavailable, "payout capability is unavailable")
	}

	plan := BuildWithdrawalPlan(wallet, order.MaxCashoutMicros)
	if plan.PayoutMicros <= 0 {
		return failure(domain.ErrCodeUpstreamFailure, "no redeemable balance to pay out")
	}

	ref, err := e.Gateway.SendPayout(ctx, order.UserID.String(), plan.PayoutMicros)
	if err != nil {
		if isContextErr(err) {
			return timeoutOutcome(err)
		}
		return failure(domain.ErrCodeUpstreamFailure, err.Error())
	}

	return Outcome{
		Success: true,
		Result: WithdrawalResult{
			PayoutMicros: plan.PayoutMicros,
			VoidMicros:   plan.VoidMicros,
			GatewayRef:   ref,
		},
		Mutations: plan.Mutations(),
	}
}
