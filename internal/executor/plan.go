package executor

import (
	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

// PlanLeg is the drawdown of a single component: the part that funds the
// payout and the part forfeited as void.
type PlanLeg struct {
	Component    domain.BalanceComponent
	PayoutMicros int64
	VoidMicros   int64
}

// WithdrawalPlan is the cashout-law evaluation of one wallet snapshot:
// payout = min(total_redeemable, max_cashout), void = total - max_cashout.
// The payout is funded in the fixed consumption order (cash, play credits,
// bonus); whatever exceeds the cap is voided - not paid, not left in the
// wallet.
type WithdrawalPlan struct {
	PayoutMicros int64
	VoidMicros   int64
	Legs         []PlanLeg
}

// BuildWithdrawalPlan evaluates the cashout law. A non-positive maxCashout
// means uncapped.
func BuildWithdrawalPlan(wallet models.Wallet, maxCashoutMicros int64) WithdrawalPlan {
	total := wallet.Total()
	payout := total
	if maxCashoutMicros > 0 && payout > maxCashoutMicros {
		payout = maxCashoutMicros
	}

	plan := WithdrawalPlan{
		PayoutMicros: payout,
		VoidMicros:   total - payout,
	}

	remaining := payout
	for _, component := range domain.ConsumptionOrder {
		balance := wallet.Component(component)
		if balance == 0 {
			continue
		}
		fromPayout := balance
		if fromPayout > remaining {
			fromPayout = remaining
		}
		remaining -= fromPayout
		plan.Legs = append(plan.Legs, PlanLeg{
			Component:    component,
			PayoutMicros: fromPayout,
			VoidMicros:   balance - fromPayout,
		})
	}
	return plan
}

// Mutations converts the plan into ledger deltas. Payout and void portions
// are recorded as separate entries so the audit trail distinguishes money
// paid out from money forfeited.
func (p WithdrawalPlan) Mutations() []Mutation {
	var out []Mutation
	for _, leg := range p.Legs {
		if leg.PayoutMicros > 0 {
			out = append(out, Mutation{
				Component:   leg.Component,
				DeltaMicros: -leg.PayoutMicros,
				Description: "withdrawal payout",
			})
		}
		if leg.VoidMicros > 0 {
			out = append(out, Mutation{
				Component:   leg.Component,
				DeltaMicros: -leg.VoidMicros,
				Description: "withdrawal void (over max cashout)",
			})
		}
	}
	return out
}

// consume computes the drawdown of amount across components in order.
// Reports false when the components cannot cover the amount.
func consume(wallet models.Wallet, amountMicros int64, components []domain.BalanceComponent, description string) ([]Mutation, bool) {
	remaining := amountMicros
	var out []Mutation
	for _, component := range components {
		if remaining == 0 {
			break
		}
		balance := wallet.Component(component)
		if balance == 0 {
			continue
		}
		take := balance
		if take > remaining {
			take = remaining
		}
		remaining -= take
		out = append(out, Mutation{
			Component:   component,
			DeltaMicros: -take,
			Description: description,
		})
	}
	if remaining > 0 {
		return nil, false
	}
	return out, true
}
