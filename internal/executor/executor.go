package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

// Mutation is one balance-component delta the approval service must apply,
// through the ledger writer, after a successful execution. Executors never
// touch the wallet themselves.
type Mutation struct {
	Component   domain.BalanceComponent
	DeltaMicros int64
	Description string
}

// Outcome is the structured result of one execution attempt. A failed
// outcome carries a machine code and detail and exactly zero mutations.
type Outcome struct {
	Success     bool
	ErrorCode   string
	ErrorDetail string
	Result      any
	Mutations   []Mutation
}

func failure(code, detail string) Outcome {
	return Outcome{Success: false, ErrorCode: code, ErrorDetail: detail}
}

// timeoutOutcome converts context expiry into a failed execution; a timed
// out external call is never treated as success.
func timeoutOutcome(err error) Outcome {
	return failure(domain.ErrCodeExecutionTimeout, err.Error())
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Executor performs the external side effect for one order type.
type Executor interface {
	Execute(ctx context.Context, order models.Order, wallet models.Wallet) Outcome
}

// Registry selects the executor for an order's type.
type Registry struct {
	byType map[domain.OrderType]Executor
}

// NewRegistry wires the standard per-type executors. Legacy deposit orders
// run the wallet-topup executor.
func NewRegistry(games GameLoadExecutor, withdrawals WithdrawalExecutor) *Registry {
	credit := CreditExecutor{}
	return &Registry{byType: map[domain.OrderType]Executor{
		domain.OrderTypeDeposit:     credit,
		domain.OrderTypeWalletTopup: credit,
		domain.OrderTypeGameLoad:    &games,
		domain.OrderTypeWithdrawal:  &withdrawals,
	}}
}

// ForType returns the executor registered for t.
func (r *Registry) ForType(t domain.OrderType) (Executor, error) {
	ex, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("no executor for order type %q", t)
	}
	return ex, nil
}
