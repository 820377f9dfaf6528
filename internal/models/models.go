package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/veltapay/approval-engine/internal/domain"
)

// Order is one monetary request awaiting or holding a decision. Wallet load
// requests reuse the same shape under domain.SubjectWalletLoad; the Kind
// field routes them to their own table.
type Order struct {
	ID             uuid.UUID          `json:"id"`
	Kind           domain.SubjectKind `json:"kind"`
	IdempotencyKey *string            `json:"idempotency_key,omitempty"`
	UserID         uuid.UUID          `json:"user_id"`
	Type           domain.OrderType   `json:"order_type"`
	GameCode       string             `json:"game_code,omitempty"`
	ConversationID string             `json:"conversation_id,omitempty"`
	PaymentMethod  string             `json:"payment_method,omitempty"`

	RequestedAmountMicros int64 `json:"requested_amount_micros"`
	FinalAmountMicros     int64 `json:"final_amount_micros"`
	MaxCashoutMicros      int64 `json:"max_cashout_micros,omitempty"`

	AmountAdjusted bool       `json:"amount_adjusted"`
	AdjustedBy     *string    `json:"adjusted_by,omitempty"`
	AdjustedAt     *time.Time `json:"adjusted_at,omitempty"`

	Status          domain.Status     `json:"status"`
	ApprovedByType  *domain.ActorKind `json:"approved_by_type,omitempty"`
	ApprovedByID    *string           `json:"approved_by_id,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`

	ExecutedAt        *time.Time `json:"executed_at,omitempty"`
	ExecutionAttempts int32      `json:"execution_attempts"`
	ExecutionResult   []byte     `json:"execution_result,omitempty"`
	ExecutionError    *string    `json:"execution_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Wallet holds one user's balance, split into three components in micros.
// The stored components must equal the sum of ledger deltas at all times.
type Wallet struct {
	UserID           uuid.UUID `json:"user_id"`
	CashMicros       int64     `json:"cash_micros"`
	PlayCreditMicros int64     `json:"play_credit_micros"`
	BonusMicros      int64     `json:"bonus_micros"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Component returns the balance of a single wallet bucket.
func (w Wallet) Component(c domain.BalanceComponent) int64 {
	switch c {
	case domain.ComponentCash:
		return w.CashMicros
	case domain.ComponentPlayCredits:
		return w.PlayCreditMicros
	case domain.ComponentBonus:
		return w.BonusMicros
	}
	return 0
}

// Total returns the sum of all components.
func (w Wallet) Total() int64 {
	return w.CashMicros + w.PlayCreditMicros + w.BonusMicros
}

// SetComponent overwrites a single wallet bucket in memory. Persistence
// goes through the repository; this keeps the in-transaction copy current.
func (w *Wallet) SetComponent(c domain.BalanceComponent, micros int64) {
	switch c {
	case domain.ComponentCash:
		w.CashMicros = micros
	case domain.ComponentPlayCredits:
		w.PlayCreditMicros = micros
	case domain.ComponentBonus:
		w.BonusMicros = micros
	}
}

// LedgerEntry is one immutable balance-component delta. Entries are only
// ever inserted, never updated or deleted.
type LedgerEntry struct {
	ID                     uuid.UUID               `json:"id"`
	UserID                 uuid.UUID               `json:"user_id"`
	OrderID                uuid.UUID               `json:"order_id"`
	Component              domain.BalanceComponent `json:"component"`
	DeltaMicros            int64                   `json:"delta_micros"`
	ResultingBalanceMicros int64                   `json:"resulting_balance_micros"`
	Description            string                  `json:"description"`
	CreatedAt              time.Time               `json:"created_at"`
}

// ReviewerGrant is the permission row for one automated reviewer.
type ReviewerGrant struct {
	ReviewerID            string    `json:"reviewer_id"`
	IsActive              bool      `json:"is_active"`
	CanApproveOrders      bool      `json:"can_approve_orders"`
	CanApproveWalletLoads bool      `json:"can_approve_wallet_loads"`
	CanApproveWithdrawals bool      `json:"can_approve_withdrawals"`
	CreatedAt             time.Time `json:"created_at"`
}

// Allows reports whether the grant covers the given category.
func (g ReviewerGrant) Allows(category domain.EntityCategory) bool {
	if !g.IsActive {
		return false
	}
	switch category {
	case domain.CategoryOrder:
		return g.CanApproveOrders
	case domain.CategoryWalletLoad:
		return g.CanApproveWalletLoads
	case domain.CategoryWithdrawal:
		return g.CanApproveWithdrawals
	}
	return false
}
