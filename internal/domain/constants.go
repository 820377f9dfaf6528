package domain

// OrderType identifies what kind of value movement an order requests.
type OrderType string

const (
	OrderTypeDeposit     OrderType = "deposit" // legacy spelling of wallet_topup, still accepted on read
	OrderTypeGameLoad    OrderType = "game_load"
	OrderTypeWalletTopup OrderType = "wallet_topup"
	OrderTypeWithdrawal  OrderType = "withdrawal"
)

// ValidOrderType reports whether t is an accepted order type.
func ValidOrderType(t OrderType) bool {
	switch t {
	case OrderTypeDeposit, OrderTypeGameLoad, OrderTypeWalletTopup, OrderTypeWithdrawal:
		return true
	}
	return false
}

// SubjectKind separates orders from wallet load requests. They share the
// same decision state machine but live in different tables.
type SubjectKind string

const (
	SubjectOrder      SubjectKind = "order"
	SubjectWalletLoad SubjectKind = "wallet_load"
)

// EntityCategory is the permission-lookup category derived from a subject.
type EntityCategory string

const (
	CategoryOrder      EntityCategory = "order"
	CategoryWalletLoad EntityCategory = "wallet_load"
	CategoryWithdrawal EntityCategory = "withdrawal"
)

// CategoryFor maps a decision subject to its permission category.
// Withdrawals carry their own category regardless of subject kind.
func CategoryFor(kind SubjectKind, orderType OrderType) EntityCategory {
	if orderType == OrderTypeWithdrawal {
		return CategoryWithdrawal
	}
	if kind == SubjectWalletLoad {
		return CategoryWalletLoad
	}
	return CategoryOrder
}

// Action is a decision verb accepted by the approval service.
type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionEditAmount Action = "edit_amount"
)

// ValidAction reports whether a is a known decision action.
func ValidAction(a Action) bool {
	switch a {
	case ActionApprove, ActionReject, ActionEditAmount:
		return true
	}
	return false
}

// BalanceComponent names one of the three wallet buckets.
type BalanceComponent string

const (
	ComponentCash        BalanceComponent = "cash"
	ComponentPlayCredits BalanceComponent = "play_credits"
	ComponentBonus       BalanceComponent = "bonus"
)

// ConsumptionOrder is the fixed sequence in which withdrawal payouts draw
// down wallet components. Bonus funds never seed a payout and go last.
var ConsumptionOrder = []BalanceComponent{ComponentCash, ComponentPlayCredits, ComponentBonus}

// Execution error codes surfaced in execution_error / execution_result.
const (
	ErrCodeGameLoadUnavailable = "GAME_LOAD_API_UNAVAILABLE"
	ErrCodePayoutUnavailable   = "PAYOUT_API_UNAVAILABLE"
	ErrCodeExecutionTimeout    = "EXECUTION_TIMEOUT"
	ErrCodeUpstreamFailure     = "UPSTREAM_FAILURE"
)
