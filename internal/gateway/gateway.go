package gateway

import "context"

// GameCredentials is the payload issued by a successful game-credit grant.
type GameCredentials struct {
	SessionID string `json:"session_id"`
	GameToken string `json:"game_token"`
	LoadedAt  string `json:"loaded_at"`
}

// GameCreditGateway grants play credits on an external game provider.
// Available must be side-effect-free: the executor calls it before every
// attempt and a decision is failed outright when the capability is down.
type GameCreditGateway interface {
	Available(ctx context.Context) bool
	GrantCredits(ctx context.Context, gameCode string, userRef string, amountMicros int64) (GameCredentials, error)
}

// PayoutGateway disburses a withdrawal to an external destination. Success
// must be confirmed before any wallet debit happens.
type PayoutGateway interface {
	Available(ctx context.Context) bool
	SendPayout(ctx context.Context, userRef string, amountMicros int64) (ref string, err error)
}
