package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// MockGameCreditGateway simulates a game provider for local runs. It fails
// ~10% of calls and adds a small delay to mimic network latency.
type MockGameCreditGateway struct {
	FailureRate float64
	Down        bool
}

func NewMockGameCreditGateway() *MockGameCreditGateway {
	return &MockGameCreditGateway{FailureRate: 0.1}
}

func (g *MockGameCreditGateway) Available(ctx context.Context) bool {
	return !g.Down
}

func (g *MockGameCreditGateway) GrantCredits(ctx context.Context, gameCode, userRef string, amountMicros int64) (GameCredentials, error) {
	select {
	case <-time.After(time.Duration(100+rand.Intn(400)) * time.Millisecond):
	case <-ctx.Done():
		return GameCredentials{}, fmt.Errorf("game provider call canceled: %w", ctx.Err())
	}
	if rand.Float64() < g.FailureRate {
		return GameCredentials{}, fmt.Errorf("game provider rejected load for %s", gameCode)
	}
	loadID := uuid.NewString()
	return GameCredentials{
		SessionID: loadID[:8],
		GameToken: "GT-" + loadID[:8],
		LoadedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// MockPayoutGateway simulates the external disbursement rail.
type MockPayoutGateway struct {
	FailureRate float64
	Down        bool
}

func NewMockPayoutGateway() *MockPayoutGateway {
	return &MockPayoutGateway{FailureRate: 0.1}
}

func (g *MockPayoutGateway) Available(ctx context.Context) bool {
	return !g.Down
}

func (g *MockPayoutGateway) SendPayout(ctx context.Context, userRef string, amountMicros int64) (string, error) {
	select {
	case <-time.After(time.Duration(100+rand.Intn(400)) * time.Millisecond):
	case <-ctx.Done():
		return "", fmt.Errorf("payout call canceled: %w", ctx.Err())
	}
	if rand.Float64() < g.FailureRate {
		return "", fmt.Errorf("payout rail temporarily unavailable")
	}
	return fmt.Sprintf("MOCK-%s-%05d", time.Now().Format("20060102-150405"), rand.Intn(100000)), nil
}
