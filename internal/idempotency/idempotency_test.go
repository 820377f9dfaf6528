package idempotency

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/approval-engine/internal/domain"
)

func TestFingerprintDeterministic(t *testing.T) {
	in := Inputs{
		Kind:           domain.SubjectOrder,
		OrderType:      domain.OrderTypeGameLoad,
		UserID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		ConversationID: "conv-1",
		Purpose:        "slots-7",
		AmountMicros:   20_000_000,
	}
	require.Equal(t, Fingerprint(in), Fingerprint(in))
	require.Len(t, Fingerprint(in), 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Inputs{
		Kind:           domain.SubjectOrder,
		OrderType:      domain.OrderTypeWalletTopup,
		UserID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		ConversationID: "conv-1",
		Purpose:        "bank_transfer",
		AmountMicros:   5_000_000,
	}

	mutations := []func(Inputs) Inputs{
		func(in Inputs) Inputs { in.Kind = domain.SubjectWalletLoad; return in },
		func(in Inputs) Inputs { in.OrderType = domain.OrderTypeGameLoad; return in },
		func(in Inputs) Inputs { in.UserID = uuid.MustParse("22222222-2222-2222-2222-222222222222"); return in },
		func(in Inputs) Inputs { in.ConversationID = "conv-2"; return in },
		func(in Inputs) Inputs { in.Purpose = "mobile_money"; return in },
		func(in Inputs) Inputs { in.AmountMicros = 5_000_001; return in },
	}

	seen := map[string]bool{Fingerprint(base): true}
	for i, mutate := range mutations {
		fp := Fingerprint(mutate(base))
		require.False(t, seen[fp], "mutation %d collided", i)
		seen[fp] = true
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	_, ok := c.Lookup(context.Background(), "key")
	require.False(t, ok)
	c.Remember(context.Background(), "key", uuid.New())
}
