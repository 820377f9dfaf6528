package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMoneyDisplay(t *testing.T) {
	require.Equal(t, "120.00", NewMoney(120_000_000).String())
	require.Equal(t, "0.50", NewMoney(500_000).String())
	require.Equal(t, "0.00", NewMoney(0).String())
	require.Equal(t, "-12.34", NewMoney(-12_340_000).String())
}

func TestFromDecimal(t *testing.T) {
	d, err := decimal.NewFromString("120.50")
	require.NoError(t, err)
	require.Equal(t, int64(120_500_000), FromDecimal(d))

	require.Equal(t, int64(0), FromDecimal(decimal.Zero))
}

func TestMoneyPositive(t *testing.T) {
	require.True(t, NewMoney(1).Positive())
	require.False(t, NewMoney(0).Positive())
	require.False(t, NewMoney(-1).Positive())
}

func TestProofPayloadNeverExposesBytesInLogs(t *testing.T) {
	p := NewProofPayload([]byte("image-bytes"), "receipt from chat")
	require.Equal(t, "proof:<redacted>", p.Redacted())
	require.Equal(t, "receipt from chat", p.Note())
	require.Equal(t, []byte("image-bytes"), p.Bytes())

	empty := NewProofPayload(nil, "")
	require.Equal(t, "proof:<empty>", empty.Redacted())
}
