package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"PENDING", StatusPending},
		{"APPROVED_EXECUTED", StatusApprovedExecuted},
		{"APPROVED_FAILED", StatusApprovedFailed},
		{"REJECTED", StatusRejected},
		{"pending", StatusPending},
		{"PENDING_REVIEW", StatusPending},
		{"pending_review", StatusPending},
		{"initiated", StatusPending},
		{"awaiting_payment_proof", StatusPending},
		{"approved", StatusApprovedExecuted},
		{"Approved", StatusApprovedExecuted},
		{"completed", StatusApprovedExecuted},
		{"executed", StatusApprovedExecuted},
		{"rejected", StatusRejected},
		{"declined", StatusRejected},
		{"failed", StatusApprovedFailed},
		{"  APPROVED_EXECUTED  ", StatusApprovedExecuted},
		{"", StatusPending},
		{"garbage", StatusPending},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeStatus(tc.raw))
		})
	}
}

func TestTerminal(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.True(t, StatusApprovedExecuted.Terminal())
	require.True(t, StatusApprovedFailed.Terminal())
	require.True(t, StatusRejected.Terminal())
}

func TestPendingStatusSpellingsAllNormalizeToPending(t *testing.T) {
	spellings := PendingStatusSpellings()
	require.Contains(t, spellings, "PENDING")
	for _, s := range spellings {
		require.Equal(t, StatusPending, NormalizeStatus(s), s)
	}
}
