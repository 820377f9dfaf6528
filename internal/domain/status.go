package domain

import "strings"

// Status is the closed decision state set. Legacy spellings found in
// historical rows are normalized to this set on read and never written back.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusApprovedExecuted Status = "APPROVED_EXECUTED"
	StatusApprovedFailed   Status = "APPROVED_FAILED"
	StatusRejected         Status = "REJECTED"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	switch s {
	case StatusApprovedExecuted, StatusApprovedFailed, StatusRejected:
		return true
	}
	return false
}

// legacyPendingStatuses are the historical pending spellings that the
// intake surfaces wrote before the status set was closed.
var legacyPendingStatuses = map[string]struct{}{
	"pending":                {},
	"pending_review":         {},
	"initiated":              {},
	"awaiting_payment_proof": {},
}

// PendingStatusSpellings returns every stored spelling that normalizes to
// PENDING, for use in guarded UPDATE ... WHERE status = ANY($n) clauses.
func PendingStatusSpellings() []string {
	out := []string{string(StatusPending)}
	for s := range legacyPendingStatuses {
		out = append(out, s, strings.ToUpper(s))
	}
	return out
}

// NormalizeStatus maps any stored status spelling onto the canonical set.
// Unknown spellings collapse to PENDING so that a malformed row can still be
// decided rather than becoming permanently stuck.
func NormalizeStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	switch Status(strings.ToUpper(trimmed)) {
	case StatusPending, StatusApprovedExecuted, StatusApprovedFailed, StatusRejected:
		return Status(strings.ToUpper(trimmed))
	}
	switch strings.ToLower(trimmed) {
	case "approved", "completed", "executed":
		return StatusApprovedExecuted
	case "rejected", "declined":
		return StatusRejected
	case "failed":
		return StatusApprovedFailed
	}
	if _, ok := legacyPendingStatuses[strings.ToLower(trimmed)]; ok {
		return StatusPending
	}
	return StatusPending
}
