package service

import (
	"context"

	"github.com/veltapay/approval-engine/internal/repository"
)

// QueryStore defines the minimal data access contract required by services.
type QueryStore interface {
	Querier() repository.Querier
	RunInTx(ctx context.Context, fn func(q repository.Querier) error) error
}
