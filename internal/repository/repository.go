package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles all hand-written SQL against one DBTX.
type Queries struct {
	db DBTX
}

// New creates a query set bound to a pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx rebinds the query set to a transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Querier is the data-access contract consumed by the services. Having it
// as an interface keeps the decision logic testable against an in-memory
// implementation.
type Querier interface {
	GetSubject(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) (models.Order, error)
	GetSubjectForUpdate(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) (models.Order, error)
	GetSubjectByIdempotencyKey(ctx context.Context, kind domain.SubjectKind, key string) (models.Order, error)
	InsertSubject(ctx context.Context, order models.Order) (inserted bool, err error)
	MarkDecision(ctx context.Context, kind domain.SubjectKind, params DecisionParams) (int64, error)
	ApplyAmountAdjustment(ctx context.Context, kind domain.SubjectKind, params AdjustmentParams) (int64, error)
	IncrementExecutionAttempts(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) error

	EnsureWallet(ctx context.Context, userID uuid.UUID) error
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
	GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
	SetWalletComponent(ctx context.Context, userID uuid.UUID, component domain.BalanceComponent, balanceMicros int64) (int64, error)

	InsertLedgerEntry(ctx context.Context, entry models.LedgerEntry) error
	LedgerNetForOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	LedgerComponentSums(ctx context.Context, userID uuid.UUID) (map[domain.BalanceComponent]int64, error)
	ListWalletUserIDs(ctx context.Context, limit, offset int32) ([]uuid.UUID, error)

	GetReviewerGrant(ctx context.Context, reviewerID string) (models.ReviewerGrant, error)
	UpsertReviewerGrant(ctx context.Context, grant models.ReviewerGrant) error
}

var _ Querier = (*Queries)(nil)
