package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
	"github.com/veltapay/approval-engine/internal/repository"
)

// fakeQuerier is an in-memory repository.Querier. It is deliberately
// simple-minded: single-goroutine tests only, no real locking.
type fakeQuerier struct {
	subjects map[domain.SubjectKind]map[uuid.UUID]*models.Order
	byKey    map[domain.SubjectKind]map[string]uuid.UUID
	wallets  map[uuid.UUID]*models.Wallet
	ledger   []models.LedgerEntry
	grants   map[string]models.ReviewerGrant

	failWalletWrites bool
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		subjects: map[domain.SubjectKind]map[uuid.UUID]*models.Order{
			domain.SubjectOrder:      {},
			domain.SubjectWalletLoad: {},
		},
		byKey: map[domain.SubjectKind]map[string]uuid.UUID{
			domain.SubjectOrder:      {},
			domain.SubjectWalletLoad: {},
		},
		wallets: map[uuid.UUID]*models.Wallet{},
		grants:  map[string]models.ReviewerGrant{},
	}
}

func (f *fakeQuerier) addSubject(o models.Order) *models.Order {
	stored := o
	f.subjects[o.Kind][o.ID] = &stored
	if o.IdempotencyKey != nil {
		f.byKey[o.Kind][*o.IdempotencyKey] = o.ID
	}
	return &stored
}

func (f *fakeQuerier) setWallet(userID uuid.UUID, cash, play, bonus int64) {
	f.wallets[userID] = &models.Wallet{
		UserID: userID, CashMicros: cash, PlayCreditMicros: play, BonusMicros: bonus,
	}
}

func (f *fakeQuerier) GetSubject(_ context.Context, kind domain.SubjectKind, id uuid.UUID) (models.Order, error) {
	if o, ok := f.subjects[kind][id]; ok {
		return *o, nil
	}
	return models.Order{}, models.ErrNotFound
}

func (f *fakeQuerier) GetSubjectForUpdate(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) (models.Order, error) {
	return f.GetSubject(ctx, kind, id)
}

func (f *fakeQuerier) GetSubjectByIdempotencyKey(_ context.Context, kind domain.SubjectKind, key string) (models.Order, error) {
	if id, ok := f.byKey[kind][key]; ok {
		return *f.subjects[kind][id], nil
	}
	return models.Order{}, models.ErrNotFound
}

func (f *fakeQuerier) InsertSubject(_ context.Context, order models.Order) (bool, error) {
	if order.IdempotencyKey != nil {
		if _, exists := f.byKey[order.Kind][*order.IdempotencyKey]; exists {
			return false, nil
		}
	}
	order.Status = domain.StatusPending
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.addSubject(order)
	return true, nil
}

func (f *fakeQuerier) MarkDecision(_ context.Context, kind domain.SubjectKind, p repository.DecisionParams) (int64, error) {
	o, ok := f.subjects[kind][p.ID]
	if !ok {
		return 0, nil
	}
	if domain.NormalizeStatus(string(o.Status)) != domain.StatusPending {
		return 0, nil
	}
	o.Status = p.Status
	kindCopy := p.ActorKind
	o.ApprovedByType = &kindCopy
	actorID := p.ActorID
	o.ApprovedByID = &actorID
	at := p.ApprovedAt
	o.ApprovedAt = &at
	o.FinalAmountMicros = p.FinalAmount
	o.RejectionReason = p.RejectionReason
	o.ExecutedAt = p.ExecutedAt
	o.ExecutionResult = p.ExecutionResult
	o.ExecutionError = p.ExecutionError
	return 1, nil
}

func (f *fakeQuerier) ApplyAmountAdjustment(_ context.Context, kind domain.SubjectKind, p repository.AdjustmentParams) (int64, error) {
	o, ok := f.subjects[kind][p.ID]
	if !ok || o.AmountAdjusted || domain.NormalizeStatus(string(o.Status)) != domain.StatusPending {
		return 0, nil
	}
	o.FinalAmountMicros = p.NewAmount
	o.AmountAdjusted = true
	by := p.AdjustedBy
	o.AdjustedBy = &by
	at := p.AdjustedAt
	o.AdjustedAt = &at
	return 1, nil
}

func (f *fakeQuerier) IncrementExecutionAttempts(_ context.Context, kind domain.SubjectKind, id uuid.UUID) error {
	if o, ok := f.subjects[kind][id]; ok {
		o.ExecutionAttempts++
	}
	return nil
}

func (f *fakeQuerier) EnsureWallet(_ context.Context, userID uuid.UUID) error {
	if _, ok := f.wallets[userID]; !ok {
		f.wallets[userID] = &models.Wallet{UserID: userID}
	}
	return nil
}

func (f *fakeQuerier) GetWallet(_ context.Context, userID uuid.UUID) (models.Wallet, error) {
	if w, ok := f.wallets[userID]; ok {
		return *w, nil
	}
	return models.Wallet{}, models.ErrNotFound
}

func (f *fakeQuerier) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	return f.GetWallet(ctx, userID)
}

func (f *fakeQuerier) SetWalletComponent(_ context.Context, userID uuid.UUID, component domain.BalanceComponent, balanceMicros int64) (int64, error) {
	if f.failWalletWrites {
		return 0, nil
	}
	w, ok := f.wallets[userID]
	if !ok || balanceMicros < 0 {
		return 0, nil
	}
	w.SetComponent(component, balanceMicros)
	return 1, nil
}

func (f *fakeQuerier) InsertLedgerEntry(_ context.Context, entry models.LedgerEntry) error {
	f.ledger = append(f.ledger, entry)
	return nil
}

func (f *fakeQuerier) LedgerNetForOrder(_ context.Context, orderID uuid.UUID) (int64, error) {
	var net int64
	for _, e := range f.ledger {
		if e.OrderID == orderID {
			net += e.DeltaMicros
		}
	}
	return net, nil
}

func (f *fakeQuerier) LedgerComponentSums(_ context.Context, userID uuid.UUID) (map[domain.BalanceComponent]int64, error) {
	sums := map[domain.BalanceComponent]int64{}
	for _, e := range f.ledger {
		if e.UserID == userID {
			sums[e.Component] += e.DeltaMicros
		}
	}
	return sums, nil
}

func (f *fakeQuerier) ListWalletUserIDs(_ context.Context, limit, offset int32) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range f.wallets {
		ids = append(ids, id)
	}
	if int(offset) >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if int(limit) < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeQuerier) GetReviewerGrant(_ context.Context, reviewerID string) (models.ReviewerGrant, error) {
	if g, ok := f.grants[reviewerID]; ok {
		return g, nil
	}
	return models.ReviewerGrant{}, models.ErrNotFound
}

func (f *fakeQuerier) UpsertReviewerGrant(_ context.Context, grant models.ReviewerGrant) error {
	f.grants[grant.ReviewerID] = grant
	return nil
}

var _ repository.Querier = (*fakeQuerier)(nil)

// fakeStore is a QueryStore without real transactions. Rollback fidelity is
// not simulated; tests that exercise aborts assert on returned errors and
// terminal-state absence instead.
type fakeStore struct {
	q *fakeQuerier
}

func (s *fakeStore) Querier() repository.Querier {
	return s.q
}

func (s *fakeStore) RunInTx(_ context.Context, fn func(q repository.Querier) error) error {
	return fn(s.q)
}
