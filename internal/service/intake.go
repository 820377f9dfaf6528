package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/idempotency"
	"github.com/veltapay/approval-engine/internal/models"
	"github.com/veltapay/approval-engine/internal/observability"
)

// IntakeService creates pending subjects with fingerprint-based dedup. The
// database unique constraint on idempotency_key is the authority; the Redis
// cache only answers hot retries faster.
type IntakeService struct {
	store QueryStore
	cache *idempotency.Cache
}

func NewIntakeService(store QueryStore, cache *idempotency.Cache) *IntakeService {
	return &IntakeService{store: store, cache: cache}
}

// CreateRequest carries one intake call for either subject kind.
type CreateRequest struct {
	Kind             domain.SubjectKind
	UserID           uuid.UUID
	OrderType        domain.OrderType
	GameCode         string
	ConversationID   string
	PaymentMethod    string
	AmountMicros     int64
	MaxCashoutMicros int64

	// Proof is accepted at intake for operator display but its bytes are
	// never persisted or forwarded.
	Proof domain.ProofPayload
}

// CreateResponse reports the created or deduplicated subject. Duplicate is
// true when an earlier request with the same fingerprint won.
type CreateResponse struct {
	Order     models.Order `json:"order"`
	Duplicate bool         `json:"duplicate"`
}

// Create inserts a pending subject, or returns the existing one when the
// fingerprint already exists. The loser of a concurrent creation race
// re-queries and returns the winner.
func (s *IntakeService) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if !domain.ValidOrderType(req.OrderType) {
		return nil, fmt.Errorf("order type %q: %w", req.OrderType, models.ErrInvalidOrderType)
	}
	if req.AmountMicros <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", models.ErrInvalidAmount)
	}
	if req.Kind == domain.SubjectOrder && req.OrderType == domain.OrderTypeGameLoad && req.GameCode == "" {
		return nil, fmt.Errorf("game_load requires a game code: %w", models.ErrInvalidOrderType)
	}

	purpose := req.PaymentMethod
	if req.OrderType == domain.OrderTypeGameLoad {
		purpose = req.GameCode
	}
	key := idempotency.Fingerprint(idempotency.Inputs{
		Kind:           req.Kind,
		OrderType:      req.OrderType,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Purpose:        purpose,
		AmountMicros:   req.AmountMicros,
	})

	queries := s.store.Querier()
	if cachedID, ok := s.cache.Lookup(ctx, key); ok {
		existing, err := queries.GetSubject(ctx, req.Kind, cachedID)
		if err == nil {
			observability.IncrementIdempotencyEvent("cache_hit")
			return &CreateResponse{Order: existing, Duplicate: true}, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		// Stale cache entry; fall through to the constraint.
	}

	order := models.Order{
		ID:                    uuid.New(),
		Kind:                  req.Kind,
		IdempotencyKey:        &key,
		UserID:                req.UserID,
		Type:                  req.OrderType,
		GameCode:              req.GameCode,
		ConversationID:        req.ConversationID,
		PaymentMethod:         req.PaymentMethod,
		RequestedAmountMicros: req.AmountMicros,
		FinalAmountMicros:     req.AmountMicros,
		MaxCashoutMicros:      req.MaxCashoutMicros,
		Status:                domain.StatusPending,
	}

	inserted, err := queries.InsertSubject(ctx, order)
	if err != nil {
		return nil, err
	}
	if !inserted {
		winner, err := queries.GetSubjectByIdempotencyKey(ctx, req.Kind, key)
		if err != nil {
			return nil, fmt.Errorf("re-query after creation race: %w", err)
		}
		observability.IncrementIdempotencyEvent("constraint_duplicate")
		s.cache.Remember(ctx, key, winner.ID)
		return &CreateResponse{Order: winner, Duplicate: true}, nil
	}

	if err := queries.EnsureWallet(ctx, req.UserID); err != nil {
		return nil, err
	}

	created, err := queries.GetSubject(ctx, req.Kind, order.ID)
	if err != nil {
		return nil, err
	}

	observability.IncrementIdempotencyEvent("created")
	s.cache.Remember(ctx, key, created.ID)
	zap.L().Info("subject created",
		zap.String("subject_id", created.ID.String()),
		zap.String("kind", string(created.Kind)),
		zap.String("order_type", string(created.Type)),
		zap.Int64("amount_micros", created.RequestedAmountMicros),
		zap.String("proof", req.Proof.Redacted()),
	)
	return &CreateResponse{Order: created, Duplicate: false}, nil
}

// GetStatus returns the subject with its status normalized for display.
func (s *IntakeService) GetStatus(ctx context.Context, kind domain.SubjectKind, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.Querier().GetSubject(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	order.Status = domain.NormalizeStatus(string(order.Status))
	return &order, nil
}
