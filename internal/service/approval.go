package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/events"
	"github.com/veltapay/approval-engine/internal/executor"
	"github.com/veltapay/approval-engine/internal/models"
	"github.com/veltapay/approval-engine/internal/observability"
	"github.com/veltapay/approval-engine/internal/repository"
)

const defaultRejectionReason = "rejected by reviewer"

// ApprovalService is the single decision authority for orders and wallet
// load requests. Every decision runs in one transaction holding the subject
// row lock; events and metrics fire only after that transaction commits.
type ApprovalService struct {
	store       QueryStore
	permissions *PermissionValidator
	executors   *executor.Registry
	ledger      *LedgerWriter
	emitter     events.Emitter
	execTimeout time.Duration
}

func NewApprovalService(store QueryStore, executors *executor.Registry, emitter events.Emitter, execTimeout time.Duration) *ApprovalService {
	if execTimeout <= 0 {
		execTimeout = 30 * time.Second
	}
	return &ApprovalService{
		store:       store,
		permissions: NewPermissionValidator(),
		executors:   executors,
		ledger:      NewLedgerWriter(),
		emitter:     emitter,
		execTimeout: execTimeout,
	}
}

// DecideRequest carries one decision call.
type DecideRequest struct {
	Kind      domain.SubjectKind
	SubjectID uuid.UUID
	Action    domain.Action
	Actor     domain.Actor

	// NewAmountMicros is required for edit_amount. On approve it applies the
	// same one-time adjustment before execution, so an approve-with-edit
	// moves the edited amount, never the stored one. Ignored on reject.
	NewAmountMicros *int64
	// RejectionReason is optional for reject and ignored otherwise.
	RejectionReason *string
}

// DecideResponse is the post-decision view of the subject. Replayed is true
// when the subject was already terminal and the stored outcome was returned
// without re-running any side effect.
type DecideResponse struct {
	Order    models.Order `json:"order"`
	Replayed bool         `json:"replayed"`
}

// Decide applies one decision action. Approval failures at the external
// gateway are not errors: they commit APPROVED_FAILED and return normally.
// An invariant violation aborts the transaction and leaves the subject
// pending.
func (s *ApprovalService) Decide(ctx context.Context, req DecideRequest) (*DecideResponse, error) {
	if !domain.ValidAction(req.Action) {
		return nil, fmt.Errorf("action %q: %w", req.Action, models.ErrInvalidAction)
	}

	var resp DecideResponse
	var event *events.DecisionEvent
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		order, err := q.GetSubjectForUpdate(ctx, req.Kind, req.SubjectID)
		if err != nil {
			return err
		}

		status := domain.NormalizeStatus(string(order.Status))
		if status.Terminal() {
			order.Status = status
			resp = DecideResponse{Order: order, Replayed: true}
			event = nil
			return nil
		}
		order.Status = status

		if err := s.permissions.Authorize(ctx, q, req.Actor, &order); err != nil {
			return err
		}

		switch req.Action {
		case domain.ActionEditAmount:
			event, err = s.adjustAmount(ctx, q, req, &order)
		case domain.ActionReject:
			event, err = s.reject(ctx, q, req, &order)
		case domain.ActionApprove:
			event, err = s.approve(ctx, q, req, &order)
		}
		if err != nil {
			return err
		}
		resp = DecideResponse{Order: order}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrInvariantViolation) {
			zap.L().Error("decision aborted on invariant violation",
				zap.String("subject_id", req.SubjectID.String()),
				zap.String("kind", string(req.Kind)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	if event != nil {
		// Amount edits leave the subject pending; only terminal outcomes
		// count as decisions.
		if resp.Order.Status.Terminal() {
			observability.IncrementDecision(string(resp.Order.Type), string(resp.Order.Status))
		}
		s.emitter.Emit(ctx, *event)
	}
	return &resp, nil
}

// adjustAmount performs the one-time pre-approval edit of the final amount.
func (s *ApprovalService) adjustAmount(ctx context.Context, q repository.Querier, req DecideRequest, order *models.Order) (*events.DecisionEvent, error) {
	if req.NewAmountMicros == nil {
		return nil, fmt.Errorf("edit_amount requires a positive amount: %w", models.ErrInvalidAmount)
	}
	if err := s.applyAdjustment(ctx, q, req.Actor, *req.NewAmountMicros, order); err != nil {
		return nil, err
	}
	return s.buildEvent(events.TypeAmountAdjusted, req.Actor, order, nil), nil
}

// applyAdjustment writes the one-time final-amount edit, shared by the
// edit_amount verb and approve-with-edit. Zero updated rows means another
// edit already happened.
func (s *ApprovalService) applyAdjustment(ctx context.Context, q repository.Querier, actor domain.Actor, newAmount int64, order *models.Order) error {
	if newAmount <= 0 {
		return fmt.Errorf("amount adjustment requires a positive amount: %w", models.ErrInvalidAmount)
	}
	if order.AmountAdjusted {
		return models.ErrAlreadyAdjusted
	}

	now := time.Now().UTC()
	rows, err := q.ApplyAmountAdjustment(ctx, order.Kind, repository.AdjustmentParams{
		ID:         order.ID,
		NewAmount:  newAmount,
		AdjustedBy: actor.ActorID(),
		AdjustedAt: now,
	})
	if err != nil {
		return err
	}
	if rows != 1 {
		return models.ErrAlreadyAdjusted
	}

	order.FinalAmountMicros = newAmount
	order.AmountAdjusted = true
	adjustedBy := actor.ActorID()
	order.AdjustedBy = &adjustedBy
	order.AdjustedAt = &now
	return nil
}

func (s *ApprovalService) reject(ctx context.Context, q repository.Querier, req DecideRequest, order *models.Order) (*events.DecisionEvent, error) {
	reason := defaultRejectionReason
	if req.RejectionReason != nil && *req.RejectionReason != "" {
		reason = *req.RejectionReason
	}

	now := time.Now().UTC()
	if err := s.markDecision(ctx, q, order, repository.DecisionParams{
		ID:              order.ID,
		Status:          domain.StatusRejected,
		ActorKind:       req.Actor.Kind(),
		ActorID:         req.Actor.ActorID(),
		FinalAmount:     order.FinalAmountMicros,
		RejectionReason: &reason,
		ApprovedAt:      now,
	}); err != nil {
		return nil, err
	}
	order.RejectionReason = &reason

	eventType := events.TypeOrderRejected
	if order.Kind == domain.SubjectWalletLoad {
		eventType = events.TypeWalletLoadRejected
	}
	return s.buildEvent(eventType, req.Actor, order, nil), nil
}

// approve runs the money-movement executor and commits either the executed
// outcome with its ledger entries or a failed outcome with none. A supplied
// NewAmountMicros is an approve-with-edit: the adjustment applies under the
// usual write-once guard before the executor sees the order.
func (s *ApprovalService) approve(ctx context.Context, q repository.Querier, req DecideRequest, order *models.Order) (*events.DecisionEvent, error) {
	if req.NewAmountMicros != nil && *req.NewAmountMicros != order.FinalAmountMicros {
		if err := s.applyAdjustment(ctx, q, req.Actor, *req.NewAmountMicros, order); err != nil {
			return nil, err
		}
	}

	if err := q.EnsureWallet(ctx, order.UserID); err != nil {
		return nil, err
	}
	wallet, err := q.GetWalletForUpdate(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	if err := q.IncrementExecutionAttempts(ctx, order.Kind, order.ID); err != nil {
		return nil, err
	}
	order.ExecutionAttempts++
	observability.IncrementExecutionAttempt(string(order.Type))

	ex, err := s.executors.ForType(order.Type)
	if err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, s.execTimeout)
	start := time.Now()
	outcome := ex.Execute(execCtx, *order, wallet)
	cancel()

	result := "failed"
	if outcome.Success {
		result = "executed"
	}
	observability.ObserveExecution(string(order.Type), result, time.Since(start))

	now := time.Now().UTC()
	params := repository.DecisionParams{
		ID:          order.ID,
		ActorKind:   req.Actor.Kind(),
		ActorID:     req.Actor.ActorID(),
		FinalAmount: order.FinalAmountMicros,
		ApprovedAt:  now,
	}

	if outcome.Success {
		if err := s.ledger.Apply(ctx, q, order.ID, &wallet, outcome.Mutations); err != nil {
			return nil, err
		}
		payload, err := json.Marshal(outcome.Result)
		if err != nil {
			return nil, fmt.Errorf("encode execution result: %w", err)
		}
		params.Status = domain.StatusApprovedExecuted
		params.ExecutedAt = &now
		params.ExecutionResult = payload
		order.ExecutedAt = &now
		order.ExecutionResult = payload
	} else {
		detail := outcome.ErrorCode
		if outcome.ErrorDetail != "" {
			detail = outcome.ErrorCode + ": " + outcome.ErrorDetail
		}
		params.Status = domain.StatusApprovedFailed
		params.ExecutionError = &detail
		order.ExecutionError = &detail
		zap.L().Warn("execution failed, committing APPROVED_FAILED",
			zap.String("subject_id", order.ID.String()),
			zap.String("order_type", string(order.Type)),
			zap.String("error_code", outcome.ErrorCode),
		)
	}

	if err := s.markDecision(ctx, q, order, params); err != nil {
		return nil, err
	}

	eventType := events.TypeOrderApproved
	switch {
	case !outcome.Success:
		eventType = events.TypeExecutionFailed
	case order.Kind == domain.SubjectWalletLoad:
		eventType = events.TypeWalletLoadApproved
	}
	return s.buildEvent(eventType, req.Actor, order, &outcome), nil
}

// markDecision writes the terminal row and mirrors it onto the in-memory
// order. Zero updated rows while holding the row lock means the guarded
// WHERE clause disagreed with what we just read.
func (s *ApprovalService) markDecision(ctx context.Context, q repository.Querier, order *models.Order, params repository.DecisionParams) error {
	rows, err := q.MarkDecision(ctx, order.Kind, params)
	if err != nil {
		return err
	}
	if rows != 1 {
		return fmt.Errorf("terminal write for %s touched %d rows: %w",
			order.ID, rows, models.ErrInvariantViolation)
	}

	order.Status = params.Status
	kind := params.ActorKind
	order.ApprovedByType = &kind
	actorID := params.ActorID
	order.ApprovedByID = &actorID
	at := params.ApprovedAt
	order.ApprovedAt = &at
	return nil
}

func (s *ApprovalService) buildEvent(eventType string, actor domain.Actor, order *models.Order, outcome *executor.Outcome) *events.DecisionEvent {
	ev := &events.DecisionEvent{
		EventType:       eventType,
		SubjectKind:     order.Kind,
		SubjectID:       order.ID,
		UserID:          order.UserID,
		OrderType:       order.Type,
		Status:          order.Status,
		RequestedAmount: order.RequestedAmountMicros,
		FinalAmount:     order.FinalAmountMicros,
		ActorKind:       actor.Kind(),
		ActorID:         actor.ActorID(),
	}
	if outcome != nil {
		ev.ErrorCode = outcome.ErrorCode
		if wr, ok := outcome.Result.(executor.WithdrawalResult); ok {
			ev.PayoutMicros = wr.PayoutMicros
			ev.VoidMicros = wr.VoidMicros
		}
	}
	return ev
}
