package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/api/middleware"
	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
	"github.com/veltapay/approval-engine/internal/service"
)

// SubjectHandler handles intake, decision and status for both orders and
// wallet load requests. The subject kind is fixed per route group.
type SubjectHandler struct {
	kind     domain.SubjectKind
	intake   *service.IntakeService
	approval *service.ApprovalService
}

func NewOrderHandler(intake *service.IntakeService, approval *service.ApprovalService) *SubjectHandler {
	return &SubjectHandler{kind: domain.SubjectOrder, intake: intake, approval: approval}
}

func NewWalletLoadHandler(intake *service.IntakeService, approval *service.ApprovalService) *SubjectHandler {
	return &SubjectHandler{kind: domain.SubjectWalletLoad, intake: intake, approval: approval}
}

// CreateSubjectRequest is the intake request body. Amount may be given as
// micros or as a decimal string; micros wins when both are present.
type CreateSubjectRequest struct {
	UserID           string `json:"user_id"`
	OrderType        string `json:"order_type"`
	GameCode         string `json:"game_code,omitempty"`
	ConversationID   string `json:"conversation_id"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	AmountMicros     int64  `json:"amount_micros,omitempty"`
	Amount           string `json:"amount,omitempty"`
	MaxCashoutMicros int64  `json:"max_cashout_micros,omitempty"`
	ProofBase64      string `json:"proof_base64,omitempty"`
	ProofNote        string `json:"proof_note,omitempty"`
}

type subjectView struct {
	models.Order
	Amount string `json:"amount"`
}

func viewOf(o models.Order) subjectView {
	return subjectView{Order: o, Amount: domain.NewMoney(o.FinalAmountMicros).String()}
}

type createSubjectResponse struct {
	subjectView
	Duplicate bool `json:"duplicate"`
}

// Create handles POST /v1/orders and POST /v1/wallet-loads. A duplicate
// fingerprint returns the winner with 200 instead of 201.
func (h *SubjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid user_id")
		return
	}
	if req.ConversationID == "" {
		RespondError(w, r, http.StatusBadRequest, "request/missing-conversation-id", "conversation_id is required")
		return
	}

	amountMicros := req.AmountMicros
	if amountMicros == 0 && req.Amount != "" {
		d, err := decimal.NewFromString(req.Amount)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", "Invalid amount")
			return
		}
		amountMicros = domain.FromDecimal(d)
	}

	var proof domain.ProofPayload
	if req.ProofBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(req.ProofBase64)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-proof", "Invalid proof payload")
			return
		}
		proof = domain.NewProofPayload(raw, req.ProofNote)
	}

	resp, err := h.intake.Create(r.Context(), service.CreateRequest{
		Kind:             h.kind,
		UserID:           userID,
		OrderType:        domain.OrderType(req.OrderType),
		GameCode:         req.GameCode,
		ConversationID:   req.ConversationID,
		PaymentMethod:    req.PaymentMethod,
		AmountMicros:     amountMicros,
		MaxCashoutMicros: req.MaxCashoutMicros,
		Proof:            proof,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "intake failed")
		return
	}

	status := http.StatusCreated
	if resp.Duplicate {
		status = http.StatusOK
	}
	RespondJSON(w, status, createSubjectResponse{subjectView: viewOf(resp.Order), Duplicate: resp.Duplicate})
}

// DecideSubjectRequest is the decision request body.
type DecideSubjectRequest struct {
	Action          string  `json:"action"`
	NewAmountMicros *int64  `json:"new_amount_micros,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type decideSubjectResponse struct {
	subjectView
	Replayed bool `json:"replayed"`
}

// Decide handles POST /v1/orders/{id}/decision and the wallet-load twin.
// Re-deciding a terminal subject replays the stored outcome with 200.
func (h *SubjectHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	subjectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-subject-id", "Invalid subject ID")
		return
	}

	var req DecideSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	resp, err := h.approval.Decide(r.Context(), service.DecideRequest{
		Kind:            h.kind,
		SubjectID:       subjectID,
		Action:          domain.Action(req.Action),
		Actor:           actor,
		NewAmountMicros: req.NewAmountMicros,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "decision failed")
		return
	}

	RespondJSON(w, http.StatusOK, decideSubjectResponse{subjectView: viewOf(resp.Order), Replayed: resp.Replayed})
}

// Get handles GET /v1/orders/{id} and GET /v1/wallet-loads/{id}.
func (h *SubjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-subject-id", "Invalid subject ID")
		return
	}

	order, err := h.intake.GetStatus(r.Context(), h.kind, subjectID)
	if err != nil {
		h.respondServiceError(w, r, err, "status lookup failed")
		return
	}

	RespondJSON(w, http.StatusOK, viewOf(*order))
}

func (h *SubjectHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		RespondError(w, r, http.StatusNotFound, "subject/not-found", "Subject not found")
	case errors.Is(err, models.ErrPermissionDenied):
		RespondError(w, r, http.StatusForbidden, "decision/permission-denied", "Actor is not permitted to decide this subject")
	case errors.Is(err, models.ErrInvalidAmount):
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", err.Error())
	case errors.Is(err, models.ErrInvalidOrderType):
		RespondError(w, r, http.StatusBadRequest, "request/invalid-order-type", err.Error())
	case errors.Is(err, models.ErrInvalidAction):
		RespondError(w, r, http.StatusBadRequest, "decision/invalid-action", err.Error())
	case errors.Is(err, models.ErrAlreadyAdjusted):
		RespondError(w, r, http.StatusConflict, "decision/amount-already-adjusted", "Amount was already adjusted once")
	case errors.Is(err, models.ErrInvariantViolation):
		zap.L().Error(logMsg, zap.Error(err), zap.String("kind", string(h.kind)))
		RespondError(w, r, http.StatusInternalServerError, "decision/invariant-violation", "Decision aborted; subject left pending")
	default:
		if status, slug, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, slug, msg)
			return
		}
		zap.L().Error(logMsg, zap.Error(err), zap.String("kind", string(h.kind)))
		RespondError(w, r, http.StatusInternalServerError, "internal-error", "Unexpected server error")
	}
}
