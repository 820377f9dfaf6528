package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/models"
	"github.com/veltapay/approval-engine/internal/service"
)

// ReviewerHandler manages the automated-reviewer grant registry. All routes
// are admin-only.
type ReviewerHandler struct {
	store service.QueryStore
}

func NewReviewerHandler(store service.QueryStore) *ReviewerHandler {
	return &ReviewerHandler{store: store}
}

// UpsertGrantRequest is the grant registration body.
type UpsertGrantRequest struct {
	ReviewerID            string `json:"reviewer_id"`
	IsActive              bool   `json:"is_active"`
	CanApproveOrders      bool   `json:"can_approve_orders"`
	CanApproveWalletLoads bool   `json:"can_approve_wallet_loads"`
	CanApproveWithdrawals bool   `json:"can_approve_withdrawals"`
}

// Upsert handles PUT /v1/reviewers/{id}/grant.
func (h *ReviewerHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	reviewerID := chi.URLParam(r, "id")
	if reviewerID == "" {
		RespondError(w, r, http.StatusBadRequest, "request/missing-reviewer-id", "reviewer id is required")
		return
	}

	var req UpsertGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	grant := models.ReviewerGrant{
		ReviewerID:            reviewerID,
		IsActive:              req.IsActive,
		CanApproveOrders:      req.CanApproveOrders,
		CanApproveWalletLoads: req.CanApproveWalletLoads,
		CanApproveWithdrawals: req.CanApproveWithdrawals,
	}
	if err := h.store.Querier().UpsertReviewerGrant(r.Context(), grant); err != nil {
		zap.L().Error("upsert reviewer grant failed", zap.Error(err), zap.String("reviewer_id", reviewerID))
		RespondError(w, r, http.StatusInternalServerError, "reviewer/upsert-failed", "Failed to store grant")
		return
	}

	RespondJSON(w, http.StatusOK, grant)
}

// Get handles GET /v1/reviewers/{id}/grant.
func (h *ReviewerHandler) Get(w http.ResponseWriter, r *http.Request) {
	reviewerID := chi.URLParam(r, "id")

	grant, err := h.store.Querier().GetReviewerGrant(r.Context(), reviewerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "reviewer/not-found", "Reviewer has no grant")
			return
		}
		zap.L().Error("get reviewer grant failed", zap.Error(err), zap.String("reviewer_id", reviewerID))
		RespondError(w, r, http.StatusInternalServerError, "reviewer/lookup-failed", "Failed to load grant")
		return
	}

	RespondJSON(w, http.StatusOK, grant)
}
