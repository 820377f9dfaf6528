package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/veltapay/approval-engine/internal/domain"
	"github.com/veltapay/approval-engine/internal/models"
	"github.com/veltapay/approval-engine/internal/repository"
)

// PermissionValidator decides whether an actor may act on a subject.
// Unknown actor kinds and missing grants are denied, never allowed.
type PermissionValidator struct{}

func NewPermissionValidator() *PermissionValidator {
	return &PermissionValidator{}
}

// Authorize returns nil when the actor may decide the given subject,
// models.ErrPermissionDenied otherwise. Lookups run inside the caller's
// transaction so grant revocations are seen under the same snapshot as
// the decision itself.
func (v *PermissionValidator) Authorize(ctx context.Context, q repository.Querier, actor domain.Actor, order *models.Order) error {
	switch a := actor.(type) {
	case domain.Admin:
		return nil
	case domain.AutomatedReviewer:
		grant, err := q.GetReviewerGrant(ctx, a.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				zap.L().Warn("automated reviewer has no grant",
					zap.String("reviewer_id", a.ID),
					zap.String("subject_id", order.ID.String()),
				)
				return models.ErrPermissionDenied
			}
			return fmt.Errorf("load reviewer grant: %w", err)
		}
		category := domain.CategoryFor(order.Kind, order.Type)
		if !grant.Allows(category) {
			return models.ErrPermissionDenied
		}
		return nil
	default:
		return models.ErrPermissionDenied
	}
}
