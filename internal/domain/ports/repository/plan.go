package repository

import (
	"context"

	"captive-wifi-billing/internal/domain/model"
)

// PlanRepository is the port for plan catalog persistence.
type PlanRepository interface {
	Save(ctx context.Context, plan *model.Plan) error
	FindBySlug(ctx context.Context, slug string) (*model.Plan, error)
	ListAll(ctx context.Context) ([]*model.Plan, error)
}
