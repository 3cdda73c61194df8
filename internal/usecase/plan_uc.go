package usecase

import (
	"context"

	"github.com/google/uuid"

	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

type PlanUseCase interface {
	Create(ctx context.Context, name, slug string, price int64, duration, description string) (*model.Plan, error)
	FindBySlug(ctx context.Context, slug string) (*model.Plan, error)
	ListAll(ctx context.Context) ([]*model.Plan, error)
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (uc *planUC) Create(ctx context.Context, name, slug string, price int64, duration, description string) (*model.Plan, error) {
	plan, err := model.NewPlan(uuid.NewString(), name, slug, price, duration, description)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (uc *planUC) FindBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	return uc.plans.FindBySlug(ctx, slug)
}

func (uc *planUC) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return uc.plans.ListAll(ctx)
}
