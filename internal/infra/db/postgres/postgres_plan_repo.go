package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, plan *model.Plan) error {
	const q = `
INSERT INTO plans (id, name, slug, price, duration, description)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := r.pool.Exec(ctx, q, plan.ID, plan.Name, plan.Slug, plan.Price, plan.Duration, plan.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on slug
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	const q = `SELECT id, name, slug, price, duration, description FROM plans WHERE slug=$1;`
	p := &model.Plan{}
	err := r.pool.QueryRow(ctx, q, slug).Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.Duration, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrOperationFailed
	}
	return p, nil
}

func (r *planRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	const q = `SELECT id, name, slug, price, duration, description FROM plans ORDER BY price ASC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p := &model.Plan{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &p.Duration, &p.Description); err != nil {
			return nil, domain.ErrOperationFailed
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
