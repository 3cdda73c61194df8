package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.PendingPurchaseRepository = (*PendingPurchaseRepo)(nil)

// PendingPurchaseRepo keeps in-flight purchases in Redis so the webhook
// handler can resolve them on any instance. Entries carry a TTL well past
// the confirmation window; an entry outliving it means no callback ever came.
type PendingPurchaseRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewPendingPurchaseRepo(client RedisClient) *PendingPurchaseRepo {
	return &PendingPurchaseRepo{
		client: client,
		ttl:    15 * time.Minute,
	}
}

func (r *PendingPurchaseRepo) key(checkoutRequestID string) string {
	return "pending_purchase:" + checkoutRequestID
}

func (r *PendingPurchaseRepo) Set(ctx context.Context, checkoutRequestID string, p *model.PendingPurchase) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(checkoutRequestID), data, r.ttl)
}

func (r *PendingPurchaseRepo) Find(ctx context.Context, checkoutRequestID string) (*model.PendingPurchase, error) {
	data, err := r.client.Get(ctx, r.key(checkoutRequestID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var p model.PendingPurchase
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PendingPurchaseRepo) Delete(ctx context.Context, checkoutRequestID string) error {
	return r.client.Del(ctx, r.key(checkoutRequestID))
}
