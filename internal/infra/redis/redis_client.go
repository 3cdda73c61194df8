package redis

import (
	"context"
	"time"

	"captive-wifi-billing/internal/config"

	"github.com/go-redis/redis/v8"
)

// Subscription is a live pub/sub subscription on a single channel.
type Subscription interface {
	// Messages delivers raw payloads. The channel is closed when the
	// subscription is closed.
	Messages() <-chan string
	Close() error
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	// Publish returns the number of subscribers that received the payload.
	Publish(ctx context.Context, channel string, payload interface{}) (int64, error)
	// Subscribe returns once the subscription is established, so a publish
	// issued after it cannot be missed.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Close() error
}

var _ RedisClient = (*Client)(nil)

type Client struct {
	cli *redis.Client
}

func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{cli: c}, nil
}

func (c *Client) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.cli.SetNX(ctx, key, value, expiration).Result()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.cli.Get(ctx, key).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

func (c *Client) Publish(ctx context.Context, channel string, payload interface{}) (int64, error) {
	return c.cli.Publish(ctx, channel, payload).Result()
}

func (c *Client) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := c.cli.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	sub := &pubSub{ps: ps, out: make(chan string, 1)}
	go sub.pump()
	return sub, nil
}

func (c *Client) Close() error { return c.cli.Close() }

type pubSub struct {
	ps  *redis.PubSub
	out chan string
}

func (s *pubSub) pump() {
	defer close(s.out)
	for m := range s.ps.Channel() {
		select {
		case s.out <- m.Payload:
		default:
			// Single waiter per channel; a duplicate publish after the
			// first was consumed has no one left to serve.
		}
	}
}

func (s *pubSub) Messages() <-chan string { return s.out }

func (s *pubSub) Close() error { return s.ps.Close() }
