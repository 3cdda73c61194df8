package router

import (
	"context"
	"fmt"
	"sync"

	"captive-wifi-billing/internal/config"
	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/ports/adapter"

	routeros "github.com/go-routeros/routeros/v3"
	"github.com/rs/zerolog"
)

var _ adapter.NetworkController = (*MikrotikController)(nil)

const (
	allowList = "whitelist"
	denyList  = "blacklist"
)

// apiConn is the slice of the RouterOS API the controller needs. Replies are
// flattened to attribute maps, one per returned sentence.
type apiConn interface {
	Run(sentence ...string) ([]map[string]string, error)
	Close() error
}

type rosConn struct {
	cli *routeros.Client
}

func (c *rosConn) Run(sentence ...string) ([]map[string]string, error) {
	reply, err := c.cli.Run(sentence...)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]string, 0, len(reply.Re))
	for _, re := range reply.Re {
		out = append(out, re.Map)
	}
	return out, nil
}

func (c *rosConn) Close() error {
	c.cli.Close()
	return nil
}

// MikrotikController moves client IPs between the gateway's allow and deny
// address lists. The API connection is dialed on first use and reused; a
// failed call drops it so the next call redials.
type MikrotikController struct {
	mu   sync.Mutex
	conn apiConn
	dial func() (apiConn, error)
	log  *zerolog.Logger
}

func NewMikrotikController(cfg *config.RouterConfig, logger *zerolog.Logger) *MikrotikController {
	ctrlLog := logger.With().Str("component", "MikrotikController").Logger()
	address, username, password := cfg.Address, cfg.Username, cfg.Password
	return &MikrotikController{
		dial: func() (apiConn, error) {
			cli, err := routeros.Dial(address, username, password)
			if err != nil {
				return nil, err
			}
			return &rosConn{cli: cli}, nil
		},
		log: &ctrlLog,
	}
}

// Grant allows the client's traffic.
func (m *MikrotikController) Grant(ctx context.Context, mac, ip string) error {
	return m.setList(ctx, allowList, mac, ip)
}

// Revoke denies the client's traffic.
func (m *MikrotikController) Revoke(ctx context.Context, mac, ip string) error {
	return m.setList(ctx, denyList, mac, ip)
}

// setList removes every existing address-list entry for ip, then inserts a
// fresh entry into the target list. Remove-then-add keeps the call idempotent
// and guarantees no address sits on both lists.
func (m *MikrotikController) setList(ctx context.Context, list, mac, ip string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conn, err := m.ensureConnected()
	if err != nil {
		m.log.Error().Err(err).Str("ip", ip).Msg("gateway connection failed")
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnreachable, err)
	}

	entries, err := conn.Run("/ip/firewall/address-list/print", "?address="+ip)
	if err != nil {
		return m.fail(err, "list entries", ip)
	}
	for _, entry := range entries {
		id := entry[".id"]
		if id == "" {
			continue
		}
		if _, err := conn.Run("/ip/firewall/address-list/remove", "=.id="+id); err != nil {
			return m.fail(err, "remove entry", ip)
		}
	}

	_, err = conn.Run("/ip/firewall/address-list/add",
		"=list="+list,
		"=address="+ip,
		"=comment=MAC:"+mac,
	)
	if err != nil {
		return m.fail(err, "add entry", ip)
	}

	m.log.Info().Str("list", list).Str("ip", ip).Str("mac", mac).Msg("address list updated")
	return nil
}

func (m *MikrotikController) ensureConnected() (apiConn, error) {
	if m.conn != nil {
		return m.conn, nil
	}
	conn, err := m.dial()
	if err != nil {
		return nil, err
	}
	m.conn = conn
	return conn, nil
}

// fail drops the cached connection so the next call redials.
func (m *MikrotikController) fail(err error, op, ip string) error {
	m.log.Error().Err(err).Str("op", op).Str("ip", ip).Msg("gateway command failed")
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrGatewayUnreachable, op, err)
}

// Close releases the API connection if one was established.
func (m *MikrotikController) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}
