package sched

import (
	"context"
	"sync"
	"time"

	"captive-wifi-billing/internal/domain/ports/adapter"
	"captive-wifi-billing/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.RevocationScheduler = (*AccessRevoker)(nil)

// AccessRevoker holds one one-shot revocation timer per user. Timers live in
// process memory only; a restart loses them.
type AccessRevoker struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	network adapter.NetworkController
	log     *zerolog.Logger
}

func NewAccessRevoker(network adapter.NetworkController, logger *zerolog.Logger) *AccessRevoker {
	revLog := logger.With().Str("component", "AccessRevoker").Logger()
	return &AccessRevoker{
		timers:  make(map[string]*time.Timer),
		network: network,
		log:     &revLog,
	}
}

// Schedule registers a revocation for the user at now + after, cancelling any
// prior registration for the same user.
func (s *AccessRevoker) Schedule(userID, mac, ip string, after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[userID]; ok {
		prev.Stop()
		s.log.Info().Str("user_id", userID).Msg("superseding scheduled revocation")
	}

	var t *time.Timer
	t = time.AfterFunc(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.network.Revoke(ctx, mac, ip); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Str("ip", ip).Msg("scheduled revocation failed")
		} else {
			s.log.Info().Str("user_id", userID).Str("ip", ip).Msg("access revoked on expiry")
		}
		metrics.IncRevocationFired()

		s.mu.Lock()
		if s.timers[userID] == t {
			delete(s.timers, userID)
		}
		s.mu.Unlock()
	})
	s.timers[userID] = t
	metrics.IncRevocationScheduled()
	s.log.Info().Str("user_id", userID).Dur("after", after).Msg("revocation scheduled")
}

// Cancel drops the user's pending revocation, reporting whether one existed.
func (s *AccessRevoker) Cancel(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[userID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, userID)
	return true
}

// Stop cancels every pending timer. Used on shutdown.
func (s *AccessRevoker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, t := range s.timers {
		t.Stop()
		delete(s.timers, userID)
	}
}
