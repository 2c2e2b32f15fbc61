package booking

import (
	"context"
	"time"

	"github.com/orentclinic/booking-bot/internal/observability/metrics"
	"github.com/orentclinic/booking-bot/pkg/logging"
)

// DefaultSessionTTL is how long an inactive conversation survives before the
// sweep evicts it.
const DefaultSessionTTL = 30 * time.Minute

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = time.Minute

// Sweeper periodically evicts inactive sessions and expired slot holds.
// Evicting a session releases any hold it still owns first, so abandoned
// conversations never pin a slot past the session timeout.
type Sweeper struct {
	sessions     SessionStore
	reservations ReservationStore
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	sessionTTL   time.Duration
	interval     time.Duration
	now          func() time.Time
}

// NewSweeper creates a sweeper. Non-positive durations fall back to the
// defaults.
func NewSweeper(sessions SessionStore, reservations ReservationStore, m *metrics.BookingMetrics, logger *logging.Logger, sessionTTL, interval time.Duration) *Sweeper {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		sessions:     sessions,
		reservations: reservations,
		metrics:      m,
		logger:       logger,
		sessionTTL:   sessionTTL,
		interval:     interval,
		now:          time.Now,
	}
}

// WithClock injects a clock for tests and returns the sweeper.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs a single eviction pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.now()

	expired := func(sess Session) bool {
		if now.Sub(sess.LastActivityAt) > s.sessionTTL {
			return true
		}
		// A hold older than the session TTL is stale even if the user keeps
		// the conversation alive with invalid input.
		return !sess.ReservedAt.IsZero() && now.Sub(sess.ReservedAt) > s.sessionTTL
	}

	var stale []string
	s.sessions.Range(func(userID string, sess Session) bool {
		if expired(sess) {
			stale = append(stale, userID)
		}
		return true
	})
	removed := 0
	for _, userID := range stale {
		sess, ok := s.sessions.Lookup(userID)
		if !ok {
			// The session vanished between the scan and the eviction.
			continue
		}
		if !expired(sess) {
			// Activity arrived between the scan and the eviction.
			continue
		}
		if sess.HasReservation() {
			if err := s.reservations.Release(ctx, sess.ReservationKeyFor()); err != nil {
				s.logger.Error("failed to release reservation for stale session", "user_id", userID, "error", err)
			}
		}
		s.sessions.Delete(userID)
		removed++
		s.logger.Info("evicted inactive booking session", "user_id", userID, "step", sess.Step)
	}
	s.metrics.ObserveSweepEviction("session", removed)

	evicted := s.reservations.Sweep(ctx, now)
	s.metrics.ObserveSweepEviction("reservation", evicted)
	if evicted > 0 {
		s.logger.Info("evicted expired slot holds", "count", evicted)
	}
}
