package legislation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// StatusConnected means the primary endpoint is active.
	StatusConnected = "connected"
	// StatusFallback means consecutive primary failures have reached
	// the threshold and the fallback endpoint is active.
	StatusFallback = "fallback"
)

// HealthManager tracks which of a primary/fallback pair of legislation
// endpoints is active, grounded on
// original_source/backend/src/yourai/knowledge/lex_health.py's
// LexHealthManager (active_url, consecutive-failure counter,
// force_primary) per spec.md §4.3's state machine. The
// consecutive-failure bookkeeping is delegated to
// github.com/sony/gobreaker rather than a hand-rolled counter: a
// ReadyToTrip threshold of maxFailures opens the breaker (fallback
// active), and a near-zero Timeout means the very next probe re-tries
// the primary as a half-open trial, matching the spec's "single
// success from fallback flips back to primary" rule.
//
// HealthManager is intended to be constructed once per process and
// shared (spec.md §9's global-state note): every consumer obtains a
// client bound to whichever endpoint is active at call time via
// Factory, rather than each holding its own failure count.
type HealthManager struct {
	mu          sync.RWMutex
	primaryURL  string
	fallbackURL string
	maxFailures int
	usingFallback bool

	cb      *gobreaker.CircuitBreaker
	checkFn func(ctx context.Context, baseURL string) error
	logger  *slog.Logger
}

// NewHealthManager constructs a HealthManager starting on primaryURL.
// checkFn probes a base URL and returns a non-nil error on failure; when
// nil, it defaults to calling Client.HealthCheck against primaryURL.
func NewHealthManager(primaryURL, fallbackURL string, maxFailures int, checkFn func(ctx context.Context, baseURL string) error) *HealthManager {
	if maxFailures < 1 {
		maxFailures = 3
	}
	if checkFn == nil {
		checkFn = func(ctx context.Context, baseURL string) error {
			_, err := NewClient(baseURL, DefaultTimeout).HealthCheck(ctx)
			return err
		}
	}
	hm := &HealthManager{
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
		maxFailures: maxFailures,
		checkFn:     checkFn,
		logger:      slog.With("component", "legislation.health"),
	}
	hm.cb = hm.newBreaker()
	return hm
}

func (h *HealthManager) newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "legislation-primary",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     time.Nanosecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(h.maxFailures)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			h.mu.Lock()
			defer h.mu.Unlock()
			switch to {
			case gobreaker.StateOpen:
				h.usingFallback = true
				h.logger.Warn("legislation primary unhealthy, switching to fallback", "from", from.String())
			case gobreaker.StateClosed:
				h.usingFallback = false
				h.logger.Info("legislation primary recovered, switching back from fallback")
			}
		},
	})
}

// CheckHealth probes the primary endpoint and updates failover state.
// It returns true iff the probe succeeded.
func (h *HealthManager) CheckHealth(ctx context.Context) bool {
	h.mu.RLock()
	cb := h.cb
	primary := h.primaryURL
	h.mu.RUnlock()

	_, err := cb.Execute(func() (any, error) {
		return nil, h.checkFn(ctx, primary)
	})
	return err == nil
}

// ActiveURL returns the currently active endpoint.
func (h *HealthManager) ActiveURL() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.usingFallback {
		return h.fallbackURL
	}
	return h.primaryURL
}

// IsUsingFallback reports whether the fallback endpoint is active.
func (h *HealthManager) IsUsingFallback() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.usingFallback
}

// Status returns StatusConnected or StatusFallback.
func (h *HealthManager) Status() string {
	if h.IsUsingFallback() {
		return StatusFallback
	}
	return StatusConnected
}

// ForcePrimary is the administrative override named in spec.md §4.3: it
// immediately switches back to the primary endpoint and resets the
// failure count, regardless of recent health-check history. Since
// gobreaker exposes no manual reset, the underlying breaker is replaced
// with a fresh instance.
func (h *HealthManager) ForcePrimary() {
	h.mu.Lock()
	h.usingFallback = false
	h.cb = h.newBreaker()
	h.mu.Unlock()

	h.logger.Info("legislation health manager forced back to primary")
}
