package legislation

import "time"

// Factory hands out a Client bound to whichever endpoint is active at
// call time, per spec.md §4.3: "every consumer obtains a fresh client
// bound to active at call time" rather than caching a client across a
// failover.
type Factory struct {
	health  *HealthManager
	timeout time.Duration
}

// NewFactory constructs a Factory over the given HealthManager.
func NewFactory(health *HealthManager, timeout time.Duration) *Factory {
	return &Factory{health: health, timeout: timeout}
}

// Client returns a Client bound to the currently active endpoint.
func (f *Factory) Client() *Client {
	return NewClient(f.health.ActiveURL(), f.timeout)
}
