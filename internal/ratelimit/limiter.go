package ratelimit

import (
	"sync"
	"time"

	"DivTracker/internal/model"
)

// Window describes a provider's fixed-window quota.
type Window struct {
	Quota  int
	Length time.Duration
}

// ProviderStatus is a point-in-time view of one provider's counter.
type ProviderStatus struct {
	Provider model.Provider `json:"provider"`
	Requests int            `json:"requests"`
	Quota    int            `json:"quota"`
	ResetAt  time.Time      `json:"resetAt"`
}

type counter struct {
	requests int
	resetAt  time.Time
}

// Limiter tracks request counts per provider inside fixed rolling windows.
// Counters are process-lifetime only; a restart resets them, which is
// acceptable because the limiter exists to avoid burning free-tier quotas,
// not to enforce a hard external contract.
type Limiter struct {
	mu       sync.Mutex
	now      func() time.Time
	windows  map[model.Provider]Window
	counters map[model.Provider]*counter
}

// New creates a Limiter with the given per-provider windows.
func New(windows map[model.Provider]Window) *Limiter {
	return NewWithClock(windows, time.Now)
}

// NewWithClock creates a Limiter with an injectable clock for tests.
func NewWithClock(windows map[model.Provider]Window, now func() time.Time) *Limiter {
	l := &Limiter{
		now:      now,
		windows:  windows,
		counters: make(map[model.Provider]*counter, len(windows)),
	}
	for p, w := range windows {
		l.counters[p] = &counter{resetAt: now().Add(w.Length)}
	}
	return l
}

// refresh resets the counter when the current window has elapsed.
// Caller must hold the mutex.
func (l *Limiter) refresh(p model.Provider) *counter {
	c, ok := l.counters[p]
	if !ok {
		return nil
	}
	if now := l.now(); !now.Before(c.resetAt) {
		c.requests = 0
		c.resetAt = now.Add(l.windows[p].Length)
	}
	return c
}

// CanRequest reports whether the provider still has quota in the current
// window. Unknown providers are always denied.
func (l *Limiter) CanRequest(p model.Provider) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.refresh(p)
	if c == nil {
		return false
	}
	return c.requests < l.windows[p].Quota
}

// Record counts one attempted request against the provider's window. Callers
// record immediately before issuing the network call.
func (l *Limiter) Record(p model.Provider) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c := l.refresh(p); c != nil {
		c.requests++
	}
}

// Status returns the current counter state for every configured provider.
func (l *Limiter) Status() []ProviderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make([]ProviderStatus, 0, len(l.counters))
	for p := range l.counters {
		c := l.refresh(p)
		statuses = append(statuses, ProviderStatus{
			Provider: p,
			Requests: c.requests,
			Quota:    l.windows[p].Quota,
			ResetAt:  c.resetAt,
		})
	}
	return statuses
}
