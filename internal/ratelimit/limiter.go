// Package ratelimit implements an adaptive per-source throttle. Each source
// keeps a sliding 60-second request window capped at a per-minute budget plus
// a minimum inter-request delay that backs off multiplicatively on errors and
// decays gradually on success.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	windowLength = time.Minute

	// decayFactor shrinks currentDelay toward the minimum after a success
	// instead of resetting it instantly, which would oscillate against a
	// still-struggling source.
	decayFactor = 0.75
)

// Profile configures throttling for one source.
type Profile struct {
	RequestsPerMinute int
	MinDelay          time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultProfile is applied to sources without explicit configuration.
func DefaultProfile() Profile {
	return Profile{
		RequestsPerMinute: 30,
		MinDelay:          time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        time.Minute,
	}
}

// Status is a read-only snapshot of one source's limiter state. CurrentDelay
// is mirrored into CurrentDelayMs because time.Duration marshals as
// nanoseconds.
type Status struct {
	CurrentDelay      time.Duration `json:"-"`
	CurrentDelayMs    int64         `json:"current_delay_ms"`
	ConsecutiveErrors int           `json:"consecutive_errors"`
	RequestsInWindow  int           `json:"requests_in_window"`
}

// sourceState is the per-source mutable state. It is created lazily on first
// use and lives until process exit; it is never persisted.
type sourceState struct {
	mu                sync.Mutex
	lastRequest       time.Time
	currentDelay      time.Duration
	windowStart       time.Time
	requestsInWindow  int
	consecutiveErrors int
}

// Limiter owns all per-source state. One instance per process, constructed at
// startup and handed to every strategy.
type Limiter struct {
	mu             sync.RWMutex
	profiles       map[string]Profile
	defaultProfile Profile
	states         map[string]*sourceState

	// overridable in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter with per-source profiles. Sources missing from
// profiles fall back to defaultProfile.
func New(defaultProfile Profile, profiles map[string]Profile) *Limiter {
	if defaultProfile.RequestsPerMinute <= 0 {
		defaultProfile = DefaultProfile()
	}
	return &Limiter{
		profiles:       profiles,
		defaultProfile: defaultProfile,
		states:         make(map[string]*sourceState),
		now:            time.Now,
		sleep:          sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) profile(source string) Profile {
	if p, ok := l.profiles[source]; ok && p.RequestsPerMinute > 0 {
		return p
	}
	return l.defaultProfile
}

// state returns the lazily created state for source. Each state has its own
// lock, so one source's wait never blocks another source.
func (l *Limiter) state(source string) *sourceState {
	l.mu.RLock()
	st, ok := l.states[source]
	l.mu.RUnlock()
	if ok {
		return st
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok = l.states[source]; ok {
		return st
	}
	st = &sourceState{
		currentDelay: l.profile(source).MinDelay,
		windowStart:  l.now(),
	}
	l.states[source] = st
	return st
}

// Throttle blocks until the source may be hit again: first waits out the
// per-minute window when its budget is exhausted, then enforces the minimum
// inter-request delay. Waits happen with the state unlocked so Status and the
// record calls never stall behind a sleeping crawl; the loop re-checks the
// state after every wait. Returns early with the context error on
// cancellation.
func (l *Limiter) Throttle(ctx context.Context, source string) error {
	p := l.profile(source)
	st := l.state(source)

	st.mu.Lock()
	for {
		now := l.now()

		// Roll the window forward if it has expired.
		if now.Sub(st.windowStart) >= windowLength {
			st.windowStart = now
			st.requestsInWindow = 0
		}

		var wait time.Duration
		switch {
		case st.requestsInWindow >= p.RequestsPerMinute:
			// Window budget exhausted: wait for the window to reset.
			wait = windowLength - now.Sub(st.windowStart)
		case !st.lastRequest.IsZero():
			// Enforce minimum spacing since the last request.
			if elapsed := now.Sub(st.lastRequest); elapsed < st.currentDelay {
				wait = st.currentDelay - elapsed
			}
		}

		if wait <= 0 {
			st.lastRequest = now
			st.requestsInWindow++
			st.mu.Unlock()
			return nil
		}

		st.mu.Unlock()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		st.mu.Lock()
	}
}

// RecordSuccess resets the error counter and decays the delay toward the
// configured minimum.
func (l *Limiter) RecordSuccess(source string) {
	p := l.profile(source)
	st := l.state(source)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.consecutiveErrors = 0
	decayed := time.Duration(float64(st.currentDelay) * decayFactor)
	if decayed < p.MinDelay {
		decayed = p.MinDelay
	}
	st.currentDelay = decayed
}

// RecordError multiplies the delay by the backoff multiplier, capped at the
// profile maximum, and bumps the consecutive error counter.
func (l *Limiter) RecordError(source string) {
	p := l.profile(source)
	st := l.state(source)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.consecutiveErrors++
	backed := time.Duration(float64(st.currentDelay) * p.BackoffMultiplier)
	if backed > p.MaxBackoff {
		backed = p.MaxBackoff
	}
	st.currentDelay = backed
}

// Status returns a snapshot of the source's limiter state.
func (l *Limiter) Status(source string) Status {
	st := l.state(source)

	st.mu.Lock()
	defer st.mu.Unlock()

	requests := st.requestsInWindow
	if l.now().Sub(st.windowStart) >= windowLength {
		requests = 0
	}
	return Status{
		CurrentDelay:      st.currentDelay,
		CurrentDelayMs:    st.currentDelay.Milliseconds(),
		ConsecutiveErrors: st.consecutiveErrors,
		RequestsInWindow:  requests,
	}
}
