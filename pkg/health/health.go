// Package health serves liveness and readiness probes. Checks run in the
// background on an interval; probe handlers only read the latest results, so
// a slow dependency can never slow down the probe endpoint itself.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// failureThreshold consecutive failures mark a check unhealthy; one success
// marks it healthy again. This keeps a single transient error from flapping
// the probe.
const failureThreshold = 3

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
	fails   int
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.fails++
		if c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.healthy.Store(true)
}

func (c *check) errText() string {
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error()
	}
	return ""
}

// Service runs health checks and serves their results.
type Service struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New creates a Service. It reports not-ready until SetReady(true).
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a process-level check, like goroutine count.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a dependency check, like a database ping.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newCheck(name, timeout, fn))
}

func newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)
	return c
}

// SetReady flips the overall readiness gate. Dependency checks still apply.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start runs every registered check on the interval until Stop or ctx
// cancellation. Each check also runs once immediately.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	checks := append(append([]*check(nil), s.liveness...), s.readiness...)
	s.mu.Unlock()

	for _, c := range checks {
		go func(c *check) {
			c.run(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop halts the background check goroutines.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

type probeResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveHandler serves the liveness probe.
func (s *Service) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		checks := append([]*check(nil), s.liveness...)
		s.mu.Unlock()
		writeProbe(w, checks, true)
	})
}

// ReadyHandler serves the readiness probe. It fails while SetReady(false)
// regardless of check results, so deploys can drain traffic first.
func (s *Service) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		checks := append([]*check(nil), s.readiness...)
		s.mu.Unlock()
		writeProbe(w, checks, s.ready.Load())
	})
}

func writeProbe(w http.ResponseWriter, checks []*check, gate bool) {
	result := probeResult{Status: "ok", Checks: make(map[string]string, len(checks))}
	healthy := gate
	for _, c := range checks {
		if c.healthy.Load() {
			result.Checks[c.name] = "ok"
			continue
		}
		healthy = false
		msg := c.errText()
		if msg == "" {
			msg = "unhealthy"
		}
		result.Checks[c.name] = msg
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		result.Status = "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
