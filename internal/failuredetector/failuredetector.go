// Package failuredetector implements the optional, best-effort
// failure cache named in spec.md §5/§9: a per-host(:port) record of
// failtime and consecutive-fail count, used to let a connection pool
// skip a peer that has been failing without an external health check.
// Absence of a backing store is not an error — every lookup against an
// empty detector is simply a miss.
// file: internal/failuredetector/failuredetector.go
package failuredetector

import (
	"strconv"
	"sync"
	"time"
)

// FailureOracle is the injectable interface a connection pool consults
// before dialing a peer. spec.md scopes any external cache backend
// (shared across processes) out of this module's core; this package
// supplies the in-process substitute.
type FailureOracle interface {
	// MarkDown records a failure for host:port observed at at.
	MarkDown(host string, port int, at time.Time)
	// IsDown reports whether host:port should currently be treated as
	// unavailable, evaluated relative to now.
	IsDown(host string, port int, now time.Time) bool
}

type record struct {
	lastFailure time.Time
	consecutive int
}

// InMemory is a process-local FailureOracle. Concurrent writers for the
// same key may race; per spec.md §5 this is acceptable because the
// down/up decision is driven by elapsed time since the last failure,
// not by the exact consecutive count — last-writer-wins never flips a
// live peer to "down" or vice versa on its own.
type InMemory struct {
	mu sync.Mutex
	m  map[string]*record

	// BackoffBase is the duration a single failure keeps a peer marked
	// down. The backoff grows linearly: BackoffBase times the number of
	// consecutive failures, capped at BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// NewInMemory returns an InMemory oracle with sensible default backoff
// bounds (1s base, 30s cap).
func NewInMemory() *InMemory {
	return &InMemory{
		m:           make(map[string]*record),
		BackoffBase: time.Second,
		BackoffMax:  30 * time.Second,
	}
}

func key(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}

func (d *InMemory) MarkDown(host string, port int, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := key(host, port)
	r, ok := d.m[k]
	if !ok {
		r = &record{}
		d.m[k] = r
	}
	if at.After(r.lastFailure) {
		r.lastFailure = at
	}
	r.consecutive++
}

// IsDown reports a miss (false) for any host:port with no recorded
// failure — the cache is optional, so absence is never treated as
// "down."
func (d *InMemory) IsDown(host string, port int, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.m[key(host, port)]
	if !ok {
		return false
	}

	backoff := d.BackoffBase * time.Duration(r.consecutive)
	if backoff > d.BackoffMax {
		backoff = d.BackoffMax
	}
	if now.Sub(r.lastFailure) >= backoff {
		return false
	}
	return true
}

var _ FailureOracle = (*InMemory)(nil)
