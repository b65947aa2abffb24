package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Policy defines the throttling parameters for one traffic surface.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// NewPolicy builds a policy with the supplied window and limit.
func NewPolicy(name string, limit int, window time.Duration) Policy {
	return Policy{
		Name:   strings.ToLower(strings.TrimSpace(name)),
		Limit:  limit,
		Window: window,
	}
}

// Enabled reports whether the policy throttles at all.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

func (p Policy) normalizedName() string {
	if p.Name == "" {
		return "default"
	}
	return p.Name
}

// Limiter bounds the request rate for a caller identity under a policy.
// Implementations must treat a false result as "reject with 429", never as
// an error condition.
type Limiter interface {
	Allow(ctx context.Context, policy Policy, identity string) (bool, error)
}

// SlidingWindow is an in-process strict sliding-window limiter. Per
// identity it keeps the timestamps of accepted requests inside the
// trailing window; entries older than the window stop counting entirely,
// and rejected attempts are never recorded, so a retry a moment later is
// judged against the same count until old entries fall out.
//
// State is process-local: each instance enforces independently, so a
// horizontally scaled deployment under-enforces by the instance count.
// Use the redis FixedWindow limiter when that matters.
type SlidingWindow struct {
	mu      sync.Mutex
	entries map[string][]int64
	now     func() time.Time
}

// NewSlidingWindow constructs an empty in-memory limiter.
func NewSlidingWindow() *SlidingWindow {
	return &SlidingWindow{
		entries: make(map[string][]int64),
		now:     time.Now,
	}
}

// Allow records and accepts the call unless the identity already has
// Limit accepted calls inside the trailing window. It never returns an
// error; the signature matches Limiter.
func (s *SlidingWindow) Allow(_ context.Context, policy Policy, identity string) (bool, error) {
	if !policy.Enabled() {
		return true, nil
	}

	key := policy.normalizedName() + ":" + identity
	now := s.now().UnixMilli()
	windowStart := now - policy.Window.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	timestamps := s.entries[key]

	kept := timestamps[:0]
	for _, t := range timestamps {
		if t > windowStart {
			kept = append(kept, t)
		}
	}

	if len(kept) >= policy.Limit {
		s.entries[key] = kept
		return false, nil
	}

	s.entries[key] = append(kept, now)
	return true, nil
}

// Len reports the number of tracked identities. Stale identities linger
// until touched again; acceptable for the admin-scale traffic this guards.
func (s *SlidingWindow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// FixedWindow is a redis-backed fixed-window limiter shared across
// instances. Coarser than the sliding window (counts reset at window
// boundaries) but enforced fleet-wide.
type FixedWindow struct {
	store counterStore
}

// NewFixedWindow constructs a limiter on the provided redis counter store.
func NewFixedWindow(store counterStore) (*FixedWindow, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	return &FixedWindow{store: store}, nil
}

// Allow increments the identity's window counter and compares to the limit.
func (f *FixedWindow) Allow(ctx context.Context, policy Policy, identity string) (bool, error) {
	if !policy.Enabled() {
		return true, nil
	}
	key := f.store.RateLimitKey(policy.normalizedName(), identity)
	count, err := f.store.IncrWithTTL(ctx, key, policy.Window)
	if err != nil {
		return false, err
	}
	return count <= int64(policy.Limit), nil
}
