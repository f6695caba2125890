package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// LimitConfig allows Max requests per Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy lists the limits applied to each scope.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy is tuned for a read-heavy shortener: generous reads, tight writes.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeGlobal: {{Window: time.Minute, Max: 2000}},
			ScopeRead:   {{Window: time.Minute, Max: 1000}},
			ScopeWrite:  {{Window: time.Minute, Max: 20}, {Window: time.Hour, Max: 200}},
		},
	}
}

// LimitExceeded describes the first limit a request broke.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// PolicyLimiter enforces a Policy against a Store.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request against every limit of every scope and reports
// whether all of them still hold. exceeded is nil when allowed.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

			count, err := l.store.Record(ctx, key, limit.Window)
			if err != nil {
				return false, nil, err
			}

			if count > limit.Max {
				return false, &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
			}
		}
	}

	return true, nil, nil
}

// AllowLimits records the request against an explicit set of limits that
// replace the policy for one route. route keeps the counters separate from
// the policy scopes.
func (l *PolicyLimiter) AllowLimits(ctx context.Context, clientKey, route string, limits []LimitConfig) (bool, *LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:custom:%s:%d", clientKey, route, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return false, nil, err
		}

		if count > limit.Max {
			return false, &LimitExceeded{Scope: ScopeCustom, Config: limit, Count: count}, nil
		}
	}

	return true, nil, nil
}
