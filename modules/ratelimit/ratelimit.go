// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ratelimit decides whether a caller may proceed. The HTTP side lives
// in modules/middleware/ratelimit.
package ratelimit

import (
	"context"
	"time"
)

// Key identifies the caller, e.g. a remote IP. Its format is up to the key
// strategy that produced it.
type Key string

// RateLimiter enforces time based limits such as "100 requests per 60s".
type RateLimiter interface {
	Allow(ctx context.Context, key Key) (Result, error)
}

// LimiterFactory builds one limiter per configured rule.
type LimiterFactory func(limit int64, window time.Duration) RateLimiter

type Result struct {
	Allowed       bool
	Remaining     int64         // requests left in the current window
	RetryAfter    time.Duration // zero when allowed
	Limit         int64
	Window        time.Duration
	WindowResetIn time.Duration
}

// CounterStore holds the per-window counters of the sliding window limiter.
// Redis backs it in production so replicas share their counts.
type CounterStore interface {
	// Incr adds one to key and returns the new value; ttl only applies when
	// the counter is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Get reports 0 for a missing counter.
	Get(ctx context.Context, key string) (int64, error)
}
