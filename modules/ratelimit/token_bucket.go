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

package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"uiconfig/modules/clock"

	"golang.org/x/time/rate"
)

var _ RateLimiter = (*TokenBucketRateLimiter)(nil)

// maxIdleBuckets bounds the per-key map. Beyond it, buckets that have fully
// refilled are dropped since a fresh bucket behaves the same.
const maxIdleBuckets = 10_000

// TokenBucketRateLimiter keeps one in-process bucket per key. Limits are per
// replica, use the sliding window backend to share them.
type TokenBucketRateLimiter struct {
	clock clock.Clock

	limit  int64
	window time.Duration
	every  rate.Limit

	mu      sync.Mutex
	buckets map[Key]*rate.Limiter
}

func TokenBucketFactory(c clock.Clock) LimiterFactory {
	return func(limit int64, window time.Duration) RateLimiter {
		return NewTokenBucketRateLimiter(c, limit, window)
	}
}

func NewTokenBucketRateLimiter(c clock.Clock, limit int64, window time.Duration) *TokenBucketRateLimiter {
	limit = max(limit, 0)
	return &TokenBucketRateLimiter{
		clock:   c,
		limit:   limit,
		window:  window,
		every:   rate.Limit(float64(limit) / window.Seconds()),
		buckets: make(map[Key]*rate.Limiter),
	}
}

func (t *TokenBucketRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	now := t.clock.Now()
	lim := t.bucket(key, now)

	res := Result{Limit: t.limit, Window: t.window}

	r := lim.ReserveN(now, 1)
	switch delay := r.DelayFrom(now); {
	case !r.OK():
		res.RetryAfter = t.window
	case delay > 0:
		r.CancelAt(now)
		res.RetryAfter = delay
	default:
		res.Allowed = true
	}

	tokens := lim.TokensAt(now)
	res.Remaining = int64(math.Max(math.Floor(tokens), 0))
	res.WindowResetIn = t.refillIn(tokens)
	return res, nil
}

func (t *TokenBucketRateLimiter) bucket(key Key, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lim, ok := t.buckets[key]; ok {
		return lim
	}
	if len(t.buckets) >= maxIdleBuckets {
		for k, lim := range t.buckets {
			if lim.TokensAt(now) >= float64(t.limit) {
				delete(t.buckets, k)
			}
		}
	}
	lim := rate.NewLimiter(t.every, int(min(t.limit, math.MaxInt32)))
	t.buckets[key] = lim
	return lim
}

// refillIn is how long until the bucket is full again.
func (t *TokenBucketRateLimiter) refillIn(tokens float64) time.Duration {
	missing := float64(t.limit) - tokens
	if missing <= 0 || t.every <= 0 {
		return 0
	}
	return time.Duration(missing / float64(t.every) * float64(time.Second))
}
