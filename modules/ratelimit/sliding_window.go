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
	"fmt"
	"math/bits"
	"time"

	"uiconfig/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a rolling window from two fixed
// windows: the full count of the current one plus the previous one weighted
// by how much of it still overlaps the rolling window.
type SlidingWindowRateLimiter struct {
	clock     clock.Clock
	counter   CounterStore
	keyPrefix string

	limit  uint64
	window time.Duration
}

func SlidingWindowFactory(c clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(limit int64, window time.Duration) RateLimiter {
		return &SlidingWindowRateLimiter{
			clock:     c,
			counter:   counter,
			keyPrefix: keyPrefix,
			limit:     uint64(max(limit, 0)),
			window:    window,
		}
	}
}

func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	windowNs := s.window.Nanoseconds()
	nowNs := s.clock.Now().UnixNano()
	idx := nowNs / windowNs

	// counters live for two windows so the previous one is still readable
	cur, err := s.counter.Incr(ctx, s.buildKey(key, idx), 2*s.window)
	if err != nil {
		return Result{}, err
	}
	prev, err := s.counter.Get(ctx, s.buildKey(key, idx-1))
	if err != nil {
		return Result{}, err
	}

	elapsed := min(max(nowNs-idx*windowNs, 0), windowNs)
	resetIn := s.window - time.Duration(elapsed)

	// usage and limit are both scaled by the window length in nanoseconds,
	// so the comparison stays exact in 128-bit integers
	w := uint64(windowNs)
	usageHi, usageLo := weightedUsage(uint64(max(cur, 0)), uint64(max(prev, 0)), w, uint64(windowNs-elapsed))
	limitHi, limitLo := bits.Mul64(s.limit, w)
	allowed := usageHi < limitHi || (usageHi == limitHi && usageLo <= limitLo)

	used := ceilDiv128(usageHi, usageLo, w)
	var remaining uint64
	if used < s.limit {
		remaining = s.limit - used
	}

	res := Result{
		Allowed:       allowed,
		Remaining:     int64(remaining),
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: resetIn,
	}
	if !allowed {
		res.RetryAfter = resetIn
	}
	return res, nil
}

func (s *SlidingWindowRateLimiter) buildKey(key Key, windowIdx int64) string {
	return fmt.Sprintf("%s:%s:%d", s.keyPrefix, key, windowIdx)
}

// weightedUsage returns cur*window + prev*prevWeight as a 128-bit value.
func weightedUsage(cur, prev, window, prevWeight uint64) (hi, lo uint64) {
	curHi, curLo := bits.Mul64(cur, window)
	prevHi, prevLo := bits.Mul64(prev, prevWeight)
	lo, carry := bits.Add64(curLo, prevLo, 0)
	hi, _ = bits.Add64(curHi, prevHi, carry)
	return hi, lo
}

// ceilDiv128 returns ceil((hi,lo) / d), saturating at MaxUint64.
func ceilDiv128(hi, lo, d uint64) uint64 {
	if hi >= d {
		return ^uint64(0)
	}
	q, r := bits.Div64(hi, lo, d)
	if r != 0 && q != ^uint64(0) {
		q++
	}
	return q
}
