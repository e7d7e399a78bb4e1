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

package counter

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"uiconfig/modules/db/redis"
	"uiconfig/modules/ratelimit"

	"github.com/redis/rueidis"
)

var (
	_ ratelimit.CounterStore = (*RedisCounter)(nil)

	//go:embed incr_expr.lua
	incrExprLua string

	// INCR, then PEXPIRE only when the key was just created, in one round trip.
	luaIncrWithTTL = rueidis.NewLuaScript(incrExprLua)
)

// RedisCounter backs the sliding window limiter with Redis counters shared by
// every replica of the service.
type RedisCounter struct {
	client rueidis.Client
	prefix string
}

func NewRedisCounterStore(client rueidis.Client, prefix string) *RedisCounter {
	return &RedisCounter{
		client: client,
		prefix: redis.NormalizePrefix(prefix),
	}
}

func (r *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Do(ctx, r.client.B().Get().Key(r.prefix+key).Build()).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis counter get: %w", err)
	}
	return n, nil
}

func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ms := strconv.FormatInt(max(ttl.Milliseconds(), 1), 10)
	n, err := luaIncrWithTTL.Exec(ctx, r.client, []string{r.prefix + key}, []string{ms}).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("redis counter incr: %w", err)
	}
	return n, nil
}
