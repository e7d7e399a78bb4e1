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

package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uiconfig/modules/db"

	"github.com/redis/rueidis"
)

var _ db.KV = (*RedisKV)(nil)

type RedisKV struct {
	client rueidis.Client

	// prefix is empty or ends with ":"
	prefix string

	// cacheTTL > 0 routes reads through DoCache
	cacheTTL time.Duration
}

type RedisKVOption func(*RedisKV)

func WithKeyPrefix(prefix string) RedisKVOption {
	return func(k *RedisKV) {
		k.prefix = NormalizePrefix(prefix)
	}
}

// WithClientSideCache enables server-assisted client caching for reads. The
// server must track the key prefix, see RedisConfig.ClientTrackingPrefixes.
func WithClientSideCache(ttl time.Duration) RedisKVOption {
	return func(k *RedisKV) {
		k.cacheTTL = ttl
	}
}

func NewRedisKV(client rueidis.Client, opts ...RedisKVOption) *RedisKV {
	kv := &RedisKV{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

// NormalizePrefix trims prefix and makes sure a non-empty one ends with ":".
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return prefix
}

func (k *RedisKV) key(raw string) string {
	return k.prefix + raw
}

// AtomicGet returns the raw bytes stored at key, or nil when it is missing.
func (k *RedisKV) AtomicGet(ctx context.Context, key string) (any, error) {
	fullKey := k.key(key)

	var res rueidis.RedisResult
	if k.cacheTTL > 0 {
		res = k.client.DoCache(ctx, k.client.B().Get().Key(fullKey).Cache(), k.cacheTTL)
	} else {
		res = k.client.Do(ctx, k.client.B().Get().Key(fullKey).Build())
	}

	bs, err := res.AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: get %q: %w", key, err)
	}
	return bs, nil
}

func (k *RedisKV) HealthCheck(ctx context.Context) error {
	return k.client.Do(ctx, k.client.B().Ping().Build()).Error()
}
