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

// Package redistest hands tests a rueidis client. It uses the server named
// by REDIS_URL when set and an in-process miniredis otherwise.
package redistest

import (
	"context"
	"os"
	"testing"

	"uiconfig/modules/db/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
)

// NewClient returns a client and, when running in-process, the miniredis
// server so tests can inspect keys or fast-forward TTLs. The server is nil
// against a real Redis.
func NewClient(t *testing.T) (rueidis.Client, *miniredis.Miniredis) {
	t.Helper()

	if url := os.Getenv("REDIS_URL"); url != "" {
		cli, err := redis.NewRueidisClient(context.Background(), redis.RedisConfig{URL: url})
		if err != nil {
			t.Fatalf("redistest: %v", err)
		}
		t.Cleanup(cli.Close)
		return cli, nil
	}

	mr := miniredis.RunT(t)
	cli, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{mr.Addr()},
		// miniredis has no CLIENT TRACKING
		DisableCache: true,
	})
	if err != nil {
		t.Fatalf("redistest: %v", err)
	}
	t.Cleanup(cli.Close)
	return cli, mr
}
