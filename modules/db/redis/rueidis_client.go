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
	"log/slog"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisotel"
)

const pingTimeout = 5 * time.Second

// NewRueidisClient dials Redis and fails fast when the server does not answer
// a PING.
func NewRueidisClient(ctx context.Context, cfg RedisConfig) (rueidis.Client, error) {
	opt, err := cfg.clientOption()
	if err != nil {
		return nil, err
	}

	var cli rueidis.Client
	if cfg.EnableOtel {
		cli, err = rueidisotel.NewClient(opt)
	} else {
		cli, err = rueidis.NewClient(opt)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error during rueidis init", slog.Any("error", err))
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := cli.Do(pingCtx, cli.B().Ping().Build()).Error(); err != nil {
		cli.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "redis connected",
		slog.String("mode", string(cli.Mode())),
		slog.String("client_name", cfg.ClientName),
		slog.Bool("otel", cfg.EnableOtel),
	)
	return cli, nil
}
