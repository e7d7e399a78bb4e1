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
	"time"
)

type KeyStrategyId string

const (
	RemoteIpKeyStrategy KeyStrategyId = "remote_ip"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type (
	RestHTTPConfig struct {
		Enabled bool `env:"ENABLED" envDefault:"false"`
		// memory: per-process token buckets, redis: shared sliding windows
		Backend   string `env:"BACKEND" envDefault:"memory"`
		KeyPrefix string `env:"KEY_PREFIX" envDefault:"uiconfig:{ratelimit}"`

		Routes              []Route      `envPrefix:"ROUTE_"`
		DefaultPolicy       EndpointRule `envPrefix:"DEFAULT_"`
		AllowIfNoMatch      bool         `env:"ALLOW_IF_NO_MATCH" envDefault:"true"`
		AllowIfNoIdentifier bool         `env:"ALLOW_IF_NO_ID"`
	}

	// Route binds rules to a mux pattern path such as "/v1/profiles/{id}".
	Route struct {
		Pattern       string         `env:"PATTERN"`
		EndpointRules []EndpointRule `envPrefix:"POLICY_"`
	}

	EndpointRule struct {
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"10000"`
		Window      time.Duration `env:"WINDOW"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY"`
	}
)
