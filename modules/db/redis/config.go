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
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/rueidis"
)

// RedisConfig is parsed under the REDIS_ prefix.
type RedisConfig struct {
	// redis:// or rediss://
	URL        string `env:"URL" envDefault:"redis://:redis@localhost:6379/0"`
	ClientName string `env:"CLIENT_NAME" envDefault:"uiconfig"`

	// SkipTLSVerify is for trusted networks only, e.g. ElastiCache endpoints
	// with non-standard certificates.
	SkipTLSVerify bool `env:"SKIP_TLS_VERIFY"`
	// AutoDetectAWS refuses plaintext URLs pointing at *.cache.amazonaws.com.
	AutoDetectAWS bool `env:"AUTO_DETECT_AWS"`
	RequireTLS    bool `env:"REQUIRE_TLS"`

	// zero values keep rueidis defaults
	DisableRetry      bool          `env:"DISABLE_RETRY"`
	DisableCache      bool          `env:"DISABLE_CACHE"`
	AlwaysPipelining  bool          `env:"ALWAYS_PIPELINING"`
	ConnWriteTimeout  time.Duration `env:"CONN_WRITE_TIMEOUT"`
	RingScaleEachConn int           `env:"RING_SCALE_EACH_CONN"`
	CacheSizeEachConn int           `env:"CACHE_SIZE_EACH_CONN"`

	EnableOtel bool `env:"ENABLE_OTEL"`

	// ClientTrackingPrefixes turns on CLIENT TRACKING with PREFIX/BCAST/OPTIN.
	// Commands still opt in through DoCache.
	ClientTrackingPrefixes []string `env:"CLIENT_TRACKING_PREFIXES" envSeparator:","`
}

// clientOption checks the TLS rules and translates the config into rueidis
// options. It does not dial.
func (c RedisConfig) clientOption() (rueidis.ClientOption, error) {
	if c.URL == "" {
		return rueidis.ClientOption{}, errors.New("redis: URL must not be empty")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return rueidis.ClientOption{}, fmt.Errorf("redis: parse url: %w", err)
	}

	plaintext := u.Scheme == "redis"
	if plaintext && c.RequireTLS {
		return rueidis.ClientOption{}, errors.New("redis: REQUIRE_TLS is set but the URL uses redis://")
	}
	if plaintext && c.AutoDetectAWS && strings.HasSuffix(u.Hostname(), ".cache.amazonaws.com") {
		return rueidis.ClientOption{}, errors.New("redis: ElastiCache endpoint over plaintext redis://")
	}
	if plaintext && c.SkipTLSVerify {
		slog.Warn("redis: SKIP_TLS_VERIFY has no effect on a redis:// URL", slog.String("host", u.Hostname()))
	}
	if c.DisableCache && len(c.ClientTrackingPrefixes) > 0 {
		slog.Warn("redis: client tracking enabled while the client cache is disabled")
	}

	opt, err := rueidis.ParseURL(c.URL)
	if err != nil {
		return rueidis.ClientOption{}, err
	}

	opt.ClientName = c.ClientName
	opt.DisableRetry = c.DisableRetry
	opt.DisableCache = c.DisableCache
	opt.AlwaysPipelining = c.AlwaysPipelining
	if c.RingScaleEachConn > 0 {
		opt.RingScaleEachConn = c.RingScaleEachConn
	}
	if c.CacheSizeEachConn > 0 {
		opt.CacheSizeEachConn = c.CacheSizeEachConn
	}
	if c.ConnWriteTimeout > 0 {
		opt.ConnWriteTimeout = c.ConnWriteTimeout
	}

	if c.SkipTLSVerify && !plaintext {
		tc := &tls.Config{}
		if opt.TLSConfig != nil {
			tc = opt.TLSConfig.Clone()
		}
		tc.InsecureSkipVerify = true //nolint:gosec
		opt.TLSConfig = tc
	}

	if tracking := trackingOptions(c.ClientTrackingPrefixes); tracking != nil {
		opt.ClientTrackingOptions = tracking
	}
	return opt, nil
}

func trackingOptions(prefixes []string) []string {
	var out []string
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, "PREFIX", p)
		}
	}
	if out == nil {
		return nil
	}
	return append(out, "BCAST", "OPTIN")
}
