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

package telemetry

import "time"

type Mode string

const (
	ModeDetect Mode = "detect"
	ModeManual Mode = "manual"
	ModeAuto   Mode = "auto"
)

// Config uses the standard OTEL_* names where one exists, so it is parsed
// without a prefix.
type Config struct {
	Disabled bool `env:"OTEL_SDK_DISABLED" envDefault:"false"`

	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"uiconfig"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"local"`

	// "http://otel-collector:4318" or a bare "otel-collector:4317"
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:"otel-collector:4317"`
	Insecure     bool   `env:"OTEL_EXPORTER_OTLP_TRACES_INSECURE"`
	// grpc or http/protobuf
	Protocol        string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"http/protobuf"`
	MetricsProtocol string `env:"OTEL_EXPORTER_OTLP_METRICS_PROTOCOL"`
	MetricsEndpoint string `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`

	// 0 never, 1 always, otherwise parent based ratio sampling
	SamplerRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`

	StartupTimeout time.Duration `env:"OTEL_STARTUP_TIMEOUT" envDefault:"5s"`

	// How to interact with Go auto-instrumentation
	Mode Mode `env:"OTEL_MODE" envDefault:"detect"`

	DisableMetrics bool `env:"OTEL_DISABLE_METRICS" envDefault:"false"`

	ResourceAttrs map[string]string `env:"OTEL_RESOURCE_ATTRIBUTES" envSeparator:"," envKeyValSeparator:"="`
}

func (c Config) metricsProtocol() string {
	if c.MetricsProtocol != "" {
		return c.MetricsProtocol
	}
	return c.Protocol
}

func (c Config) metricsEndpoint() string {
	if c.MetricsEndpoint != "" {
		return c.MetricsEndpoint
	}
	return c.OTLPEndpoint
}
