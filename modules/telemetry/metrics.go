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

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics are the server-side request instruments of the profile API.
type HTTPMetrics struct {
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
}

// NewHTTPMetrics registers instruments on the global meter provider, so call
// it after Init.
func NewHTTPMetrics(serviceName string) (*HTTPMetrics, error) {
	return newHTTPMetrics(otel.Meter(serviceName))
}

func newHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	var m HTTPMetrics
	var errs [4]error

	m.requests, errs[0] = meter.Int64Counter("http_server_requests_total",
		metric.WithDescription("Requests served, by route and status"),
		metric.WithUnit("{request}"))
	m.inFlight, errs[1] = meter.Int64UpDownCounter("http_server_requests_in_flight",
		metric.WithDescription("Requests currently being served"),
		metric.WithUnit("{request}"))
	m.duration, errs[2] = meter.Float64Histogram("http_server_duration",
		metric.WithDescription("Time to serve a request"),
		metric.WithUnit("ms"))
	m.size, errs[3] = meter.Int64Histogram("http_server_response_size",
		metric.WithDescription("Response body size"),
		metric.WithUnit("By"))

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

// StartRequest bumps the in-flight gauge; call the returned func when the
// response is written.
func (m *HTTPMetrics) StartRequest(ctx context.Context, method string) func() {
	attrs := metric.WithAttributes(attribute.String("http_method", method))
	m.inFlight.Add(ctx, 1, attrs)
	return func() { m.inFlight.Add(ctx, -1, attrs) }
}

// RecordRequest takes the route pattern as endpoint, never the raw path, to
// keep attribute cardinality bounded.
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, endpoint string, statusCode int, durationMs float64, responseSize int64) {
	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_endpoint", endpoint),
		attribute.Int("http_status_code", statusCode),
	)

	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, durationMs, attrs)
	if responseSize > 0 {
		m.size.Record(ctx, responseSize, attrs)
	}
}
