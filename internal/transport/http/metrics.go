// Copyright 2026 The OpenRoster Authors
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

package http

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the transport layer's counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	permissionChecks metric.Int64Counter
}

// NewMetrics registers the transport counters on a meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	checks, err := meter.Int64Counter("authz_permission_checks_total",
		metric.WithDescription("Permission evaluations by capability and outcome"))
	if err != nil {
		return nil, err
	}
	return &Metrics{permissionChecks: checks}, nil
}

func (m *Metrics) permissionChecked(ctx context.Context, capability string, allowed bool) {
	if m == nil {
		return
	}
	m.permissionChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.Bool("allowed", allowed),
	))
}
