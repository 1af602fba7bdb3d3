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

package roster

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the roster service's counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	conflictsDetected metric.Int64Counter
	resolutions       metric.Int64Counter
}

// NewMetrics registers the roster counters on a meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	conflicts, err := meter.Int64Counter("roster_conflicts_detected_total",
		metric.WithDescription("Exclusive role conflicts detected during assignment attempts"))
	if err != nil {
		return nil, err
	}
	resolutions, err := meter.Int64Counter("roster_conflict_resolutions_total",
		metric.WithDescription("Arbitration resolutions by decision"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		conflictsDetected: conflicts,
		resolutions:       resolutions,
	}, nil
}

func (m *Metrics) conflictDetected(ctx context.Context) {
	if m == nil {
		return
	}
	m.conflictsDetected.Add(ctx, 1)
}

func (m *Metrics) resolved(ctx context.Context, decision Decision) {
	if m == nil {
		return
	}
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", string(decision)),
	))
}
