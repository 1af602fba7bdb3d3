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

package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that Shutdown is safe when tracer initialization
// failed or tracing is disabled; a deferred Shutdown must never panic.
// Scope: Unit Test
// Expected: Nil receiver and provider-less tracer both return nil.
// Test Case ID: TRC-01
func TestTracer_ShutdownSafety(t *testing.T) {
	ctx := context.Background()

	var tracer *Tracer
	assert.NoError(t, tracer.Shutdown(ctx))

	tracer, err := New(ctx, Config{Enabled: false})
	assert.NoError(t, err)
	assert.NotNil(t, tracer.GetTracer())
	assert.NoError(t, tracer.Shutdown(ctx))
}
