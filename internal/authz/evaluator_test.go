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

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that an absent capability always denies.
// Scope: Unit Test
// Security: Fail-closed evaluation (no default-allow path exists)
// Expected: Evaluate returns false for a capability the grants map lacks.
// Test Case ID: EVA-01
func TestEvaluate_AbsentCapability_Denies(t *testing.T) {
	grants := Grants{
		"view_roster": BooleanGrant(true),
	}

	assert.False(t, Evaluate(grants, "manage_roster", nil))
	assert.False(t, Evaluate(nil, "manage_roster", nil))
	assert.False(t, Evaluate(Grants{}, "manage_roster", &Context{SquadronID: "sq-1"}))
}

// TestPurpose: Validates that boolean grants ignore the evaluation context entirely.
// Scope: Unit Test
// Expected: A boolean allow holds with and without context; a boolean deny denies everywhere.
// Test Case ID: EVA-02
func TestEvaluate_BooleanGrant_IgnoresContext(t *testing.T) {
	grants := Grants{
		"export_data": BooleanGrant(true),
		"purge_data":  BooleanGrant(false),
	}
	ctx := &Context{SquadronID: "sq-1", WingID: "wing-1"}

	assert.True(t, Evaluate(grants, "export_data", nil))
	assert.True(t, Evaluate(grants, "export_data", ctx))
	assert.False(t, Evaluate(grants, "purge_data", nil))
	assert.False(t, Evaluate(grants, "purge_data", ctx))
}

// TestPurpose: Validates scoped grant matching across every scope level.
// Scope: Unit Test
// Expected: global always matches; all_wings/all_squadrons need the
// corresponding field present; wing/squadron need anchor equality; none
// never matches.
// Test Case ID: EVA-03
func TestEvaluate_ScopedGrant_Matching(t *testing.T) {
	tests := []struct {
		name    string
		grant   ScopedGrant
		ctx     *Context
		allowed bool
	}{
		{"global matches any context", ScopedGrant{Scope: ScopeGlobal}, &Context{SquadronID: "sq-1", WingID: "wing-1"}, true},
		{"all_wings needs a wing", ScopedGrant{Scope: ScopeAllWings}, &Context{WingID: "wing-1"}, true},
		{"all_wings without wing", ScopedGrant{Scope: ScopeAllWings}, &Context{SquadronID: "sq-1"}, false},
		{"all_squadrons needs a squadron", ScopedGrant{Scope: ScopeAllSquadrons}, &Context{SquadronID: "sq-1"}, true},
		{"all_squadrons without squadron", ScopedGrant{Scope: ScopeAllSquadrons}, &Context{WingID: "wing-1"}, false},
		{"wing anchor match", ScopedGrant{Scope: ScopeWing, Anchor: "wing-1"}, &Context{SquadronID: "sq-9", WingID: "wing-1"}, true},
		{"wing anchor mismatch", ScopedGrant{Scope: ScopeWing, Anchor: "wing-1"}, &Context{WingID: "wing-2"}, false},
		{"squadron anchor match", ScopedGrant{Scope: ScopeSquadron, Anchor: "sq-1"}, &Context{SquadronID: "sq-1", WingID: "wing-1"}, true},
		{"squadron anchor mismatch", ScopedGrant{Scope: ScopeSquadron, Anchor: "sq-1"}, &Context{SquadronID: "sq-2"}, false},
		{"none never matches", ScopedGrant{Scope: ScopeNone}, &Context{SquadronID: "sq-1", WingID: "wing-1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grants := Grants{"cap": ScopedGrants(tt.grant)}
			assert.Equal(t, tt.allowed, Evaluate(grants, "cap", tt.ctx))
		})
	}
}

// TestPurpose: Validates the context-free evaluation rule for scoped grants.
// Scope: Unit Test
// Expected: With a nil context, any scoped grant except none allows; the
// question is "do you hold this anywhere", not "everywhere".
// Test Case ID: EVA-04
func TestEvaluate_NilContext_ScopedGrants(t *testing.T) {
	for _, scope := range []Scope{ScopeSquadron, ScopeWing, ScopeAllSquadrons, ScopeAllWings, ScopeGlobal} {
		grants := Grants{"cap": ScopedGrants(ScopedGrant{Scope: scope, Anchor: "x"})}
		assert.True(t, Evaluate(grants, "cap", nil), "scope %s should allow context-free", scope)
	}

	grants := Grants{"cap": ScopedGrants(ScopedGrant{Scope: ScopeNone})}
	assert.False(t, Evaluate(grants, "cap", nil))
}

// TestPurpose: Validates the Squadron Leader scenario: manage_roster anchored
// at one squadron grants nothing over a sibling squadron.
// Scope: Unit Test
// Security: Horizontal privilege isolation between units
// Expected: Allowed for SQ-12, denied for SQ-34 in the same wing.
// Test Case ID: EVA-05
func TestEvaluate_SquadronLeader_CannotCrossUnits(t *testing.T) {
	grants := Grants{
		"manage_roster": ScopedGrants(ScopedGrant{Scope: ScopeSquadron, Anchor: "sq-12"}),
	}

	assert.True(t, Evaluate(grants, "manage_roster", &Context{SquadronID: "sq-12", WingID: "wing-1"}))
	assert.False(t, Evaluate(grants, "manage_roster", &Context{SquadronID: "sq-34", WingID: "wing-1"}))
}

// TestPurpose: Validates that evaluation is pure: repeated calls over the same
// snapshot give the same answer, and adding a scope pair never turns an allow
// into a deny.
// Scope: Unit Test
// Expected: Idempotent results; monotonic under added scope pairs.
// Test Case ID: EVA-06
func TestEvaluate_IdempotentAndMonotonic(t *testing.T) {
	ctx := &Context{SquadronID: "sq-1", WingID: "wing-1"}
	grants := Grants{
		"cap": ScopedGrants(ScopedGrant{Scope: ScopeSquadron, Anchor: "sq-1"}),
	}

	first := Evaluate(grants, "cap", ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(grants, "cap", ctx))
	}

	wider := Grants{
		"cap": ScopedGrants(
			ScopedGrant{Scope: ScopeSquadron, Anchor: "sq-1"},
			ScopedGrant{Scope: ScopeWing, Anchor: "wing-2"},
		),
	}
	assert.True(t, Evaluate(wider, "cap", ctx), "adding a scope pair must not revoke an allow")
}

// TestPurpose: Validates that malformed grant data denies instead of erroring
// or allowing.
// Scope: Unit Test
// Security: Fail-closed on corrupt snapshots
// Expected: Unknown kinds and unknown scope names deny.
// Test Case ID: EVA-07
func TestEvaluate_MalformedGrant_Denies(t *testing.T) {
	grants := Grants{
		"weird_kind":  {Kind: GrantKind("tristate"), Allowed: true},
		"weird_scope": ScopedGrants(ScopedGrant{Scope: Scope("galaxy")}),
	}
	ctx := &Context{SquadronID: "sq-1", WingID: "wing-1"}

	assert.False(t, Evaluate(grants, "weird_kind", ctx))
	assert.False(t, Evaluate(grants, "weird_scope", ctx))
	assert.False(t, Evaluate(grants, "weird_scope", nil))
}

func TestEvaluateAny(t *testing.T) {
	grants := Grants{
		"view_roster": BooleanGrant(true),
		"purge_data":  BooleanGrant(false),
	}

	assert.True(t, EvaluateAny(grants, []string{"purge_data", "view_roster"}, nil))
	assert.False(t, EvaluateAny(grants, []string{"purge_data", "missing"}, nil))
	assert.False(t, EvaluateAny(grants, nil, nil))
}

func TestEvaluateAll(t *testing.T) {
	grants := Grants{
		"view_roster":   BooleanGrant(true),
		"manage_roster": ScopedGrants(ScopedGrant{Scope: ScopeGlobal}),
	}

	assert.True(t, EvaluateAll(grants, []string{"view_roster", "manage_roster"}, nil))
	assert.False(t, EvaluateAll(grants, []string{"view_roster", "missing"}, nil))
	assert.True(t, EvaluateAll(grants, nil, nil))
}

func TestScopeBreadth_Ordering(t *testing.T) {
	ordered := []Scope{ScopeNone, ScopeSquadron, ScopeWing, ScopeAllSquadrons, ScopeAllWings, ScopeGlobal}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, Breadth(ordered[i]), Breadth(ordered[i-1]))
	}
	assert.Equal(t, 0, Breadth(Scope("galaxy")))
}
