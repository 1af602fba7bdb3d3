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

// Scope defines the organizational breadth a capability grant applies to.
type Scope string

const (
	// ScopeNone grants nothing; it exists so a role can carry an explicit
	// "defined but not granted" row.
	ScopeNone Scope = "none"

	// ScopeSquadron applies to a single squadron, identified by the grant anchor.
	ScopeSquadron Scope = "squadron"

	// ScopeWing applies to every squadron under a single wing, identified by
	// the grant anchor.
	ScopeWing Scope = "wing"

	// ScopeAllSquadrons applies to any squadron-level context, unanchored.
	ScopeAllSquadrons Scope = "all_squadrons"

	// ScopeAllWings applies to any wing-level context, unanchored.
	ScopeAllWings Scope = "all_wings"

	// ScopeGlobal applies everywhere.
	ScopeGlobal Scope = "global"
)

// Breadth returns the ordering rank of a scope, narrowest first. Unknown
// scopes rank below ScopeNone so they can never widen a grant.
func Breadth(s Scope) int {
	switch s {
	case ScopeNone:
		return 1
	case ScopeSquadron:
		return 2
	case ScopeWing:
		return 3
	case ScopeAllSquadrons:
		return 4
	case ScopeAllWings:
		return 5
	case ScopeGlobal:
		return 6
	default:
		return 0
	}
}

// Anchored reports whether a scope carries an anchor identifier. The all_*
// and global scopes are unconditional within their breadth.
func (s Scope) Anchored() bool {
	return s == ScopeSquadron || s == ScopeWing
}

// GrantKind discriminates the two grant shapes a capability may map to.
type GrantKind string

const (
	// GrantBoolean is an unconditional allow/deny; scoping never applies.
	GrantBoolean GrantKind = "boolean"

	// GrantScoped is a set of (scope, anchor) pairs; the capability is held
	// if any pair matches the request context.
	GrantScoped GrantKind = "scoped"
)

// ScopedGrant is one (scope, anchor) pair of a scoped capability grant.
// Anchor is a squadron ID for ScopeSquadron, a wing ID for ScopeWing, and
// empty otherwise.
type ScopedGrant struct {
	Scope  Scope  `json:"scope"`
	Anchor string `json:"anchor,omitempty"`
}

// Grant is the tagged variant behind a capability: either a plain boolean or
// a set of scoped grants. The evaluator dispatches on Kind and treats any
// unknown kind as deny.
type Grant struct {
	Kind    GrantKind     `json:"kind"`
	Allowed bool          `json:"allowed,omitempty"`
	Scopes  []ScopedGrant `json:"scopes,omitempty"`
}

// BooleanGrant builds an unconditional grant.
func BooleanGrant(allowed bool) Grant {
	return Grant{Kind: GrantBoolean, Allowed: allowed}
}

// ScopedGrants builds a scoped grant from its pairs.
func ScopedGrants(scopes ...ScopedGrant) Grant {
	return Grant{Kind: GrantScoped, Scopes: scopes}
}

// Grants is a snapshot of a person's capability grants, keyed by capability
// name. It is owned by the requesting caller and must be treated as
// read-only by everything downstream of the resolver.
type Grants map[string]Grant

// Context is the optional request context a permission check runs against:
// the squadron and/or wing the action targets. A nil *Context means the
// check is context-free (visibility checks), in which case holding any
// scope above none is sufficient.
type Context struct {
	SquadronID string `json:"squadron_id,omitempty"`
	WingID     string `json:"wing_id,omitempty"`
}
