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

// Evaluate decides whether a grants snapshot allows a capability against an
// optional request context. It is a pure function of its inputs: no clock,
// no lookups, no mutation of the snapshot. Missing capabilities and
// unknown grant shapes are denied (fail-closed).
func Evaluate(grants Grants, capability string, ctx *Context) bool {
	grant, ok := grants[capability]
	if !ok {
		return false
	}

	switch grant.Kind {
	case GrantBoolean:
		// Boolean capabilities are not scopeable; context is ignored.
		return grant.Allowed
	case GrantScoped:
		for _, sg := range grant.Scopes {
			if matches(sg, ctx) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// EvaluateAny is a logical OR over single evaluations, short-circuiting on
// the first allow.
func EvaluateAny(grants Grants, capabilities []string, ctx *Context) bool {
	for _, c := range capabilities {
		if Evaluate(grants, c, ctx) {
			return true
		}
	}
	return false
}

// EvaluateAll is a logical AND over single evaluations, short-circuiting on
// the first deny. An empty capability list is vacuously allowed.
func EvaluateAll(grants Grants, capabilities []string, ctx *Context) bool {
	for _, c := range capabilities {
		if !Evaluate(grants, c, ctx) {
			return false
		}
	}
	return true
}

// matches applies the scope-matching invariant for one (scope, anchor) pair.
// With no context, any scope above none matches: the permissive default for
// "is this visible to the caller at all" checks.
func matches(sg ScopedGrant, ctx *Context) bool {
	if sg.Scope == ScopeNone {
		return false
	}
	if Breadth(sg.Scope) == 0 {
		// Unknown scope value, deny.
		return false
	}
	if ctx == nil {
		return true
	}

	switch sg.Scope {
	case ScopeGlobal:
		return true
	case ScopeAllWings:
		return ctx.WingID != ""
	case ScopeAllSquadrons:
		return ctx.SquadronID != ""
	case ScopeWing:
		return sg.Anchor != "" && sg.Anchor == ctx.WingID
	case ScopeSquadron:
		return sg.Anchor != "" && sg.Anchor == ctx.SquadronID
	default:
		return false
	}
}
