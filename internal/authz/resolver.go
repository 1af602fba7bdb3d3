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
	"context"
	"fmt"
	"log/slog"

	"github.com/openroster/openroster/internal/observability/logger"
)

// CapabilityRow is one capability definition contributed by an open role
// assignment of the caller. Boolean rows carry Allowed; scoped rows carry
// the scope kind plus the squadron/wing the role is held in, from which the
// anchor is derived.
type CapabilityRow struct {
	Capability string
	Kind       GrantKind
	Allowed    bool
	Scope      Scope
	SquadronID *string
	WingID     *string
}

// GrantSource loads the raw capability rows behind a person's open role
// assignments.
type GrantSource interface {
	// ListCapabilityRows retrieves the capability rows for a person's open
	// role assignments.
	ListCapabilityRows(ctx context.Context, personID string) ([]CapabilityRow, error)
}

// PersonDirectory answers whether a person record exists.
type PersonDirectory interface {
	// PersonExists reports whether a person record exists for the ID.
	PersonExists(ctx context.Context, personID string) (bool, error)
}

// GrantsCache is an optional read-through cache for grant snapshots. The
// resolver consults it but never decides freshness; entries expire by TTL
// and are invalidated externally when assignments change.
type GrantsCache interface {
	// Get returns the cached snapshot for a person, or (nil, nil) on miss.
	Get(ctx context.Context, personID string) (Grants, error)

	// Set stores a snapshot for a person.
	Set(ctx context.Context, personID string, grants Grants) error

	// Invalidate drops the cached snapshot for a person.
	Invalidate(ctx context.Context, personID string) error
}

// Resolver produces a caller's current capability grants on demand. The
// snapshot is derived from role assignments, not stored; it changes only
// when the underlying records change.
type Resolver struct {
	persons PersonDirectory
	source  GrantSource
	cache   GrantsCache // nil disables caching
}

// NewResolver creates a grant resolver. cache may be nil.
func NewResolver(persons PersonDirectory, source GrantSource, cache GrantsCache) *Resolver {
	return &Resolver{
		persons: persons,
		source:  source,
		cache:   cache,
	}
}

// Resolve builds the grants snapshot for a person. It returns
// ErrIdentityNotFound when no person record exists; an empty snapshot is a
// valid result and must not be conflated with that.
func (r *Resolver) Resolve(ctx context.Context, personID string) (Grants, error) {
	if personID == "" {
		return nil, ErrIdentityNotFound
	}

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, personID)
		if err != nil {
			// Cache trouble is not a resolution failure; fall through to
			// the store.
			slog.WarnContext(ctx, "grants cache read failed",
				logger.PersonID(personID), logger.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	exists, err := r.persons.PersonExists(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup person %s: %v", ErrStoreUnavailable, personID, err)
	}
	if !exists {
		return nil, ErrIdentityNotFound
	}

	rows, err := r.source.ListCapabilityRows(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("%w: load grants for %s: %v", ErrStoreUnavailable, personID, err)
	}

	grants := assemble(rows)

	if r.cache != nil {
		if err := r.cache.Set(ctx, personID, grants); err != nil {
			slog.WarnContext(ctx, "grants cache write failed",
				logger.PersonID(personID), logger.Error(err))
		}
	}

	return grants, nil
}

// assemble merges capability rows into a snapshot. A boolean allow from any
// role dominates the capability; otherwise scoped pairs from all roles
// accumulate; a lone boolean deny stays an explicit deny. Scoped rows whose
// scope needs an anchor the assignment cannot supply (a role held without a
// unit) are skipped rather than granted broadly.
func assemble(rows []CapabilityRow) Grants {
	grants := make(Grants, len(rows))

	for _, row := range rows {
		switch row.Kind {
		case GrantBoolean:
			existing, ok := grants[row.Capability]
			if !ok {
				grants[row.Capability] = BooleanGrant(row.Allowed)
				continue
			}
			// A boolean allow is strictly wider than anything already
			// merged; a boolean deny never narrows another role's grant.
			if row.Allowed && !(existing.Kind == GrantBoolean && existing.Allowed) {
				grants[row.Capability] = BooleanGrant(true)
			}
		case GrantScoped:
			sg, ok := anchoredGrant(row)
			if !ok {
				continue
			}
			existing := grants[row.Capability]
			if existing.Kind == GrantBoolean && existing.Allowed {
				continue
			}
			if existing.Kind != GrantScoped {
				grants[row.Capability] = ScopedGrants(sg)
				continue
			}
			existing.Scopes = append(existing.Scopes, sg)
			grants[row.Capability] = existing
		}
	}

	return grants
}

func anchoredGrant(row CapabilityRow) (ScopedGrant, bool) {
	sg := ScopedGrant{Scope: row.Scope}
	switch row.Scope {
	case ScopeSquadron:
		if row.SquadronID == nil {
			return ScopedGrant{}, false
		}
		sg.Anchor = *row.SquadronID
	case ScopeWing:
		if row.WingID == nil {
			return ScopedGrant{}, false
		}
		sg.Anchor = *row.WingID
	case ScopeNone, ScopeAllSquadrons, ScopeAllWings, ScopeGlobal:
		// Unanchored.
	default:
		return ScopedGrant{}, false
	}
	return sg, true
}
