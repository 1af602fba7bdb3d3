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

package postgres

import (
	"context"
	"fmt"

	"github.com/openroster/openroster/internal/authz"
)

// GrantRepository implements authz.GrantSource. Grants are derived from
// the caller's open role assignments joined with the role catalog's
// capability definitions; nothing here is a stored snapshot.
type GrantRepository struct {
	db *DB
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// ListCapabilityRows retrieves the capability rows behind a person's open
// role assignments. The squadron/wing of the assignment ride along so the
// resolver can anchor squadron- and wing-scoped grants.
func (r *GrantRepository) ListCapabilityRows(ctx context.Context, personID string) ([]authz.CapabilityRow, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT rc.capability, rc.kind, rc.allowed, rc.scope,
		       ra.squadron_id, sq.wing_id
		FROM role_assignments ra
		JOIN role_capabilities rc ON rc.role_id = ra.role_id
		LEFT JOIN squadrons sq ON sq.id = ra.squadron_id
		WHERE ra.person_id = $1 AND ra.ended_at IS NULL
	`, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query capability rows: %w", err)
	}
	defer rows.Close()

	var result []authz.CapabilityRow
	for rows.Next() {
		var row authz.CapabilityRow
		var kind, scope string
		if err := rows.Scan(&row.Capability, &kind, &row.Allowed, &scope,
			&row.SquadronID, &row.WingID); err != nil {
			return nil, fmt.Errorf("failed to scan capability row: %w", err)
		}
		row.Kind = authz.GrantKind(kind)
		row.Scope = authz.Scope(scope)
		result = append(result, row)
	}

	return result, rows.Err()
}
