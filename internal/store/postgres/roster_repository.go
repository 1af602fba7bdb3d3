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
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openroster/openroster/internal/roster"
)

// RoleRepository implements roster.RoleRepository
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*roster.Role, error) {
	var role roster.Role
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, exclusivity, created_at, updated_at
		FROM roles
		WHERE id = $1
	`, id).Scan(&role.ID, &role.Name, &role.Exclusivity, &role.CreatedAt, &role.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, roster.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return &role, nil
}

// List retrieves the full role catalog
func (r *RoleRepository) List(ctx context.Context) ([]*roster.Role, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, exclusivity, created_at, updated_at
		FROM roles
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*roster.Role
	for rows.Next() {
		var role roster.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Exclusivity, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &role)
	}

	return roles, rows.Err()
}

// AssignmentRepository implements roster.AssignmentRepository. The guarded
// writes serialize per role with a transaction-scoped advisory lock, so the
// exclusivity re-count and the insert are atomic against concurrent
// assignment attempts of the same role.
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const activeHoldersQuery = `
	SELECT ra.id, ra.person_id, p.display_name, COALESCE(ra.squadron_id::text, ''), ra.effective_date
	FROM role_assignments ra
	JOIN people p ON p.id = ra.person_id
	WHERE ra.role_id = $1
	  AND ra.ended_at IS NULL
	  AND ra.squadron_id = ANY($2::uuid[])
	  AND p.active
	  AND ($3::uuid IS NULL OR ra.person_id <> $3::uuid)
	ORDER BY ra.effective_date, ra.id
`

// ActiveHolders retrieves the open assignments of a role held by active
// people within the squadron set, excluding excludePersonID, ordered by
// earliest effective date.
func (r *AssignmentRepository) ActiveHolders(ctx context.Context, roleID string, squadronIDs []string, excludePersonID string) ([]*roster.Holder, error) {
	rows, err := r.db.pool.Query(ctx, activeHoldersQuery,
		roleID, squadronIDs, nullableID(excludePersonID))
	if err != nil {
		return nil, fmt.Errorf("failed to query active holders: %w", err)
	}
	defer rows.Close()

	return scanHolders(rows)
}

// Create inserts an assignment unconditionally.
func (r *AssignmentRepository) Create(ctx context.Context, a *roster.Assignment) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO role_assignments (id, person_id, role_id, squadron_id, effective_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.PersonID, a.RoleID, nullableID(a.SquadronID), a.EffectiveDate, nullableID(a.CreatedBy))

	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// CreateGuarded inserts an assignment only if no active holder of the role
// occupies the boundary. The count runs in the inserting transaction under
// the role's advisory lock, closing the check-then-act window.
func (r *AssignmentRepository) CreateGuarded(ctx context.Context, a *roster.Assignment, boundary []string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockRole(ctx, tx, a.RoleID); err != nil {
		return err
	}

	var occupied bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM role_assignments ra
			JOIN people p ON p.id = ra.person_id
			WHERE ra.role_id = $1
			  AND ra.ended_at IS NULL
			  AND ra.squadron_id = ANY($2::uuid[])
			  AND p.active
			  AND ($3::uuid IS NULL OR ra.person_id <> $3::uuid)
		)
	`, a.RoleID, boundary, nullableID(a.PersonID)).Scan(&occupied)
	if err != nil {
		return fmt.Errorf("failed to re-check boundary: %w", err)
	}
	if occupied {
		return roster.ErrBoundaryOccupied
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO role_assignments (id, person_id, role_id, squadron_id, effective_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.PersonID, a.RoleID, nullableID(a.SquadronID), a.EffectiveDate, nullableID(a.CreatedBy))
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit assignment: %w", err)
	}
	return nil
}

// Replace ends the incumbent assignment and inserts the new one in a single
// transaction. The end-then-create order is deliberate: if ending fails,
// nothing is inserted, and the commit makes both visible together.
func (r *AssignmentRepository) Replace(ctx context.Context, incumbentAssignmentID string, a *roster.Assignment, endAt time.Time) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockRole(ctx, tx, a.RoleID); err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE role_assignments
		SET ended_at = $2
		WHERE id = $1 AND ended_at IS NULL
	`, incumbentAssignmentID, endAt)
	if err != nil {
		return fmt.Errorf("failed to end incumbent assignment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// A concurrent writer already ended or replaced the incumbent.
		return roster.ErrIncumbentGone
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO role_assignments (id, person_id, role_id, squadron_id, effective_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.PersonID, a.RoleID, nullableID(a.SquadronID), a.EffectiveDate, nullableID(a.CreatedBy))
	if err != nil {
		return fmt.Errorf("failed to create replacement assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit replacement: %w", err)
	}
	return nil
}

// EndedBefore deletes ended assignments whose end date is older than the
// cutoff. Used by the cleanup tool, never by the engine.
func (r *AssignmentRepository) EndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.db.pool.Exec(ctx, `
		DELETE FROM role_assignments
		WHERE ended_at IS NOT NULL AND ended_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune assignments: %w", err)
	}
	return ct.RowsAffected(), nil
}

// lockRole takes a transaction-scoped advisory lock keyed by role ID.
func lockRole(ctx context.Context, tx pgx.Tx, roleID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, roleID); err != nil {
		return fmt.Errorf("failed to lock role: %w", err)
	}
	return nil
}

func scanHolders(rows pgx.Rows) ([]*roster.Holder, error) {
	var holders []*roster.Holder
	for rows.Next() {
		var h roster.Holder
		if err := rows.Scan(&h.AssignmentID, &h.PersonID, &h.DisplayName, &h.SquadronID, &h.EffectiveDate); err != nil {
			return nil, fmt.Errorf("failed to scan holder: %w", err)
		}
		holders = append(holders, &h)
	}
	return holders, rows.Err()
}

// nullableID maps an empty string to SQL NULL for optional uuid columns.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
