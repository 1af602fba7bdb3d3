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

	"github.com/jackc/pgx/v5"

	"github.com/openroster/openroster/internal/org"
)

// WingRepository implements org.WingRepository
type WingRepository struct {
	db *DB
}

// NewWingRepository creates a new wing repository
func NewWingRepository(db *DB) *WingRepository {
	return &WingRepository{db: db}
}

// GetByID retrieves a wing by ID
func (r *WingRepository) GetByID(ctx context.Context, id string) (*org.Wing, error) {
	var w org.Wing
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM wings
		WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrWingNotFound
		}
		return nil, fmt.Errorf("failed to get wing: %w", err)
	}

	return &w, nil
}

// List retrieves all wings
func (r *WingRepository) List(ctx context.Context) ([]*org.Wing, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at
		FROM wings
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wings: %w", err)
	}
	defer rows.Close()

	var wings []*org.Wing
	for rows.Next() {
		var w org.Wing
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wing: %w", err)
		}
		wings = append(wings, &w)
	}

	return wings, rows.Err()
}

// SquadronRepository implements org.SquadronRepository
type SquadronRepository struct {
	db *DB
}

// NewSquadronRepository creates a new squadron repository
func NewSquadronRepository(db *DB) *SquadronRepository {
	return &SquadronRepository{db: db}
}

// GetByID retrieves a squadron by ID
func (r *SquadronRepository) GetByID(ctx context.Context, id string) (*org.Squadron, error) {
	var sq org.Squadron
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, wing_id, name, created_at, updated_at
		FROM squadrons
		WHERE id = $1
	`, id).Scan(&sq.ID, &sq.WingID, &sq.Name, &sq.CreatedAt, &sq.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrSquadronNotFound
		}
		return nil, fmt.Errorf("failed to get squadron: %w", err)
	}

	return &sq, nil
}

// ListByWing retrieves all squadrons under a wing
func (r *SquadronRepository) ListByWing(ctx context.Context, wingID string) ([]*org.Squadron, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, wing_id, name, created_at, updated_at
		FROM squadrons
		WHERE wing_id = $1
		ORDER BY name
	`, wingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squadrons: %w", err)
	}
	defer rows.Close()

	var squadrons []*org.Squadron
	for rows.Next() {
		var sq org.Squadron
		if err := rows.Scan(&sq.ID, &sq.WingID, &sq.Name, &sq.CreatedAt, &sq.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan squadron: %w", err)
		}
		squadrons = append(squadrons, &sq)
	}

	return squadrons, rows.Err()
}

// PersonRepository implements org.PersonRepository and the resolver's
// authz.PersonDirectory.
type PersonRepository struct {
	db *DB
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db *DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// GetByID retrieves a person by ID
func (r *PersonRepository) GetByID(ctx context.Context, id string) (*org.Person, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetBySubject retrieves a person by external IdP subject
func (r *PersonRepository) GetBySubject(ctx context.Context, subject string) (*org.Person, error) {
	return r.getOne(ctx, `WHERE subject = $1`, subject)
}

func (r *PersonRepository) getOne(ctx context.Context, where string, arg any) (*org.Person, error) {
	var p org.Person
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, COALESCE(subject, ''), display_name, active, created_at, updated_at
		FROM people
	`+where, arg).Scan(&p.ID, &p.Subject, &p.DisplayName, &p.Active, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	return &p, nil
}

// PersonExists reports whether a person record exists
func (r *PersonRepository) PersonExists(ctx context.Context, personID string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM people WHERE id = $1)
	`, personID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check person: %w", err)
	}
	return exists, nil
}

// CurrentUnit retrieves a person's open unit assignment, or nil when the
// person is unassigned
func (r *PersonRepository) CurrentUnit(ctx context.Context, personID string) (*org.UnitAssignment, error) {
	var ua org.UnitAssignment
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, person_id, squadron_id, effective_date, ended_at
		FROM unit_assignments
		WHERE person_id = $1 AND ended_at IS NULL
	`, personID).Scan(&ua.ID, &ua.PersonID, &ua.SquadronID, &ua.EffectiveDate, &ua.EndedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get unit assignment: %w", err)
	}

	return &ua, nil
}
