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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openroster/openroster/internal/roster"
)

// TestPurpose: Validates that the guarded assignment writes uphold the
// exclusivity invariant against the real database: the in-transaction
// re-count under the role's advisory lock rejects a second holder, and
// Replace refuses an incumbent assignment that is no longer open.
// Scope: Database Integration Test
// Security: Exclusive role uniqueness under concurrent writers
// Expected: CreateGuarded commits into a vacant boundary, returns
// ErrBoundaryOccupied afterwards; Replace ends the incumbent once and
// returns ErrIncumbentGone on a second attempt.
// Test Case ID: ISO-01
func TestAssignmentRepository_GuardedWrites(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Host:         "localhost",
		Port:         "5432",
		User:         "openroster",
		Password:     "openroster_dev_password",
		Database:     "openroster",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx, InitialSchema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	newID := func() string { return uuid.Must(uuid.NewV7()).String() }
	wingID := newID()
	squadronID := newID()
	roleID := newID()
	aliceID := newID()
	bobID := newID()

	exec := func(sql string, args ...any) {
		t.Helper()
		if _, err := db.pool.Exec(ctx, sql, args...); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	exec(`INSERT INTO wings (id, name) VALUES ($1, $2)`, wingID, "wing-"+wingID)
	exec(`INSERT INTO squadrons (id, wing_id, name) VALUES ($1, $2, $3)`, squadronID, wingID, "sq-"+squadronID)
	exec(`INSERT INTO people (id, display_name) VALUES ($1, 'Alice'), ($2, 'Bob')`, aliceID, bobID)
	exec(`INSERT INTO roles (id, name, exclusivity) VALUES ($1, $2, 'squadron')`, roleID, "role-"+roleID)
	defer func() {
		db.pool.Exec(ctx, `DELETE FROM role_assignments WHERE role_id = $1`, roleID)
		db.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
		db.pool.Exec(ctx, `DELETE FROM people WHERE id IN ($1, $2)`, aliceID, bobID)
		db.pool.Exec(ctx, `DELETE FROM squadrons WHERE id = $1`, squadronID)
		db.pool.Exec(ctx, `DELETE FROM wings WHERE id = $1`, wingID)
	}()

	repo := NewAssignmentRepository(db)
	boundary := []string{squadronID}

	aliceAssignment := &roster.Assignment{
		ID:            newID(),
		PersonID:      aliceID,
		RoleID:        roleID,
		SquadronID:    squadronID,
		EffectiveDate: time.Now(),
	}

	// 1. Vacant boundary: the guarded insert commits.
	if err := repo.CreateGuarded(ctx, aliceAssignment, boundary); err != nil {
		t.Fatalf("guarded insert into vacant boundary failed: %v", err)
	}

	// 2. Occupied boundary: a second holder is rejected inside the
	// writing transaction.
	bobAssignment := &roster.Assignment{
		ID:            newID(),
		PersonID:      bobID,
		RoleID:        roleID,
		SquadronID:    squadronID,
		EffectiveDate: time.Now(),
	}
	err = repo.CreateGuarded(ctx, bobAssignment, boundary)
	if !errors.Is(err, roster.ErrBoundaryOccupied) {
		t.Fatalf("expected ErrBoundaryOccupied, got %v", err)
	}

	// 3. Replace ends Alice's assignment and commits Bob's atomically.
	if err := repo.Replace(ctx, aliceAssignment.ID, bobAssignment, time.Now()); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	holders, err := repo.ActiveHolders(ctx, roleID, boundary, "")
	if err != nil {
		t.Fatalf("active holders query failed: %v", err)
	}
	if len(holders) != 1 || holders[0].PersonID != bobID {
		t.Fatalf("expected Bob as sole active holder, got %+v", holders)
	}

	// 4. The incumbent is gone; replacing again must refuse.
	carolAssignment := &roster.Assignment{
		ID:            newID(),
		PersonID:      aliceID,
		RoleID:        roleID,
		SquadronID:    squadronID,
		EffectiveDate: time.Now(),
	}
	err = repo.Replace(ctx, aliceAssignment.ID, carolAssignment, time.Now())
	if !errors.Is(err, roster.ErrIncumbentGone) {
		t.Fatalf("expected ErrIncumbentGone, got %v", err)
	}
}

// TestPurpose: Validates that an inactive person's open assignment neither
// surfaces as an active holder nor blocks the guarded insert: exclusivity
// only counts active personnel.
// Scope: Database Integration Test
// Expected: ActiveHolders returns nothing for a boundary held only by an
// inactive person, and CreateGuarded commits an active person into it.
// Test Case ID: ISO-02
func TestAssignmentRepository_InactiveHolderDoesNotOccupy(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Host:         "localhost",
		Port:         "5432",
		User:         "openroster",
		Password:     "openroster_dev_password",
		Database:     "openroster",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx, InitialSchema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	newID := func() string { return uuid.Must(uuid.NewV7()).String() }
	wingID := newID()
	squadronID := newID()
	roleID := newID()
	daveID := newID()
	erinID := newID()

	exec := func(sql string, args ...any) {
		t.Helper()
		if _, err := db.pool.Exec(ctx, sql, args...); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	exec(`INSERT INTO wings (id, name) VALUES ($1, $2)`, wingID, "wing-"+wingID)
	exec(`INSERT INTO squadrons (id, wing_id, name) VALUES ($1, $2, $3)`, squadronID, wingID, "sq-"+squadronID)
	exec(`INSERT INTO people (id, display_name, active) VALUES ($1, 'Dave', false), ($2, 'Erin', true)`, daveID, erinID)
	exec(`INSERT INTO roles (id, name, exclusivity) VALUES ($1, $2, 'squadron')`, roleID, "role-"+roleID)
	defer func() {
		db.pool.Exec(ctx, `DELETE FROM role_assignments WHERE role_id = $1`, roleID)
		db.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
		db.pool.Exec(ctx, `DELETE FROM people WHERE id IN ($1, $2)`, daveID, erinID)
		db.pool.Exec(ctx, `DELETE FROM squadrons WHERE id = $1`, squadronID)
		db.pool.Exec(ctx, `DELETE FROM wings WHERE id = $1`, wingID)
	}()

	repo := NewAssignmentRepository(db)
	boundary := []string{squadronID}

	// Dave holds the role but left active duty; the assignment row stays
	// open on purpose.
	daveAssignment := &roster.Assignment{
		ID:            newID(),
		PersonID:      daveID,
		RoleID:        roleID,
		SquadronID:    squadronID,
		EffectiveDate: time.Now(),
	}
	if err := repo.Create(ctx, daveAssignment); err != nil {
		t.Fatalf("seeding inactive holder's assignment failed: %v", err)
	}

	holders, err := repo.ActiveHolders(ctx, roleID, boundary, "")
	if err != nil {
		t.Fatalf("active holders query failed: %v", err)
	}
	if len(holders) != 0 {
		t.Fatalf("expected no active holders, got %+v", holders)
	}

	erinAssignment := &roster.Assignment{
		ID:            newID(),
		PersonID:      erinID,
		RoleID:        roleID,
		SquadronID:    squadronID,
		EffectiveDate: time.Now(),
	}
	if err := repo.CreateGuarded(ctx, erinAssignment, boundary); err != nil {
		t.Fatalf("guarded insert past inactive holder failed: %v", err)
	}

	holders, err = repo.ActiveHolders(ctx, roleID, boundary, "")
	if err != nil {
		t.Fatalf("active holders query failed: %v", err)
	}
	if len(holders) != 1 || holders[0].PersonID != erinID {
		t.Fatalf("expected Erin as sole active holder, got %+v", holders)
	}
}
