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
	"time"
)

// ExclusivityScope defines how widely a role's one-active-holder rule
// reaches.
type ExclusivityScope string

const (
	// ExclusivityNone permits unlimited concurrent holders.
	ExclusivityNone ExclusivityScope = "none"

	// ExclusivitySquadron permits one active holder per squadron.
	ExclusivitySquadron ExclusivityScope = "squadron"

	// ExclusivityWing permits one active holder across all squadrons of a
	// wing.
	ExclusivityWing ExclusivityScope = "wing"
)

// Role is an entry in the role catalog.
type Role struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Exclusivity ExclusivityScope `json:"exclusivity"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Exclusive reports whether the role is subject to conflict checking.
func (r *Role) Exclusive() bool {
	return r.Exclusivity == ExclusivitySquadron || r.Exclusivity == ExclusivityWing
}

// Assignment is a role held by a person, optionally within a squadron. An
// assignment with a nil EndedAt is open; its holder is the current holder.
type Assignment struct {
	ID            string     `json:"id"`
	PersonID      string     `json:"person_id"`
	RoleID        string     `json:"role_id"`
	SquadronID    string     `json:"squadron_id,omitempty"`
	EffectiveDate time.Time  `json:"effective_date"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
}

// Holder is an open assignment joined with its holder's identity, as
// returned by the active-holder query. Only people whose status record is
// active appear.
type Holder struct {
	AssignmentID  string
	PersonID      string
	DisplayName   string
	SquadronID    string
	EffectiveDate time.Time
}

// RoleRepository defines the interface for the role catalog.
type RoleRepository interface {
	// GetByID retrieves a role by ID.
	GetByID(ctx context.Context, id string) (*Role, error)

	// List retrieves the full role catalog.
	List(ctx context.Context) ([]*Role, error)
}

// AssignmentRepository defines the interface for role assignment
// persistence. The guarded writes re-run the exclusivity count inside the
// same transaction that writes, so a check performed earlier cannot go
// stale unnoticed (check-then-act race).
type AssignmentRepository interface {
	// ActiveHolders retrieves the open assignments of a role held by active
	// people within the squadron set, excluding excludePersonID, ordered by
	// earliest effective date.
	ActiveHolders(ctx context.Context, roleID string, squadronIDs []string, excludePersonID string) ([]*Holder, error)

	// Create inserts an assignment unconditionally.
	Create(ctx context.Context, a *Assignment) error

	// CreateGuarded inserts an assignment only if no active holder of the
	// role exists within the boundary (excluding the assignee). Returns
	// ErrBoundaryOccupied otherwise. Count and insert run in one
	// transaction.
	CreateGuarded(ctx context.Context, a *Assignment, boundary []string) error

	// Replace ends the incumbent assignment as of endAt and inserts the new
	// assignment, both in one transaction. Returns ErrIncumbentGone when
	// the incumbent assignment is no longer open.
	Replace(ctx context.Context, incumbentAssignmentID string, a *Assignment, endAt time.Time) error
}
