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

package org

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrWingNotFound     = errors.New("wing not found")
	ErrSquadronNotFound = errors.New("squadron not found")
	ErrPersonNotFound   = errors.New("person not found")
)

// Wing is the parent organizational unit.
type Wing struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Squadron is the child organizational unit; every squadron belongs to
// exactly one wing.
type Squadron struct {
	ID        string    `json:"id"`
	WingID    string    `json:"wing_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Person is a roster member. Subject is the external identity provider
// subject the person authenticates as; Active is the status flag that
// gates exclusive-role conflicts.
type Person struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject,omitempty"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnitAssignment places a person in a squadron. A person has at most one
// open (null EndedAt) unit assignment at a time; a person with none is
// unassigned and sits under no wing.
type UnitAssignment struct {
	ID            string     `json:"id"`
	PersonID      string     `json:"person_id"`
	SquadronID    string     `json:"squadron_id"`
	EffectiveDate time.Time  `json:"effective_date"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// WingRepository defines the interface for wing persistence.
type WingRepository interface {
	// GetByID retrieves a wing by ID.
	GetByID(ctx context.Context, id string) (*Wing, error)

	// List retrieves all wings.
	List(ctx context.Context) ([]*Wing, error)
}

// SquadronRepository defines the interface for squadron persistence.
type SquadronRepository interface {
	// GetByID retrieves a squadron by ID.
	GetByID(ctx context.Context, id string) (*Squadron, error)

	// ListByWing retrieves all squadrons under a wing.
	ListByWing(ctx context.Context, wingID string) ([]*Squadron, error)
}

// PersonRepository defines the interface for person persistence.
type PersonRepository interface {
	// GetByID retrieves a person by ID.
	GetByID(ctx context.Context, id string) (*Person, error)

	// GetBySubject retrieves a person by external IdP subject.
	GetBySubject(ctx context.Context, subject string) (*Person, error)

	// CurrentUnit retrieves the person's open unit assignment, or nil when
	// the person is unassigned.
	CurrentUnit(ctx context.Context, personID string) (*UnitAssignment, error)
}
