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
	"fmt"
)

// Service provides read access to the organizational hierarchy.
type Service struct {
	wings     WingRepository
	squadrons SquadronRepository
	persons   PersonRepository
}

// NewService creates a new organization service.
func NewService(wings WingRepository, squadrons SquadronRepository, persons PersonRepository) *Service {
	return &Service{
		wings:     wings,
		squadrons: squadrons,
		persons:   persons,
	}
}

// ListWings returns all wings.
func (s *Service) ListWings(ctx context.Context) ([]*Wing, error) {
	wings, err := s.wings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wings: %w", err)
	}
	return wings, nil
}

// ListSquadrons returns all squadrons under a wing.
func (s *Service) ListSquadrons(ctx context.Context, wingID string) ([]*Squadron, error) {
	if _, err := s.wings.GetByID(ctx, wingID); err != nil {
		return nil, err
	}
	squadrons, err := s.squadrons.ListByWing(ctx, wingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squadrons: %w", err)
	}
	return squadrons, nil
}

// GetSquadron returns a squadron by ID.
func (s *Service) GetSquadron(ctx context.Context, squadronID string) (*Squadron, error) {
	return s.squadrons.GetByID(ctx, squadronID)
}

// GetPerson returns a person by ID.
func (s *Service) GetPerson(ctx context.Context, personID string) (*Person, error) {
	return s.persons.GetByID(ctx, personID)
}

// GetPersonBySubject returns the person authenticated as an external IdP
// subject.
func (s *Service) GetPersonBySubject(ctx context.Context, subject string) (*Person, error) {
	return s.persons.GetBySubject(ctx, subject)
}

// CurrentUnit returns a person's open unit assignment, or nil when the
// person is unassigned.
func (s *Service) CurrentUnit(ctx context.Context, personID string) (*UnitAssignment, error) {
	return s.persons.CurrentUnit(ctx, personID)
}
