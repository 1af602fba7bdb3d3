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
	"errors"
	"fmt"
	"log/slog"

	"github.com/openroster/openroster/internal/observability/logger"
	"github.com/openroster/openroster/internal/org"
)

// Conflict is a detected violation of an exclusive role's uniqueness rule:
// the role is already held by an active person within the boundary the new
// assignment would enter. It carries what the caller needs to present the
// three-way decision: who holds the role and what role it is.
type Conflict struct {
	RoleID                string `json:"role_id"`
	RoleName              string `json:"role_name"`
	IncumbentID           string `json:"incumbent_id"`
	IncumbentName         string `json:"incumbent_name"`
	IncumbentAssignmentID string `json:"incumbent_assignment_id"`
	SquadronID            string `json:"squadron_id"`
}

// FindConflict checks whether assigning role in targetSquadronID would
// violate the role's exclusivity, excluding excludePersonID (the person
// being (re)assigned) from consideration. It returns nil when the role is
// not exclusive, when no active holder occupies the boundary, or when no
// boundary exists because targetSquadronID is empty — assignment without a
// unit is a policy question for the caller, not this check.
func (s *Service) FindConflict(ctx context.Context, role *Role, targetSquadronID, excludePersonID string) (*Conflict, error) {
	if !role.Exclusive() {
		return nil, nil
	}
	if targetSquadronID == "" {
		return nil, nil
	}

	boundary, err := s.boundary(ctx, role, targetSquadronID)
	if err != nil {
		return nil, err
	}

	holders, err := s.assignments.ActiveHolders(ctx, role.ID, boundary, excludePersonID)
	if err != nil {
		return nil, fmt.Errorf("%w: query holders of %s: %v", ErrStoreUnavailable, role.ID, err)
	}

	switch len(holders) {
	case 0:
		return nil, nil
	case 1:
		h := holders[0]
		return &Conflict{
			RoleID:                role.ID,
			RoleName:              role.Name,
			IncumbentID:           h.PersonID,
			IncumbentName:         h.DisplayName,
			IncumbentAssignmentID: h.AssignmentID,
			SquadronID:            h.SquadronID,
		}, nil
	default:
		// Pre-existing corruption: the uniqueness rule is already broken.
		// Surface it; guessing which holder is legitimate is not ours to do.
		slog.ErrorContext(ctx, "multiple active holders of exclusive role",
			logger.RoleID(role.ID),
			logger.RoleName(role.Name),
			logger.SquadronID(targetSquadronID),
			slog.Int("holders", len(holders)),
		)
		s.audit.Log(ctx, invariantEvent(role, targetSquadronID, len(holders)))
		return nil, fmt.Errorf("%w: role %s has %d active holders", ErrInvariantViolation, role.Name, len(holders))
	}
}

// boundary resolves the squadron set the exclusivity rule spans: the target
// squadron itself, or every squadron under the target's wing.
func (s *Service) boundary(ctx context.Context, role *Role, targetSquadronID string) ([]string, error) {
	if role.Exclusivity == ExclusivitySquadron {
		return []string{targetSquadronID}, nil
	}

	sq, err := s.squadrons.GetByID(ctx, targetSquadronID)
	if err != nil {
		if errors.Is(err, org.ErrSquadronNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: resolve squadron %s: %v", ErrStoreUnavailable, targetSquadronID, err)
	}
	siblings, err := s.squadrons.ListByWing(ctx, sq.WingID)
	if err != nil {
		return nil, fmt.Errorf("%w: list squadrons of wing %s: %v", ErrStoreUnavailable, sq.WingID, err)
	}

	ids := make([]string, 0, len(siblings))
	for _, sib := range siblings {
		ids = append(ids, sib.ID)
	}
	return ids, nil
}
