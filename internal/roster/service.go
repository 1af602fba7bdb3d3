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
	"time"

	"github.com/google/uuid"

	"github.com/openroster/openroster/internal/audit"
	"github.com/openroster/openroster/internal/authz"
	"github.com/openroster/openroster/internal/observability/logger"
	"github.com/openroster/openroster/internal/org"
)

// Service owns role assignment: the exclusivity check, the conflict
// arbitration protocol, and the committed writes. Detection and commit are
// its only store round trips; it runs no background work.
type Service struct {
	roles       RoleRepository
	assignments AssignmentRepository
	squadrons   org.SquadronRepository
	grantsCache authz.GrantsCache // nil when caching is disabled
	audit       audit.Logger
	metrics     *Metrics
	now         func() time.Time
}

// NewService creates a roster service. grantsCache and metrics may be nil.
func NewService(
	roles RoleRepository,
	assignments AssignmentRepository,
	squadrons org.SquadronRepository,
	grantsCache authz.GrantsCache,
	auditLogger audit.Logger,
	metrics *Metrics,
) *Service {
	return &Service{
		roles:       roles,
		assignments: assignments,
		squadrons:   squadrons,
		grantsCache: grantsCache,
		audit:       auditLogger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// AssignOutcome is the result of an assignment attempt: either a committed
// assignment, or a pending arbitration attempt the caller must resolve.
type AssignOutcome struct {
	Assignment *Assignment `json:"assignment,omitempty"`
	Attempt    *Attempt    `json:"attempt,omitempty"`
}

// GetRole returns a role from the catalog.
func (s *Service) GetRole(ctx context.Context, roleID string) (*Role, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role, nil
}

// ListRoles returns the role catalog.
func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.roles.List(ctx)
}

// Assign attempts to give proposal.PersonID the role. Non-exclusive roles
// commit directly. Exclusive roles are conflict-checked first; a detected
// conflict suspends the attempt into arbitration instead of committing.
// Even a clean advisory check commits through the guarded insert, which
// re-counts under the writing transaction, so a concurrent assignment of
// the same role surfaces as a fresh Detected attempt rather than a silent
// double-hold.
func (s *Service) Assign(ctx context.Context, proposal Proposal) (*AssignOutcome, error) {
	role, err := s.roles.GetByID(ctx, proposal.RoleID)
	if err != nil {
		return nil, err
	}

	if proposal.EffectiveDate.IsZero() {
		proposal.EffectiveDate = s.now()
	}

	conflict, err := s.FindConflict(ctx, role, proposal.SquadronID, proposal.PersonID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return &AssignOutcome{Attempt: s.BeginArbitration(ctx, *conflict, proposal)}, nil
	}

	a := s.newAssignment(proposal)

	if role.Exclusive() && proposal.SquadronID != "" {
		boundary, err := s.boundary(ctx, role, proposal.SquadronID)
		if err != nil {
			return nil, err
		}
		err = s.assignments.CreateGuarded(ctx, a, boundary)
		if errors.Is(err, ErrBoundaryOccupied) {
			// Lost a check-then-act race: someone committed between our
			// advisory check and the guarded insert. Re-detect and hand the
			// caller a conflict to arbitrate.
			conflict, cerr := s.FindConflict(ctx, role, proposal.SquadronID, proposal.PersonID)
			if cerr != nil {
				return nil, cerr
			}
			if conflict == nil {
				return nil, fmt.Errorf("%w: boundary occupied but no holder visible", ErrStoreUnavailable)
			}
			return &AssignOutcome{Attempt: s.BeginArbitration(ctx, *conflict, proposal)}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: assign %s: %v", ErrCommitFailed, role.Name, err)
		}
	} else {
		if err := s.assignments.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("%w: assign %s: %v", ErrCommitFailed, role.Name, err)
		}
	}

	s.afterCommit(ctx, a)
	return &AssignOutcome{Assignment: a}, nil
}

// newAssignment builds the assignment record a proposal commits as.
func (s *Service) newAssignment(p Proposal) *Assignment {
	effective := p.EffectiveDate
	if effective.IsZero() {
		effective = s.now()
	}
	return &Assignment{
		ID:            uuid.Must(uuid.NewV7()).String(),
		PersonID:      p.PersonID,
		RoleID:        p.RoleID,
		SquadronID:    p.SquadronID,
		EffectiveDate: effective,
		CreatedBy:     p.ActorID,
	}
}

// afterCommit logs and audits a committed assignment and drops the
// assignee's cached grants, since their derived capabilities just changed.
func (s *Service) afterCommit(ctx context.Context, a *Assignment) {
	slog.InfoContext(ctx, "role assignment committed",
		logger.PersonID(a.PersonID),
		logger.RoleID(a.RoleID),
		logger.SquadronID(a.SquadronID),
	)
	s.audit.Log(ctx, audit.Event{
		Type:       audit.TypeRoleAssigned,
		ActorID:    a.CreatedBy,
		PersonID:   a.PersonID,
		RoleID:     a.RoleID,
		SquadronID: a.SquadronID,
		Metadata:   map[string]any{"assignment_id": a.ID},
	})
	s.invalidateGrants(ctx, a.PersonID)
}

func (s *Service) invalidateGrants(ctx context.Context, personID string) {
	if s.grantsCache == nil || personID == "" {
		return
	}
	if err := s.grantsCache.Invalidate(ctx, personID); err != nil {
		slog.WarnContext(ctx, "grants cache invalidation failed",
			logger.PersonID(personID), logger.Error(err))
	}
}

func invariantEvent(role *Role, squadronID string, holders int) audit.Event {
	return audit.Event{
		Type:       audit.TypeInvariantViolation,
		RoleID:     role.ID,
		SquadronID: squadronID,
		Metadata: map[string]any{
			"role_name":      role.Name,
			"active_holders": holders,
		},
	}
}
