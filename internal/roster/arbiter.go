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
	"github.com/openroster/openroster/internal/observability/logger"
)

// State of an arbitration attempt. Detected is the only state a resolution
// is accepted from; the other three are terminal.
type State string

const (
	StateDetected          State = "detected"
	StateCancelled         State = "cancelled"
	StateDuplicateAccepted State = "duplicate_accepted"
	StateIncumbentReplaced State = "incumbent_replaced"
)

// Decision is the caller's choice for a detected conflict. Exactly these
// three exist; there is no default and nothing is auto-picked.
type Decision string

const (
	DecisionCancel           Decision = "cancel"
	DecisionAcceptDuplicate  Decision = "accept_duplicate"
	DecisionReplaceIncumbent Decision = "replace_incumbent"
)

// Proposal is the assignment the caller wants committed.
type Proposal struct {
	PersonID      string    `json:"person_id"`
	RoleID        string    `json:"role_id"`
	SquadronID    string    `json:"squadron_id,omitempty"`
	EffectiveDate time.Time `json:"effective_date"`
	ActorID       string    `json:"actor_id,omitempty"`
}

// Attempt is the transient record of a detected conflict awaiting the
// caller's decision. It is a plain serializable value held by the caller
// and passed back into Resolve; the arbiter keeps no state between
// detection and resolution. Nothing is persisted until a resolution
// commits, and cancelling discards the attempt with zero side effects.
type Attempt struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Conflict   Conflict  `json:"conflict"`
	Proposal   Proposal  `json:"proposal"`
	DetectedAt time.Time `json:"detected_at"`
}

// Resolution is the outcome of resolving an attempt. Assignment carries the
// committed record directly (callers needing a wider consistent view
// re-query explicitly); it is nil after a cancel.
type Resolution struct {
	State      State       `json:"state"`
	Assignment *Assignment `json:"assignment,omitempty"`
}

// BeginArbitration suspends an assignment attempt over a detected conflict.
// No database writes occur here or in any later transition except the two
// committing ones.
func (s *Service) BeginArbitration(ctx context.Context, conflict Conflict, proposal Proposal) *Attempt {
	attempt := &Attempt{
		ID:         uuid.Must(uuid.NewV7()).String(),
		State:      StateDetected,
		Conflict:   conflict,
		Proposal:   proposal,
		DetectedAt: s.now(),
	}

	slog.InfoContext(ctx, "assignment conflict detected",
		logger.AttemptID(attempt.ID),
		logger.RoleName(conflict.RoleName),
		logger.PersonID(proposal.PersonID),
		logger.SquadronID(proposal.SquadronID),
	)
	s.audit.Log(ctx, audit.Event{
		Type:       audit.TypeConflictDetected,
		ActorID:    proposal.ActorID,
		PersonID:   proposal.PersonID,
		RoleID:     conflict.RoleID,
		SquadronID: proposal.SquadronID,
		Metadata: map[string]any{
			"attempt_id":     attempt.ID,
			"incumbent_id":   conflict.IncumbentID,
			"incumbent_name": conflict.IncumbentName,
			"role_name":      conflict.RoleName,
		},
	})
	s.metrics.conflictDetected(ctx)

	return attempt
}

// Resolve drives a pending attempt to one of its three terminal states.
// The attempt is caller-held state, so committing decisions first confirm
// the claimed conflict against the store and the exclusivity check is
// repeated inside the transaction that writes; if the world moved since
// detection the attempt re-enters Detected with a refreshed conflict and
// ErrConflictChanged is returned. On a failed write the attempt stays
// Detected and ErrCommitFailed is returned — a failed resolution is never
// assumed to have partially applied.
func (s *Service) Resolve(ctx context.Context, attempt *Attempt, decision Decision) (*Resolution, error) {
	if attempt == nil || attempt.State != StateDetected {
		return nil, ErrAttemptNotPending
	}

	switch decision {
	case DecisionCancel:
		return s.resolveCancel(ctx, attempt), nil
	case DecisionAcceptDuplicate:
		return s.resolveAcceptDuplicate(ctx, attempt)
	case DecisionReplaceIncumbent:
		return s.resolveReplaceIncumbent(ctx, attempt)
	default:
		return nil, ErrUnknownDecision
	}
}

// resolveCancel discards the attempt. Nothing was persisted, so there is
// nothing to clean up.
func (s *Service) resolveCancel(ctx context.Context, attempt *Attempt) *Resolution {
	attempt.State = StateCancelled

	s.audit.Log(ctx, audit.Event{
		Type:       audit.TypeConflictCancelled,
		ActorID:    attempt.Proposal.ActorID,
		PersonID:   attempt.Proposal.PersonID,
		RoleID:     attempt.Conflict.RoleID,
		SquadronID: attempt.Proposal.SquadronID,
		Metadata:   map[string]any{"attempt_id": attempt.ID},
	})
	s.metrics.resolved(ctx, DecisionCancel)

	return &Resolution{State: StateCancelled}
}

// confirmIncumbent re-runs the conflict check for a caller-held attempt and
// verifies the claimed incumbent against it. The attempt is client-supplied
// state: nothing in it is trusted until the store confirms the conflict it
// names still exists, so a forged incumbent assignment ID can never select
// which row a resolution ends. A vacated boundary returns a nil conflict; a
// different incumbent refreshes the attempt and returns ErrConflictChanged.
func (s *Service) confirmIncumbent(ctx context.Context, attempt *Attempt) (*Role, *Conflict, error) {
	role, err := s.roles.GetByID(ctx, attempt.Conflict.RoleID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reload role: %v", ErrStoreUnavailable, err)
	}

	conflict, err := s.FindConflict(ctx, role, attempt.Proposal.SquadronID, attempt.Proposal.PersonID)
	if err != nil {
		return nil, nil, err
	}
	if conflict != nil && conflict.IncumbentAssignmentID != attempt.Conflict.IncumbentAssignmentID {
		attempt.Conflict = *conflict
		attempt.DetectedAt = s.now()
		return nil, nil, fmt.Errorf("%w: incumbent is now %s", ErrConflictChanged, conflict.IncumbentName)
	}

	return role, conflict, nil
}

// resolveAcceptDuplicate commits the new assignment without ending the
// incumbent's: an intentional, audited exception leaving two simultaneous
// active holders.
func (s *Service) resolveAcceptDuplicate(ctx context.Context, attempt *Attempt) (*Resolution, error) {
	role, conflict, err := s.confirmIncumbent(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		// The incumbent left between detection and resolution; there is no
		// duplicate to accept, so the assignment commits alone.
		return s.commitVacated(ctx, attempt, role, StateDuplicateAccepted, DecisionAcceptDuplicate)
	}

	a := s.newAssignment(attempt.Proposal)

	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("%w: accept duplicate: %v", ErrCommitFailed, err)
	}

	attempt.State = StateDuplicateAccepted
	s.afterCommit(ctx, a)
	s.audit.Log(ctx, audit.Event{
		Type:       audit.TypeDuplicateAccepted,
		ActorID:    attempt.Proposal.ActorID,
		PersonID:   attempt.Proposal.PersonID,
		RoleID:     conflict.RoleID,
		SquadronID: attempt.Proposal.SquadronID,
		Metadata: map[string]any{
			"attempt_id":   attempt.ID,
			"incumbent_id": conflict.IncumbentID,
			"role_name":    conflict.RoleName,
		},
	})
	s.metrics.resolved(ctx, DecisionAcceptDuplicate)

	return &Resolution{State: StateDuplicateAccepted, Assignment: a}, nil
}

// resolveReplaceIncumbent ends the incumbent's assignment and commits the
// new one as a unit. Partial application would leave the role silently
// unheld or doubly held, so both writes share one transaction. Only a
// store-confirmed incumbent is ever ended: the assignment ID passed to
// Replace comes from the re-run conflict check, never from the attempt.
func (s *Service) resolveReplaceIncumbent(ctx context.Context, attempt *Attempt) (*Resolution, error) {
	role, conflict, err := s.confirmIncumbent(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return s.commitVacated(ctx, attempt, role, StateIncumbentReplaced, DecisionReplaceIncumbent)
	}

	a := s.newAssignment(attempt.Proposal)
	endAt := s.now()

	err = s.assignments.Replace(ctx, conflict.IncumbentAssignmentID, a, endAt)
	if err == nil {
		attempt.State = StateIncumbentReplaced
		s.afterCommit(ctx, a)
		s.invalidateGrants(ctx, conflict.IncumbentID)
		s.audit.Log(ctx, audit.Event{
			Type:       audit.TypeIncumbentReplaced,
			ActorID:    attempt.Proposal.ActorID,
			PersonID:   attempt.Proposal.PersonID,
			RoleID:     conflict.RoleID,
			SquadronID: attempt.Proposal.SquadronID,
			Metadata: map[string]any{
				"attempt_id":           attempt.ID,
				"incumbent_id":         conflict.IncumbentID,
				"incumbent_assignment": conflict.IncumbentAssignmentID,
				"role_name":            conflict.RoleName,
				"ended_at":             endAt,
			},
		})
		s.metrics.resolved(ctx, DecisionReplaceIncumbent)
		return &Resolution{State: StateIncumbentReplaced, Assignment: a}, nil
	}

	if errors.Is(err, ErrIncumbentGone) {
		return s.reDetect(ctx, attempt)
	}

	return nil, fmt.Errorf("%w: replace incumbent: %v", ErrCommitFailed, err)
}

// reDetect refreshes the conflict after a commit-time race. A new incumbent
// puts the attempt back in Detected with the fresh conflict; a vacated
// boundary lets the assignment commit guarded, which is indistinguishable
// from a conflict-free assignment once reached.
func (s *Service) reDetect(ctx context.Context, attempt *Attempt) (*Resolution, error) {
	role, conflict, err := s.confirmIncumbent(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		// The confirmed incumbent vanished inside Replace yet the check
		// still names them: a writer ended and re-created the assignment in
		// the window. Hand the attempt back rather than guess.
		attempt.Conflict = *conflict
		attempt.DetectedAt = s.now()
		return nil, fmt.Errorf("%w: incumbent reappeared", ErrConflictChanged)
	}

	return s.commitVacated(ctx, attempt, role, StateIncumbentReplaced, DecisionReplaceIncumbent)
}

// commitVacated commits an attempt whose conflict dissolved on its own: the
// incumbent left between detection and resolution. The insert stays guarded
// against yet another concurrent writer. The terminal state still names the
// decision the caller made.
func (s *Service) commitVacated(ctx context.Context, attempt *Attempt, role *Role, state State, decision Decision) (*Resolution, error) {
	a := s.newAssignment(attempt.Proposal)

	if role.Exclusive() && attempt.Proposal.SquadronID != "" {
		boundary, err := s.boundary(ctx, role, attempt.Proposal.SquadronID)
		if err != nil {
			return nil, err
		}
		if err := s.assignments.CreateGuarded(ctx, a, boundary); err != nil {
			if errors.Is(err, ErrBoundaryOccupied) {
				return nil, fmt.Errorf("%w: boundary reoccupied", ErrConflictChanged)
			}
			return nil, fmt.Errorf("%w: commit after incumbent left: %v", ErrCommitFailed, err)
		}
	} else {
		if err := s.assignments.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("%w: commit after incumbent left: %v", ErrCommitFailed, err)
		}
	}

	attempt.State = state
	s.afterCommit(ctx, a)
	s.metrics.resolved(ctx, decision)
	return &Resolution{State: state, Assignment: a}, nil
}
