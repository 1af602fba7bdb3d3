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
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/openroster/openroster/internal/audit"
	"github.com/openroster/openroster/internal/org"
)

// stubConfirmedIncumbent makes the store confirm the conflict that
// detectedAttempt carries: Alice still holds role-sl in sq-12.
func stubConfirmedIncumbent(f *fixture) {
	f.roles.On("GetByID", mock.Anything, "role-sl").Return(squadronLeaderRole(), nil)
	f.assignments.On("ActiveHolders", mock.Anything, "role-sl", []string{"sq-12"}, "bob").Return([]*Holder{
		{AssignmentID: "asgn-alice", PersonID: "alice", DisplayName: "Alice", SquadronID: "sq-12"},
	}, nil)
}

func detectedAttempt(f *fixture) *Attempt {
	return f.svc.BeginArbitration(context.Background(), Conflict{
		RoleID:                "role-sl",
		RoleName:              "Squadron Leader",
		IncumbentID:           "alice",
		IncumbentName:         "Alice",
		IncumbentAssignmentID: "asgn-alice",
		SquadronID:            "sq-12",
	}, Proposal{
		PersonID:   "bob",
		RoleID:     "role-sl",
		SquadronID: "sq-12",
		ActorID:    "admin",
	})
}

// TestPurpose: Validates that detection produces a pending, serializable
// attempt with a UUIDv7 identity, and audits the detection.
// Scope: Unit Test
// Expected: Detected state, conflict and proposal carried verbatim, a
// conflict_detected audit event, and a JSON round trip that loses nothing.
// Test Case ID: ARB-01
func TestBeginArbitration_DetectedAttempt(t *testing.T) {
	f := newFixture(t)

	attempt := detectedAttempt(f)

	assert.Equal(t, StateDetected, attempt.State)
	assert.Equal(t, "alice", attempt.Conflict.IncumbentID)
	assert.Equal(t, "bob", attempt.Proposal.PersonID)
	assert.Equal(t, f.now, attempt.DetectedAt)

	uid, err := uuid.Parse(attempt.ID)
	assert.NoError(t, err)
	assert.Equal(t, uuid.Version(7), uid.Version())

	events := f.audit.typed(audit.TypeConflictDetected)
	assert.Len(t, events, 1)
	assert.Equal(t, "admin", events[0].ActorID)
	assert.Equal(t, attempt.ID, events[0].Metadata["attempt_id"])

	// The attempt is a plain value the caller may hold across requests.
	raw, err := json.Marshal(attempt)
	assert.NoError(t, err)
	var restored Attempt
	assert.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, *attempt, restored)
}

// TestPurpose: Validates that only pending attempts accept a resolution and
// only the three defined decisions are accepted.
// Scope: Unit Test
// Expected: ErrAttemptNotPending for nil/terminal attempts; ErrUnknownDecision
// otherwise leaves the attempt untouched.
// Test Case ID: ARB-02
func TestResolve_GuardsStateAndDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, nil, DecisionCancel)
	assert.ErrorIs(t, err, ErrAttemptNotPending)

	attempt := detectedAttempt(f)
	attempt.State = StateCancelled
	_, err = f.svc.Resolve(ctx, attempt, DecisionCancel)
	assert.ErrorIs(t, err, ErrAttemptNotPending)

	attempt = detectedAttempt(f)
	_, err = f.svc.Resolve(ctx, attempt, Decision("coin_flip"))
	assert.ErrorIs(t, err, ErrUnknownDecision)
	assert.Equal(t, StateDetected, attempt.State)
}

// TestPurpose: Validates that cancelling discards the attempt with zero
// store writes; the incumbent is untouched.
// Scope: Unit Test
// Expected: Cancelled state, nil assignment, no repository calls, a
// conflict_cancelled audit event.
// Test Case ID: ARB-03
func TestResolve_Cancel_NoWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempt := detectedAttempt(f)

	resolution, err := f.svc.Resolve(ctx, attempt, DecisionCancel)

	assert.NoError(t, err)
	assert.Equal(t, StateCancelled, resolution.State)
	assert.Nil(t, resolution.Assignment)
	assert.Equal(t, StateCancelled, attempt.State)

	f.assignments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.assignments.AssertNotCalled(t, "CreateGuarded", mock.Anything, mock.Anything, mock.Anything)
	f.assignments.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	assert.Len(t, f.audit.typed(audit.TypeConflictCancelled), 1)
	assert.Empty(t, f.audit.typed(audit.TypeRoleAssigned))
}

// TestPurpose: Validates the accept-duplicate override: the new assignment
// commits while the incumbent's stays open, and the exception is audited.
// Scope: Unit Test
// Expected: DuplicateAccepted state, committed assignment for the proposer,
// no Replace call, a duplicate_accepted audit event naming the incumbent.
// Test Case ID: ARB-04
func TestResolve_AcceptDuplicate_BothHoldersRemain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempt := detectedAttempt(f)

	stubConfirmedIncumbent(f)
	f.assignments.On("Create", ctx, mock.MatchedBy(func(a *Assignment) bool {
		return a.PersonID == "bob" && a.RoleID == "role-sl" && a.SquadronID == "sq-12"
	})).Return(nil)

	resolution, err := f.svc.Resolve(ctx, attempt, DecisionAcceptDuplicate)

	assert.NoError(t, err)
	assert.Equal(t, StateDuplicateAccepted, resolution.State)
	assert.NotNil(t, resolution.Assignment)
	assert.Equal(t, "bob", resolution.Assignment.PersonID)
	assert.Equal(t, StateDuplicateAccepted, attempt.State)

	f.assignments.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	events := f.audit.typed(audit.TypeDuplicateAccepted)
	assert.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].Metadata["incumbent_id"])
}

// TestPurpose: Validates that a failed commit leaves the attempt pending and
// reports ErrCommitFailed; a failed resolution never half-applies.
// Scope: Unit Test
// Expected: ErrCommitFailed, attempt still Detected, no role_assigned audit.
// Test Case ID: ARB-05
func TestResolve_CommitFailure_AttemptStaysPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempt := detectedAttempt(f)

	stubConfirmedIncumbent(f)
	f.assignments.On("Create", ctx, mock.Anything).Return(errors.New("deadlock"))

	_, err := f.svc.Resolve(ctx, attempt, DecisionAcceptDuplicate)

	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.Equal(t, StateDetected, attempt.State)
	assert.Empty(t, f.audit.typed(audit.TypeRoleAssigned))

	// The same attempt may be resolved again.
	f2 := newFixture(t)
	attempt2 := detectedAttempt(f2)
	stubConfirmedIncumbent(f2)
	f2.assignments.On("Create", ctx, mock.Anything).Return(nil)
	resolution, err := f2.svc.Resolve(ctx, attempt2, DecisionAcceptDuplicate)
	assert.NoError(t, err)
	assert.Equal(t, StateDuplicateAccepted, resolution.State)
}

// TestPurpose: Validates the replace-incumbent path: the incumbent's
// assignment ends and the new one commits atomically via the repository's
// single-transaction Replace.
// Scope: Unit Test
// Expected: IncumbentReplaced state, Replace called with the incumbent's
// assignment ID and the arbiter's clock, an incumbent_replaced audit event.
// Test Case ID: ARB-06
func TestResolve_ReplaceIncumbent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempt := detectedAttempt(f)

	stubConfirmedIncumbent(f)
	f.assignments.On("Replace", ctx, "asgn-alice", mock.MatchedBy(func(a *Assignment) bool {
		return a.PersonID == "bob" && a.RoleID == "role-sl"
	}), f.now).Return(nil)

	resolution, err := f.svc.Resolve(ctx, attempt, DecisionReplaceIncumbent)

	assert.NoError(t, err)
	assert.Equal(t, StateIncumbentReplaced, resolution.State)
	assert.Equal(t, "bob", resolution.Assignment.PersonID)
	assert.Equal(t, StateIncumbentReplaced, attempt.State)

	events := f.audit.typed(audit.TypeIncumbentReplaced)
	assert.Len(t, events, 1)
	assert.Equal(t, "asgn-alice", events[0].Metadata["incumbent_assignment"])
}

// TestPurpose: Validates resolution-time re-validation: when the incumbent's
// assignment was concurrently ended and a different person now holds the
// role, the attempt re-enters Detected with the refreshed conflict and no
// write is attempted against the stale snapshot.
// Scope: Unit Test
// Security: No write applies against a conflict snapshot that went stale
// Expected: ErrConflictChanged, attempt pending with the new incumbent,
// Replace never called.
// Test Case ID: ARB-07
func TestResolve_ReplaceIncumbent_ConflictChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempt := detectedAttempt(f)

	f.roles.On("GetByID", ctx, "role-sl").Return(squadronLeaderRole(), nil)
	f.assignments.On("ActiveHolders", ctx, "role-sl", []string{"sq-12"}, "bob").Return([]*Holder{
		{AssignmentID: "asgn-carol", PersonID: "carol", DisplayName: "Carol", SquadronID: "sq-12"},
	}, nil)

	_, err := f.svc.Resolve(ctx, attempt, DecisionReplaceIncumbent)

	assert.ErrorIs(t, err, ErrConflictChanged)
	assert.Equal(t, StateDetected, attempt.State)
	assert.Equal(t, "carol", attempt.Conflict.IncumbentID)
	assert.Equal(t, "asgn-carol", attempt.Conflict.IncumbentAssignmentID)
	f.assignments.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates the vacated-boundary race: the incumbent left on
// their own, so the assignment commits guarded instead of replacing.
// Scope: Unit Test
// Expected: IncumbentReplaced terminal state via CreateGuarded; a reoccupied
// boundary during that commit surfaces as ErrConflictChanged instead.
// Test Case ID: ARB-08
func TestResolve_ReplaceIncumbent_IncumbentLeft(t *testing.T) {
	ctx := context.Background()

	t.Run("boundary vacated", func(t *testing.T) {
		f := newFixture(t)
		attempt := detectedAttempt(f)

		f.roles.On("GetByID", ctx, "role-sl").Return(squadronLeaderRole(), nil)
		f.assignments.On("ActiveHolders", ctx, "role-sl", []string{"sq-12"}, "bob").Return([]*Holder{}, nil)
		f.assignments.On("CreateGuarded", ctx, mock.Anything, []string{"sq-12"}).Return(nil)

		resolution, err := f.svc.Resolve(ctx, attempt, DecisionReplaceIncumbent)

		assert.NoError(t, err)
		assert.Equal(t, StateIncumbentReplaced, resolution.State)
		assert.Equal(t, "bob", resolution.Assignment.PersonID)
	})

	t.Run("boundary reoccupied mid-commit", func(t *testing.T) {
		f := newFixture(t)
		attempt := detectedAttempt(f)

		f.roles.On("GetByID", ctx, "role-sl").Return(squadronLeaderRole(), nil)
		f.assignments.On("ActiveHolders", ctx, "role-sl", []string{"sq-12"}, "bob").Return([]*Holder{}, nil)
		f.assignments.On("CreateGuarded", ctx, mock.Anything, []string{"sq-12"}).Return(ErrBoundaryOccupied)

		_, err := f.svc.Resolve(ctx, attempt, DecisionReplaceIncumbent)

		assert.ErrorIs(t, err, ErrConflictChanged)
	})
}

// TestPurpose: Validates wing-scoped replacement resolves the boundary across
// sibling squadrons before the guarded commit.
// Scope: Unit Test
// Expected: CreateGuarded receives every squadron of the wing.
// Test Case ID: ARB-09
func TestResolve_ReplaceIncumbent_WingBoundaryAfterVacancy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempt := f.svc.BeginArbitration(ctx, Conflict{
		RoleID:                "role-wc",
		RoleName:              "Wing Commander",
		IncumbentID:           "alice",
		IncumbentName:         "Alice",
		IncumbentAssignmentID: "asgn-alice",
		SquadronID:            "sq-34",
	}, Proposal{PersonID: "bob", RoleID: "role-wc", SquadronID: "sq-12", ActorID: "admin"})

	f.roles.On("GetByID", ctx, "role-wc").Return(wingCommanderRole(), nil)
	f.squadrons.On("GetByID", ctx, "sq-12").Return(&org.Squadron{ID: "sq-12", WingID: "wing-1"}, nil)
	f.squadrons.On("ListByWing", ctx, "wing-1").Return([]*org.Squadron{
		{ID: "sq-12", WingID: "wing-1"},
		{ID: "sq-34", WingID: "wing-1"},
	}, nil)
	f.assignments.On("ActiveHolders", ctx, "role-wc", []string{"sq-12", "sq-34"}, "bob").Return([]*Holder{}, nil)
	f.assignments.On("CreateGuarded", ctx, mock.Anything, []string{"sq-12", "sq-34"}).Return(nil)

	resolution, err := f.svc.Resolve(ctx, attempt, DecisionReplaceIncumbent)

	assert.NoError(t, err)
	assert.Equal(t, StateIncumbentReplaced, resolution.State)
}

// TestPurpose: Validates that a tampered attempt naming an arbitrary
// assignment as the incumbent cannot direct a resolution at that row. The
// store re-confirms the conflict and the committing decisions reject the
// mismatch before any write.
// Scope: Unit Test
// Security: Authorization Bypass via Client-Held State (CWE-639)
// Expected: ErrConflictChanged, attempt refreshed to the true incumbent,
// no Replace, Create, or CreateGuarded call.
// Test Case ID: ARB-10
func TestResolve_TamperedIncumbent_Rejected(t *testing.T) {
	ctx := context.Background()

	for _, decision := range []Decision{DecisionReplaceIncumbent, DecisionAcceptDuplicate} {
		t.Run(string(decision), func(t *testing.T) {
			f := newFixture(t)
			attempt := detectedAttempt(f)
			attempt.Conflict.IncumbentAssignmentID = "asgn-victim"
			attempt.Conflict.IncumbentID = "victim"
			attempt.Conflict.IncumbentName = "Victim"

			stubConfirmedIncumbent(f)

			_, err := f.svc.Resolve(ctx, attempt, decision)

			assert.ErrorIs(t, err, ErrConflictChanged)
			assert.Equal(t, StateDetected, attempt.State)
			assert.Equal(t, "asgn-alice", attempt.Conflict.IncumbentAssignmentID)
			assert.Equal(t, "alice", attempt.Conflict.IncumbentID)

			f.assignments.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.assignments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.assignments.AssertNotCalled(t, "CreateGuarded", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
