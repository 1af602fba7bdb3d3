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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/openroster/openroster/internal/audit"
	"github.com/openroster/openroster/internal/org"
)

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id string) (*Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Role), args.Error(1)
}

func (m *mockRoleRepo) List(ctx context.Context) ([]*Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Role), args.Error(1)
}

type mockAssignmentRepo struct {
	mock.Mock
}

func (m *mockAssignmentRepo) ActiveHolders(ctx context.Context, roleID string, squadronIDs []string, excludePersonID string) ([]*Holder, error) {
	args := m.Called(ctx, roleID, squadronIDs, excludePersonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Holder), args.Error(1)
}

func (m *mockAssignmentRepo) Create(ctx context.Context, a *Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAssignmentRepo) CreateGuarded(ctx context.Context, a *Assignment, boundary []string) error {
	args := m.Called(ctx, a, boundary)
	return args.Error(0)
}

func (m *mockAssignmentRepo) Replace(ctx context.Context, incumbentAssignmentID string, a *Assignment, endAt time.Time) error {
	args := m.Called(ctx, incumbentAssignmentID, a, endAt)
	return args.Error(0)
}

type mockSquadronRepo struct {
	mock.Mock
}

func (m *mockSquadronRepo) GetByID(ctx context.Context, id string) (*org.Squadron, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*org.Squadron), args.Error(1)
}

func (m *mockSquadronRepo) ListByWing(ctx context.Context, wingID string) ([]*org.Squadron, error) {
	args := m.Called(ctx, wingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*org.Squadron), args.Error(1)
}

// auditRecorder captures events for inspection.
type auditRecorder struct {
	events []audit.Event
}

func (a *auditRecorder) Log(ctx context.Context, event audit.Event) {
	a.events = append(a.events, event)
}

func (a *auditRecorder) typed(t string) []audit.Event {
	var out []audit.Event
	for _, e := range a.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	roles       *mockRoleRepo
	assignments *mockAssignmentRepo
	squadrons   *mockSquadronRepo
	audit       *auditRecorder
	svc         *Service
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		roles:       new(mockRoleRepo),
		assignments: new(mockAssignmentRepo),
		squadrons:   new(mockSquadronRepo),
		audit:       &auditRecorder{},
		now:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.roles, f.assignments, f.squadrons, nil, f.audit, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func squadronLeaderRole() *Role {
	return &Role{ID: "role-sl", Name: "Squadron Leader", Exclusivity: ExclusivitySquadron}
}

func wingCommanderRole() *Role {
	return &Role{ID: "role-wc", Name: "Wing Commander", Exclusivity: ExclusivityWing}
}

// TestPurpose: Validates the non-exclusive fast path: no boundary is resolved
// and no holders are queried.
// Scope: Unit Test
// Expected: nil conflict, zero store round trips.
// Test Case ID: CON-01
func TestFindConflict_NonExclusiveRole_NoCheck(t *testing.T) {
	f := newFixture(t)
	role := &Role{ID: "role-m", Name: "Member", Exclusivity: ExclusivityNone}

	conflict, err := f.svc.FindConflict(context.Background(), role, "sq-1", "")

	assert.NoError(t, err)
	assert.Nil(t, conflict)
	f.assignments.AssertNotCalled(t, "ActiveHolders", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.squadrons.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that an exclusive assignment without a target unit
// has no boundary and therefore no conflict.
// Scope: Unit Test
// Expected: nil conflict, no holder query.
// Test Case ID: CON-02
func TestFindConflict_EmptyTargetUnit_NoBoundary(t *testing.T) {
	f := newFixture(t)

	conflict, err := f.svc.FindConflict(context.Background(), squadronLeaderRole(), "", "")

	assert.NoError(t, err)
	assert.Nil(t, conflict)
	f.assignments.AssertNotCalled(t, "ActiveHolders", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates squadron-scoped exclusivity: the boundary is exactly
// the target squadron and an active holder there conflicts.
// Scope: Unit Test
// Expected: Conflict carrying the incumbent's identity and assignment.
// Test Case ID: CON-03
func TestFindConflict_SquadronBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := squadronLeaderRole()

	f.assignments.On("ActiveHolders", ctx, "role-sl", []string{"sq-12"}, "").Return([]*Holder{
		{AssignmentID: "asgn-1", PersonID: "alice", DisplayName: "Alice", SquadronID: "sq-12"},
	}, nil)

	conflict, err := f.svc.FindConflict(ctx, role, "sq-12", "")

	assert.NoError(t, err)
	assert.NotNil(t, conflict)
	assert.Equal(t, "role-sl", conflict.RoleID)
	assert.Equal(t, "Squadron Leader", conflict.RoleName)
	assert.Equal(t, "alice", conflict.IncumbentID)
	assert.Equal(t, "Alice", conflict.IncumbentName)
	assert.Equal(t, "asgn-1", conflict.IncumbentAssignmentID)
	assert.Equal(t, "sq-12", conflict.SquadronID)
	// Squadron scope never touches the org hierarchy.
	f.squadrons.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// TestPurpose: Validates wing-scoped exclusivity: the boundary spans every
// squadron of the target's wing, so a holder in a sibling squadron conflicts.
// Scope: Unit Test
// Expected: The Wing Commander in SQ-34 blocks an assignment into SQ-12.
// Test Case ID: CON-04
func TestFindConflict_WingBoundary_CrossSquadron(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := wingCommanderRole()

	f.squadrons.On("GetByID", ctx, "sq-12").Return(&org.Squadron{ID: "sq-12", WingID: "wing-1"}, nil)
	f.squadrons.On("ListByWing", ctx, "wing-1").Return([]*org.Squadron{
		{ID: "sq-12", WingID: "wing-1"},
		{ID: "sq-34", WingID: "wing-1"},
		{ID: "sq-56", WingID: "wing-1"},
	}, nil)
	f.assignments.On("ActiveHolders", ctx, "role-wc", []string{"sq-12", "sq-34", "sq-56"}, "").Return([]*Holder{
		{AssignmentID: "asgn-9", PersonID: "bob", DisplayName: "Bob", SquadronID: "sq-34"},
	}, nil)

	conflict, err := f.svc.FindConflict(ctx, role, "sq-12", "")

	assert.NoError(t, err)
	assert.NotNil(t, conflict)
	assert.Equal(t, "bob", conflict.IncumbentID)
	assert.Equal(t, "sq-34", conflict.SquadronID)
}

// TestPurpose: Validates that a vacant boundary yields no conflict, and that
// the holder query excludes the person being assigned (self-reassignment
// never conflicts with oneself).
// Scope: Unit Test
// Expected: nil conflict; excludePersonID forwarded to the query.
// Test Case ID: CON-05
func TestFindConflict_VacantBoundary_AndSelfExclusion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := squadronLeaderRole()

	f.assignments.On("ActiveHolders", ctx, "role-sl", []string{"sq-12"}, "alice").Return([]*Holder{}, nil)

	conflict, err := f.svc.FindConflict(ctx, role, "sq-12", "alice")

	assert.NoError(t, err)
	assert.Nil(t, conflict)
	f.assignments.AssertCalled(t, "ActiveHolders", ctx, "role-sl", []string{"sq-12"}, "alice")
}

// TestPurpose: Validates that pre-existing corruption (two active holders of
// an exclusive role in one boundary) surfaces as an error and is audited,
// never silently repaired or arbitrarily resolved.
// Scope: Unit Test
// Expected: ErrInvariantViolation plus an invariant_violation audit event.
// Test Case ID: CON-06
func TestFindConflict_MultipleHolders_InvariantViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := squadronLeaderRole()

	f.assignments.On("ActiveHolders", ctx, "role-sl", []string{"sq-12"}, "").Return([]*Holder{
		{AssignmentID: "asgn-1", PersonID: "alice", DisplayName: "Alice", SquadronID: "sq-12"},
		{AssignmentID: "asgn-2", PersonID: "bob", DisplayName: "Bob", SquadronID: "sq-12"},
	}, nil)

	conflict, err := f.svc.FindConflict(ctx, role, "sq-12", "")

	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Nil(t, conflict)

	events := f.audit.typed(audit.TypeInvariantViolation)
	assert.Len(t, events, 1)
	assert.Equal(t, "role-sl", events[0].RoleID)
	assert.Equal(t, 2, events[0].Metadata["active_holders"])
}

// TestPurpose: Validates that an unknown target squadron under wing
// exclusivity surfaces the org error unchanged.
// Scope: Unit Test
// Expected: org.ErrSquadronNotFound.
// Test Case ID: CON-07
func TestFindConflict_UnknownSquadron(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.squadrons.On("GetByID", ctx, "sq-404").Return(nil, org.ErrSquadronNotFound)

	conflict, err := f.svc.FindConflict(ctx, wingCommanderRole(), "sq-404", "")

	assert.ErrorIs(t, err, org.ErrSquadronNotFound)
	assert.Nil(t, conflict)
}
