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

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/openroster/openroster/internal/observability/logger"
	"github.com/openroster/openroster/internal/org"
	"github.com/openroster/openroster/internal/roster"
)

// CreateAssignmentRequest proposes a role assignment
type CreateAssignmentRequest struct {
	PersonID      string    `json:"person_id"`
	RoleID        string    `json:"role_id"`
	SquadronID    string    `json:"squadron_id,omitempty"`
	EffectiveDate time.Time `json:"effective_date,omitempty"`
}

// Validate implements request validation
func (req CreateAssignmentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.PersonID, validation.Required, validation.Length(1, 64)),
		validation.Field(&req.RoleID, validation.Required, validation.Length(1, 64)),
		validation.Field(&req.SquadronID, validation.Length(0, 64)),
	)
}

// CreateAssignment assigns a role to a person
// @Summary Create a role assignment
// @Description Commits the assignment, or suspends it into arbitration when an exclusive role already has an active holder within the boundary
// @Tags Roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAssignmentRequest true "Proposal"
// @Success 201 {object} roster.AssignOutcome
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} roster.AssignOutcome
// @Router /assignments [post]
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.allowManage(w, r, req.SquadronID) {
		return
	}

	outcome, err := h.rosterService.Assign(r.Context(), roster.Proposal{
		PersonID:      req.PersonID,
		RoleID:        req.RoleID,
		SquadronID:    req.SquadronID,
		EffectiveDate: req.EffectiveDate,
		ActorID:       GetPersonID(r.Context()),
	})
	if err != nil {
		h.respondRosterError(w, r, err)
		return
	}

	if outcome.Attempt != nil {
		// Not committed; the caller holds the attempt and must resolve it.
		respondJSON(w, http.StatusConflict, outcome)
		return
	}
	respondJSON(w, http.StatusCreated, outcome)
}

// ResolveAssignmentRequest resolves a pending arbitration attempt
type ResolveAssignmentRequest struct {
	Attempt  roster.Attempt `json:"attempt"`
	Decision string         `json:"decision"`
}

// Validate implements request validation
func (req ResolveAssignmentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Decision, validation.Required, validation.In(
			string(roster.DecisionCancel),
			string(roster.DecisionAcceptDuplicate),
			string(roster.DecisionReplaceIncumbent),
		)),
	)
}

// ResolveAssignment drives a pending attempt to a terminal state
// @Summary Resolve an assignment conflict
// @Description Applies the caller's decision to a detected conflict. A commit-time race returns 409 with the refreshed attempt for another round.
// @Tags Roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ResolveAssignmentRequest true "Decision"
// @Success 200 {object} roster.Resolution
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]any
// @Router /assignments/resolve [post]
func (h *Handler) ResolveAssignment(w http.ResponseWriter, r *http.Request) {
	var req ResolveAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.allowManage(w, r, req.Attempt.Proposal.SquadronID) {
		return
	}

	attempt := req.Attempt
	resolution, err := h.rosterService.Resolve(r.Context(), &attempt, roster.Decision(req.Decision))
	if err != nil {
		if errors.Is(err, roster.ErrConflictChanged) {
			// The world moved between detection and commit. Hand back the
			// refreshed attempt so the caller can decide again.
			respondJSON(w, http.StatusConflict, map[string]any{
				"error":   "conflict changed",
				"attempt": attempt,
			})
			return
		}
		if errors.Is(err, roster.ErrAttemptNotPending) {
			respondError(w, http.StatusConflict, "attempt is not pending")
			return
		}
		if errors.Is(err, roster.ErrUnknownDecision) {
			respondError(w, http.StatusBadRequest, "unknown decision")
			return
		}
		h.respondRosterError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resolution)
}

// allowManage enforces manage_roster against the target unit. It writes the
// denial response itself and reports whether the handler may proceed.
func (h *Handler) allowManage(w http.ResponseWriter, r *http.Request, squadronID string) bool {
	evalCtx, err := h.evalContext(r, squadronID, "")
	if err != nil {
		if errors.Is(err, org.ErrSquadronNotFound) {
			respondError(w, http.StatusBadRequest, "unknown squadron")
			return false
		}
		respondError(w, http.StatusServiceUnavailable, "authorization unavailable")
		return false
	}

	if !h.evaluate(r.Context(), capManageRoster, evalCtx) {
		h.denied(w, r, capManageRoster, evalCtx)
		return false
	}
	return true
}

// respondRosterError maps roster service errors onto HTTP statuses.
func (h *Handler) respondRosterError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, roster.ErrRoleNotFound):
		respondError(w, http.StatusNotFound, "role not found")
	case errors.Is(err, org.ErrSquadronNotFound):
		respondError(w, http.StatusBadRequest, "unknown squadron")
	case errors.Is(err, roster.ErrInvariantViolation):
		slog.ErrorContext(r.Context(), "exclusivity invariant violated", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "exclusivity invariant violated")
	case errors.Is(err, roster.ErrCommitFailed):
		slog.ErrorContext(r.Context(), "assignment commit failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "assignment not committed")
	default:
		slog.ErrorContext(r.Context(), "assignment failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "assignment failed")
	}
}
