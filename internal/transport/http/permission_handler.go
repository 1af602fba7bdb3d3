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
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/openroster/openroster/internal/authz"
	"github.com/openroster/openroster/internal/org"
)

// GetMyGrants returns the caller's resolved grants snapshot
// @Summary Get my grants
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /me/grants [get]
func (h *Handler) GetMyGrants(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"person_id": GetPersonID(r.Context()),
		"grants":    GetGrants(r.Context()),
	})
}

// CheckPermissionRequest asks whether the caller holds a capability,
// optionally against a specific unit.
type CheckPermissionRequest struct {
	Capability string `json:"capability"`
	SquadronID string `json:"squadron_id,omitempty"`
	WingID     string `json:"wing_id,omitempty"`
}

// Validate implements request validation
func (req CheckPermissionRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Capability, validation.Required, validation.Length(1, 128)),
		validation.Field(&req.SquadronID, validation.Length(0, 64)),
		validation.Field(&req.WingID, validation.Length(0, 64)),
	)
}

// CheckPermission evaluates a capability for the caller
// @Summary Check a permission
// @Description Evaluates a capability against the caller's grants, optionally in the context of a squadron or wing
// @Tags Permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckPermissionRequest true "Check"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /permissions/check [post]
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	var req CheckPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	evalCtx, err := h.evalContext(r, req.SquadronID, req.WingID)
	if err != nil {
		if errors.Is(err, org.ErrSquadronNotFound) {
			respondError(w, http.StatusBadRequest, "unknown squadron")
			return
		}
		respondError(w, http.StatusServiceUnavailable, "check unavailable")
		return
	}

	allowed := h.evaluate(r.Context(), req.Capability, evalCtx)
	respondJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

// evalContext builds the evaluation context for a request. A squadron ID
// without a wing ID resolves the squadron's parent wing, so wing-anchored
// grants match requests that only name the squadron. No unit at all means
// a context-free evaluation.
func (h *Handler) evalContext(r *http.Request, squadronID, wingID string) (*authz.Context, error) {
	if squadronID == "" && wingID == "" {
		return nil, nil
	}
	if squadronID != "" && wingID == "" {
		sq, err := h.orgService.GetSquadron(r.Context(), squadronID)
		if err != nil {
			return nil, err
		}
		wingID = sq.WingID
	}
	return &authz.Context{SquadronID: squadronID, WingID: wingID}, nil
}
