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
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openroster/openroster/internal/observability/logger"
	"github.com/openroster/openroster/internal/org"
)

// ListWings lists all wings
// @Summary List wings
// @Tags Org
// @Produce json
// @Security BearerAuth
// @Success 200 {array} org.Wing
// @Failure 403 {object} map[string]string
// @Router /wings [get]
func (h *Handler) ListWings(w http.ResponseWriter, r *http.Request) {
	wings, err := h.orgService.ListWings(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list wings", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list wings")
		return
	}
	respondJSON(w, http.StatusOK, wings)
}

// ListSquadrons lists the squadrons under a wing
// @Summary List squadrons of a wing
// @Tags Org
// @Produce json
// @Security BearerAuth
// @Param wingID path string true "Wing ID"
// @Success 200 {array} org.Squadron
// @Failure 404 {object} map[string]string
// @Router /wings/{wingID}/squadrons [get]
func (h *Handler) ListSquadrons(w http.ResponseWriter, r *http.Request) {
	wingID := chi.URLParam(r, "wingID")

	squadrons, err := h.orgService.ListSquadrons(r.Context(), wingID)
	if err != nil {
		if errors.Is(err, org.ErrWingNotFound) {
			respondError(w, http.StatusNotFound, "wing not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to list squadrons",
			logger.Error(err),
			logger.WingID(wingID),
		)
		respondError(w, http.StatusInternalServerError, "failed to list squadrons")
		return
	}
	respondJSON(w, http.StatusOK, squadrons)
}

// GetPerson retrieves a person with their current unit
// @Summary Get person
// @Tags Org
// @Produce json
// @Security BearerAuth
// @Param personID path string true "Person ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /people/{personID} [get]
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	person, err := h.orgService.GetPerson(r.Context(), personID)
	if err != nil {
		if errors.Is(err, org.ErrPersonNotFound) {
			respondError(w, http.StatusNotFound, "person not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get person",
			logger.Error(err),
			logger.PersonID(personID),
		)
		respondError(w, http.StatusInternalServerError, "failed to get person")
		return
	}

	unit, err := h.orgService.CurrentUnit(r.Context(), personID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get current unit",
			logger.Error(err),
			logger.PersonID(personID),
		)
		respondError(w, http.StatusInternalServerError, "failed to get person")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"person":       person,
		"current_unit": unit,
	})
}

// ListRoles lists the role catalog
// @Summary List roles
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Success 200 {array} roster.Role
// @Router /roles [get]
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.rosterService.ListRoles(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list roles", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	respondJSON(w, http.StatusOK, roles)
}
