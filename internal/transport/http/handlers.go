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

// @title OpenRoster API
// @version 1.0.0
// @description Roster and personnel management with scope-based permissions
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/openroster/openroster/internal/audit"
	"github.com/openroster/openroster/internal/authz"
	"github.com/openroster/openroster/internal/identity"
	"github.com/openroster/openroster/internal/org"
	"github.com/openroster/openroster/internal/roster"
)

// Capabilities gating the HTTP surface. The role catalog defines which
// roles carry them and at which scopes.
const (
	capViewRoster   = "view_roster"
	capManageRoster = "manage_roster"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	orgService    *org.Service
	rosterService *roster.Service
	resolver      *authz.Resolver
	verifier      identity.Verifier
	auditLogger   audit.Logger
	metrics       *Metrics
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orgService *org.Service,
	rosterService *roster.Service,
	resolver *authz.Resolver,
	verifier identity.Verifier,
	auditLogger audit.Logger,
	metrics *Metrics,
) *Handler {
	return &Handler{
		orgService:    orgService,
		rosterService: rosterService,
		resolver:      resolver,
		verifier:      verifier,
		auditLogger:   auditLogger,
		metrics:       metrics,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		// Caller's own grants and permission checks need no gate: the
		// answer already is the gate.
		r.Get("/me/grants", h.GetMyGrants)
		r.Post("/permissions/check", h.CheckPermission)

		// Org directory
		r.Group(func(r chi.Router) {
			r.Use(h.RequirePermission(capViewRoster))
			r.Get("/wings", h.ListWings)
			r.Get("/wings/{wingID}/squadrons", h.ListSquadrons)
			r.Get("/people/{personID}", h.GetPerson)
			r.Get("/roles", h.ListRoles)
		})

		// Role assignment; per-unit scoping is enforced inside the
		// handlers, which evaluate against the target squadron.
		r.Group(func(r chi.Router) {
			r.Use(h.RequirePermission(capManageRoster))
			r.Post("/assignments", h.CreateAssignment)
			r.Post("/assignments/resolve", h.ResolveAssignment)
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "openroster",
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
