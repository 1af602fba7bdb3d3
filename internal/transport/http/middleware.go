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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/openroster/openroster/internal/audit"
	"github.com/openroster/openroster/internal/authz"
	"github.com/openroster/openroster/internal/observability/logger"
	"github.com/openroster/openroster/internal/org"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware verifies the bearer token against the external IdP, maps
// its subject onto a person record, and resolves the caller's grants
// snapshot into the request context. The snapshot belongs to this request
// alone; nothing downstream mutates it.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims, err := h.verifier.VerifyToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		person, err := h.orgService.GetPersonBySubject(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, org.ErrPersonNotFound) {
				respondError(w, http.StatusUnauthorized, "unknown subject")
				return
			}
			respondError(w, http.StatusServiceUnavailable, "identity lookup failed")
			return
		}

		grants, err := h.resolver.Resolve(r.Context(), person.ID)
		if err != nil {
			// A person that exists but cannot be resolved is a store
			// problem, not a permission decision.
			respondError(w, http.StatusServiceUnavailable, "authorization unavailable")
			return
		}

		ctx := context.WithValue(r.Context(), personIDKey, person.ID)
		ctx = context.WithValue(ctx, subjectKey, claims.Subject)
		ctx = context.WithValue(ctx, grantsKey, grants)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on a capability evaluated without a
// request context (visibility gate). Handlers that act on a specific unit
// evaluate again with the full context. Denials carry no detail about why
// scoping failed.
func (h *Handler) RequirePermission(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !h.evaluate(r.Context(), capability, nil) {
				h.denied(w, r, capability, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// evaluate runs a permission check against the caller's grants snapshot and
// counts the outcome.
func (h *Handler) evaluate(ctx context.Context, capability string, evalCtx *authz.Context) bool {
	allowed := authz.Evaluate(GetGrants(ctx), capability, evalCtx)
	h.metrics.permissionChecked(ctx, capability, allowed)
	return allowed
}

// denied responds with a uniform "no access" and audits the denial.
func (h *Handler) denied(w http.ResponseWriter, r *http.Request, capability string, ctx *authz.Context) {
	meta := map[string]any{"capability": capability}
	if ctx != nil {
		meta["squadron_id"] = ctx.SquadronID
		meta["wing_id"] = ctx.WingID
	}
	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypePermissionDenied,
		ActorID:   GetPersonID(r.Context()),
		Metadata:  meta,
		IPAddress: getIPAddress(r),
	})
	respondError(w, http.StatusForbidden, "no access")
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
