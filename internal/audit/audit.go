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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeRoleAssigned       = "role_assigned"
	TypeRoleEnded          = "role_ended"
	TypeConflictDetected   = "conflict_detected"
	TypeConflictCancelled  = "conflict_cancelled"
	TypeDuplicateAccepted  = "duplicate_accepted"
	TypeIncumbentReplaced  = "incumbent_replaced"
	TypePermissionDenied   = "permission_denied"
	TypeInvariantViolation = "invariant_violation"
)

// Event represents an auditable action
type Event struct {
	Type       string
	ActorID    string
	PersonID   string
	RoleID     string
	SquadronID string
	Metadata   map[string]any
	Timestamp  time.Time
	IPAddress  string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("actor_id", event.ActorID),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.PersonID != "" {
		attrs = append(attrs, slog.String("person_id", event.PersonID))
	}
	if event.RoleID != "" {
		attrs = append(attrs, slog.String("role_id", event.RoleID))
	}
	if event.SquadronID != "" {
		attrs = append(attrs, slog.String("squadron_id", event.SquadronID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			// Redact secrets
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	// Log at INFO level with "audit" component
	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	lower := strings.ToLower(key)
	secrets := []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}
	for _, s := range secrets {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
