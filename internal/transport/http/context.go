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

	"github.com/openroster/openroster/internal/authz"
)

type contextKey string

const (
	personIDKey contextKey = "person_id"
	subjectKey  contextKey = "subject"
	grantsKey   contextKey = "grants"
)

// GetPersonID retrieves the authenticated caller's person ID from context.
func GetPersonID(ctx context.Context) string {
	if val, ok := ctx.Value(personIDKey).(string); ok {
		return val
	}
	return ""
}

// GetSubject retrieves the IdP subject from context.
func GetSubject(ctx context.Context) string {
	if val, ok := ctx.Value(subjectKey).(string); ok {
		return val
	}
	return ""
}

// GetGrants retrieves the caller's grants snapshot from context. The
// snapshot is request-scoped and read-only.
func GetGrants(ctx context.Context) authz.Grants {
	if val, ok := ctx.Value(grantsKey).(authz.Grants); ok {
		return val
	}
	return nil
}
