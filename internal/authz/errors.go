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

package authz

import "errors"

// Domain errors
var (
	// ErrIdentityNotFound means the caller could not be resolved to a known
	// person record. Distinct from a person with zero grants, which is a
	// legitimate state for a newly provisioned guest account.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrStoreUnavailable wraps transient lookup failures; the caller may
	// retry, the resolver never does.
	ErrStoreUnavailable = errors.New("store unavailable")
)
