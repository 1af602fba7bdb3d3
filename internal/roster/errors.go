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

import "errors"

// Domain errors
var (
	ErrRoleNotFound = errors.New("role not found")

	// ErrStoreUnavailable wraps transient I/O failures during conflict
	// queries or commits; the caller may retry, the engine never does.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvariantViolation means the boundary check found data already
	// inconsistent with the uniqueness rule (two or more active holders of
	// an exclusive role). Surfaced, never silently repaired.
	ErrInvariantViolation = errors.New("exclusivity invariant violated")

	// ErrCommitFailed means a resolution's write did not complete. The
	// attempt stays Detected; it must be retried or cancelled, never
	// assumed to have partially succeeded.
	ErrCommitFailed = errors.New("commit failed")

	// ErrConflictChanged means the conflicting state moved between
	// detection and commit; the attempt re-enters Detected with the
	// refreshed conflict.
	ErrConflictChanged = errors.New("conflict changed since detection")

	// ErrBoundaryOccupied is returned by guarded inserts when the
	// commit-time re-check finds an active holder in the boundary.
	ErrBoundaryOccupied = errors.New("exclusive role already held within boundary")

	// ErrIncumbentGone is returned by Replace when the incumbent
	// assignment was ended or removed by a concurrent writer.
	ErrIncumbentGone = errors.New("incumbent assignment no longer open")

	// ErrAttemptNotPending rejects a resolution of an attempt that is not
	// in the Detected state.
	ErrAttemptNotPending = errors.New("arbitration attempt is not pending")

	// ErrUnknownDecision rejects a resolution decision outside the three
	// named ones.
	ErrUnknownDecision = errors.New("unknown arbitration decision")
)
