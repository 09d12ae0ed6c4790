// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package recommend

import "errors"

// ErrInvalidQuery reports a query that cannot be served: empty or whitespace
// only. Maps to HTTP 400.
var ErrInvalidQuery = errors.New("invalid query")

// ErrIndexNotReady reports that no index has been built yet. Maps to
// HTTP 503; clients should retry after startup completes.
var ErrIndexNotReady = errors.New("index not ready")
