// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"time"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// QueryRequest is the body of a submission request.
type QueryRequest struct {
	Query string `json:"query"`
}

// resultResponse is the body returned by the result endpoint. Response is
// kept raw so a missing or non-string value can be told apart from "".
type resultResponse struct {
	Response json.RawMessage `json:"response"`
}

// =============================================================================
// STATUS
// =============================================================================

// PingResult describes a reachability probe against the result endpoint.
type PingResult struct {
	URL     string        `json:"url"`
	Latency time.Duration `json:"latency_ns"`
	Answer  string        `json:"answer"`
}
