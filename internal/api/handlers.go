// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skillmatch/internal/recommend"
	"github.com/tomtom215/skillmatch/internal/validation"
)

// Version is the reported service version.
const Version = "1.0.0"

// Handler serves the API endpoints.
type Handler struct {
	engine    *recommend.Engine
	startTime time.Time
}

// NewHandler creates the API handler around an engine.
func NewHandler(engine *recommend.Engine) *Handler {
	return &Handler{
		engine:    engine,
		startTime: time.Now(),
	}
}

// recommendRequest is the POST /api/v1/recommend body.
type recommendRequest struct {
	Query string `json:"query" validate:"required,min=1"`
	K     int    `json:"k" validate:"omitempty,min=1,max=100"`
}

// Recommend handles POST /api/v1/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Request body must be valid JSON")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationFailed(verr.Error(), verr.Details())
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		Query: req.Query,
		K:     req.K,
	})
	switch {
	case errors.Is(err, recommend.ErrInvalidQuery):
		rw.BadRequest("Query must not be empty")
	case errors.Is(err, recommend.ErrIndexNotReady):
		rw.ServiceUnavailable("Index is still building, retry shortly")
	case err != nil:
		rw.InternalError(err)
	default:
		rw.Success(resp)
	}
}

// Assessments handles GET /api/v1/assessments: the active catalog in index
// order, with optional limit/offset paging.
func (h *Handler) Assessments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	records := h.engine.Records()
	if records == nil {
		rw.ServiceUnavailable("Catalog is still loading, retry shortly")
		return
	}

	total := len(records)
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	limit := queryInt(r, "limit", total)
	if limit < 0 {
		limit = 0
	}
	if offset+limit > total {
		limit = total - offset
	}

	rw.Success(map[string]interface{}{
		"assessments": records[offset : offset+limit],
		"count":       limit,
		"total":       total,
		"offset":      offset,
	})
}

// queryInt parses an integer query parameter, returning def when absent or
// malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// healthStatus is the GET /health payload.
type healthStatus struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	Uptime  float64          `json:"uptime_seconds"`
	Engine  recommend.Status `json:"engine"`
}

// Health handles GET /health: overall status plus the engine snapshot.
// "degraded" means serving, but on the lexical path or with no index.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	st := h.engine.Status()
	status := "healthy"
	if !st.Ready || st.ActiveStrategy == recommend.StrategyLexical {
		status = "degraded"
	}

	rw.Success(healthStatus{
		Status:  status,
		Version: Version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Engine:  st,
	})
}

// HealthLive handles GET /health/live: 200 whenever the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready: 200 only when an index is active.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.engine.Ready() {
		rw.ServiceUnavailable("Index not ready")
		return
	}
	rw.Success(map[string]interface{}{"ready": true})
}
