package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/3leaps/nbrun/internal/server/middleware"
	"github.com/3leaps/nbrun/pkg/execution"
	"github.com/3leaps/nbrun/pkg/submit"
)

// ExecutionService runs notebook execution requests. Implemented by
// pkg/runner.Runner.
type ExecutionService interface {
	Execute(ctx context.Context, req *execution.Request) (string, error)
	Plan(ctx context.Context, req *execution.Request) (*execution.JobPayload, error)
	Describe(ctx context.Context, jobName string) (*submit.JobStatus, error)
	Stop(ctx context.Context, jobName string) error
	List(ctx context.Context, opts submit.ListOptions) (*submit.ListResult, error)
}

// ExecutionHandler serves the /v1/executions routes.
type ExecutionHandler struct {
	svc ExecutionService
}

// NewExecutionHandler creates the handler.
func NewExecutionHandler(svc ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{svc: svc}
}

// SubmitResponse is the body returned for an accepted execution.
type SubmitResponse struct {
	JobName string `json:"job_name"`
}

// Submit handles POST /v1/executions: expand the request and submit the
// processing job. With ?dry_run=true the expanded payload is returned
// without submitting.
func (h *ExecutionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req execution.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest,
			"INVALID_REQUEST", "malformed request body: "+err.Error(), nil)
		return
	}

	if r.URL.Query().Get("dry_run") == "true" {
		payload, err := h.svc.Plan(r.Context(), &req)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	name, err := h.svc.Execute(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{JobName: name})
}

// Get handles GET /v1/executions/{name}.
func (h *ExecutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Describe(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Stop handles DELETE /v1/executions/{name}: requests termination.
func (h *ExecutionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Stop(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// List handles GET /v1/executions. Supported query parameters:
// name_contains, since (RFC 3339), max_results, next_token.
func (h *ExecutionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := submit.ListOptions{
		NameContains: q.Get("name_contains"),
		NextToken:    q.Get("next_token"),
	}

	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			middleware.WriteError(w, r, http.StatusBadRequest,
				"INVALID_REQUEST", "since must be an RFC 3339 timestamp", nil)
			return
		}
		opts.Since = since
	}
	if raw := q.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.WriteError(w, r, http.StatusBadRequest,
				"INVALID_REQUEST", "max_results must be a positive integer", nil)
			return
		}
		opts.MaxResults = n
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeServiceError maps pipeline errors to HTTP status codes.
func (h *ExecutionHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *execution.RequestError
	switch {
	case errors.As(err, &reqErr):
		middleware.WriteError(w, r, http.StatusBadRequest,
			"INVALID_REQUEST", err.Error(), map[string]any{"field": reqErr.Field})
	case submit.IsJobNotFound(err):
		middleware.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case submit.IsNameInUse(err):
		middleware.WriteError(w, r, http.StatusConflict, "NAME_IN_USE", err.Error(), nil)
	case submit.IsAccessDenied(err):
		middleware.WriteError(w, r, http.StatusForbidden, "ACCESS_DENIED", err.Error(), nil)
	case submit.IsQuotaExceeded(err):
		middleware.WriteError(w, r, http.StatusConflict, "QUOTA_EXCEEDED", err.Error(), nil)
	case submit.IsThrottled(err):
		middleware.WriteError(w, r, http.StatusTooManyRequests, "THROTTLED", err.Error(), nil)
	default:
		var ovErr *execution.OverrideError
		if errors.As(err, &ovErr) {
			middleware.WriteError(w, r, http.StatusBadRequest,
				"INVALID_REQUEST", err.Error(), nil)
			return
		}
		middleware.WriteError(w, r, http.StatusBadGateway,
			"UPSTREAM_ERROR", err.Error(), nil)
	}
}
