package api

import (
	"context"
	"net/http"
)

// RefreshDependencies requests asynchronous population reloads.
type RefreshDependencies interface {
	// RequestRefresh enqueues a refresh of scope. id is an optional
	// idempotency key; the job id actually used is returned.
	RequestRefresh(ctx context.Context, scope, id string) (jobID string, duplicate bool, err error)
}

// refreshRequest mirrors the OpenAPI schema for POST /refresh.
type refreshRequest struct {
	Scope string `json:"scope"`
	ID    string `json:"id,omitempty"`
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandlePostRefresh handles POST /refresh requests: 202 when queued, 200 for
// a duplicate, 429 on backpressure.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	id, duplicate, err := h.deps.RequestRefresh(r.Context(), parseScope(req.Scope), req.ID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: id, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: id})
}
