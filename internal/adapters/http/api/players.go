package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/types"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// ProfileDependencies computes radar profiles.
type ProfileDependencies interface {
	Profile(ctx context.Context, scope, playerID string) (types.Profile, error)
}

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps   ProfileDependencies
	logger logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies, l logger.Logger) *ProfileHandler {
	return &ProfileHandler{deps: deps, logger: l}
}

// HandleGetProfile handles GET /players/{id}/profile[?seriesId=] requests.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	p, err := h.deps.Profile(r.Context(), scopeParam(r), id)
	if err != nil {
		if status, _ := statusFor(err); status >= http.StatusInternalServerError {
			h.logger.Error(r.Context(), "profile failed", logger.String("player", id), logger.Error(err))
		}
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PlayerDependencies proxies per-player upstream views.
type PlayerDependencies interface {
	Combinations(ctx context.Context, scope, playerID string, size int) ([]model.PlayerCombination, error)
}

// PlayerHandler handles per-player pass-through requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandleGetCombinations handles GET /players/{id}/combinations?size=2|3 requests.
func (h *PlayerHandler) HandleGetCombinations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_combinations"
	id := strings.TrimSpace(r.PathValue("id"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if id == "" || err != nil || (size != 2 && size != 3) {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("size must be 2 or 3")))
		return
	}
	combos, err := h.deps.Combinations(r.Context(), scopeParam(r), id, size)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if combos == nil {
		combos = []model.PlayerCombination{}
	}
	writeJSON(w, http.StatusOK, combos)
}
