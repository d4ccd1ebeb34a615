package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// IdempotencyHeader lets clients safely retry game submissions.
const IdempotencyHeader = "Idempotency-Key"

// SeriesDependencies covers series reads and writes.
type SeriesDependencies interface {
	PtsProgression(ctx context.Context, seriesID string) ([]model.PtsProgression, error)
	CreateSeries(ctx context.Context, req model.NewSeriesRequest) (model.Series, error)
	// RecordGame returns duplicate=true when key was already used.
	RecordGame(ctx context.Context, seriesID, key string, req model.NewGameRequest) (game model.Game, duplicate bool, err error)
}

// SeriesHandler handles series requests.
type SeriesHandler struct {
	deps   SeriesDependencies
	logger logger.Logger
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(deps SeriesDependencies, l logger.Logger) *SeriesHandler {
	return &SeriesHandler{deps: deps, logger: l}
}

// HandleGetProgression handles GET /series/{id}/pts-progression requests.
func (h *SeriesHandler) HandleGetProgression(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pts_progression"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	prog, err := h.deps.PtsProgression(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if prog == nil {
		prog = []model.PtsProgression{}
	}
	writeJSON(w, http.StatusOK, prog)
}

// HandleCreateSeries handles POST /series requests.
func (h *SeriesHandler) HandleCreateSeries(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_series"
	var req model.NewSeriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.Validate(); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	series, err := h.deps.CreateSeries(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	h.logger.Info(r.Context(), "series created", logger.String("series", series.ID), logger.String("name", series.Name))
	writeJSON(w, http.StatusCreated, series)
}

// HandleRecordGame handles POST /series/{id}/games requests. A replayed
// Idempotency-Key answers 200 with duplicate=true.
func (h *SeriesHandler) HandleRecordGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_game"
	seriesID := strings.TrimSpace(r.PathValue("id"))
	if seriesID == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	var req model.NewGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.Validate(); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	game, duplicate, err := h.deps.RecordGame(r.Context(), seriesID, key, req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: key, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, game)
}
