// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/gorilla/handlers"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/types"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ProfileDependencies
	LeaderboardDependencies
	RankDependencies
	PlayerDependencies
	SeriesDependencies
	RefreshDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	profileHandler     *ProfileHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	playerHandler      *PlayerHandler
	seriesHandler      *SeriesHandler
	refreshHandler     *RefreshHandler

	corsOrigins []string
	logger      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{maxLimit: defaultMaxLimit, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		profileHandler:     NewProfileHandler(deps, o.logger),
		leaderboardHandler: NewLeaderboardHandler(deps, o.maxLimit),
		rankHandler:        NewRankHandler(deps),
		playerHandler:      NewPlayerHandler(deps),
		seriesHandler:      NewSeriesHandler(deps, o.logger),
		refreshHandler:     NewRefreshHandler(deps),
		corsOrigins:        o.corsOrigins,
		logger:             o.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /players/{id}/profile", MetricsMiddleware(s.profileHandler.HandleGetProfile, "profile"))
	mux.HandleFunc("GET /players/{id}/combinations", MetricsMiddleware(s.playerHandler.HandleGetCombinations, "combinations"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{playerId}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("GET /series/{id}/pts-progression", MetricsMiddleware(s.seriesHandler.HandleGetProgression, "pts_progression"))
	mux.HandleFunc("POST /series", MetricsMiddleware(s.seriesHandler.HandleCreateSeries, "create_series"))
	mux.HandleFunc("POST /series/{id}/games", MetricsMiddleware(s.seriesHandler.HandleRecordGame, "record_game"))
	mux.HandleFunc("POST /refresh", MetricsMiddleware(s.refreshHandler.HandlePostRefresh, "refresh"))
}

// Handler wraps next with panic recovery, compression and CORS for the
// configured dashboard origins.
func (s *Server) Handler(next http.Handler) http.Handler {
	h := handlers.CompressHandler(next)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(h)
	if len(s.corsOrigins) > 0 {
		h = cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", IdempotencyHeader},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		})(h)
	}
	return h
}

// recoveryLogger adapts Logger to gorilla's RecoveryHandlerLogger.
type recoveryLogger struct{ l logger.Logger }

func (r recoveryLogger) Println(v ...any) {
	r.l.Error(context.Background(), "panic recovered", logger.String("panic", fmt.Sprint(v...)))
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to its status and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// scopeParam reads the optional seriesId query parameter.
func scopeParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("seriesId"))
}

// parseScope accepts "global" as an alias of the all-series scope.
func parseScope(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "global") {
		return model.GlobalScope
	}
	return s
}
