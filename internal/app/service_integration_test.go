package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/cache"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/http/api"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/upstream"
	service "github.com/raihan-suryanom/brawl-master-web/internal/app"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

// statsAPI emulates the statistics API for one series.
func statsAPI(statsCalls *atomic.Int32) http.Handler {
	population := []model.PlayerStats{
		{PlayerID: "p1", Name: "Ana", TotalGames: 10, TotalWin: 6, HighestWinStreak: 3, HighestLoseStreak: 1, Pts: 8, WinRate: 60},
		{PlayerID: "p2", Name: "Bo", TotalGames: 10, TotalWin: 4, HighestWinStreak: 2, HighestLoseStreak: 2, Pts: 4, WinRate: 40},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/series/s1/stats", func(w http.ResponseWriter, _ *http.Request) {
		statsCalls.Add(1)
		_ = json.NewEncoder(w).Encode(population)
	})
	mux.HandleFunc("GET /api/series/{id}/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Series not found"}`))
	})
	mux.HandleFunc("POST /api/series/s1/games", func(w http.ResponseWriter, r *http.Request) {
		var req model.NewGameRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Game{ID: "g1", SeriesID: "s1", GameNumber: req.GameNumber, Winner: req.Winner})
	})
	return mux
}

func TestService_Integration(t *testing.T) {
	Convey("Given the HTTP API over the service and a live statistics API", t, func() {
		var statsCalls atomic.Int32
		remote := httptest.NewServer(statsAPI(&statsCalls))
		defer remote.Close()

		client, err := upstream.New(remote.URL+"/api",
			upstream.WithCache(cache.NewMemory(), time.Minute),
			upstream.WithBackoff(time.Millisecond),
		)
		So(err, ShouldBeNil)

		svc := service.New(client, service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		server := api.NewServer(svc)
		mux := http.NewServeMux()
		server.Register(ctx, mux)
		h := server.Handler(mux)

		get := func(target string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
			return w
		}

		Convey("When the dashboard asks for a radar profile", func() {
			w := get("/players/p1/profile?seriesId=s1")
			So(w.Code, ShouldEqual, http.StatusOK)

			var body struct {
				PlayerID string `json:"playerId"`
				Metrics  []struct {
					Metric string   `json:"metric"`
					Value  *float64 `json:"value"`
					Raw    string   `json:"raw"`
					Finite bool     `json:"finite"`
				} `json:"metrics"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then all six axes are finite and match the hand-computed values", func() {
				So(body.PlayerID, ShouldEqual, "p1")
				So(body.Metrics, ShouldHaveLength, 6)
				want := []struct {
					value float64
					raw   string
				}{{60, "60.0%"}, {60, "0.60"}, {100, "1.80"}, {50, "LS: 1"}, {60, "0.20"}, {100, "1.33"}}
				for i, m := range body.Metrics {
					So(m.Finite, ShouldBeTrue)
					So(*m.Value, ShouldAlmostEqual, want[i].value, 1e-6)
					So(m.Raw, ShouldEqual, want[i].raw)
				}
			})

			Convey("And the leaderboard reuses the stored population", func() {
				w := get("/leaderboard?limit=5&seriesId=s1")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"total":2`)
				So(statsCalls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the series does not exist upstream", func() {
			w := get("/players/p1/profile?seriesId=missing")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "Series not found")
		})

		Convey("When a game is recorded", func() {
			body := `{"gameNumber":1,"teamBlue":["a","b","c"],"teamRed":["d","e","f"],"winner":"teamBlue"}`
			post := func() *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodPost, "/series/s1/games", strings.NewReader(body))
				req.Header.Set(api.IdempotencyHeader, "once")
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				return w
			}
			So(post().Code, ShouldEqual, http.StatusCreated)
			So(post().Code, ShouldEqual, http.StatusOK)

			Convey("Then the series is refreshed from upstream bypassing the cache", func() {
				deadline := time.Now().Add(2 * time.Second)
				for statsCalls.Load() < 1 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(statsCalls.Load(), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
