package types_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		e := types.Entry{
			Rank:        2,
			PlayerStats: model.PlayerStats{PlayerID: "p1", Name: "Ana", Pts: 8, TotalWin: 6},
		}

		Convey("When encoded as JSON", func() {
			data, err := json.Marshal(e)
			So(err, ShouldBeNil)

			var out map[string]any
			So(json.Unmarshal(data, &out), ShouldBeNil)

			Convey("Then the stats should be flattened next to the rank", func() {
				So(out["rank"], ShouldEqual, 2)
				So(out["playerId"], ShouldEqual, "p1")
				So(out["pts"], ShouldEqual, 8)
				So(out, ShouldNotContainKey, "PlayerStats")
				So(out, ShouldNotContainKey, "zone")
			})
		})
	})
}

func TestProfileDegenerate(t *testing.T) {
	Convey("Given a profile with one NaN metric", t, func() {
		p := types.Profile{Metrics: []profile.Metric{
			{Metric: profile.WinRate, Value: 50, FullMark: 100},
			{Metric: profile.Stability, Value: math.NaN(), FullMark: 100},
		}}

		Convey("Then Degenerate should count it", func() {
			So(p.Degenerate(), ShouldEqual, 1)
		})
	})

	Convey("Given a profile with only finite metrics", t, func() {
		p := types.Profile{Metrics: []profile.Metric{{Metric: profile.WinRate, Value: 50, FullMark: 100}}}

		Convey("Then Degenerate should be zero", func() {
			So(p.Degenerate(), ShouldEqual, 0)
		})
	})
}
