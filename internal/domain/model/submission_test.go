package model_test

import (
	"errors"
	"testing"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewSeriesRequest_Validate(t *testing.T) {
	convey.Convey("Given a series request", t, func() {
		convey.Convey("When it has a name and participants", func() {
			req := model.NewSeriesRequest{Name: "Season 1", Participants: []string{"p1", "p2"}}

			convey.Convey("Then it should be valid", func() {
				convey.So(req.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the name is blank", func() {
			req := model.NewSeriesRequest{Name: "   ", Participants: []string{"p1"}}

			convey.Convey("Then it should be rejected", func() {
				err := req.Validate()
				convey.So(errors.Is(err, model.ErrInvalidSubmission), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "name")
			})
		})

		convey.Convey("When there are no participants", func() {
			req := model.NewSeriesRequest{Name: "Season 1"}

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(req.Validate(), model.ErrInvalidSubmission), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a participant is listed twice", func() {
			req := model.NewSeriesRequest{Name: "Season 1", Participants: []string{"p1", "p1"}}

			convey.Convey("Then it should be rejected", func() {
				convey.So(req.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewGameRequest_Validate(t *testing.T) {
	convey.Convey("Given a game request", t, func() {
		valid := func() model.NewGameRequest {
			return model.NewGameRequest{
				GameNumber: 1,
				TeamBlue:   []string{"a", "b", "c"},
				TeamRed:    []string{"d", "e", "f", "g"},
				Winner:     model.TeamBlue,
			}
		}

		convey.Convey("When teams have 3 and 4 players", func() {
			convey.Convey("Then it should be valid", func() {
				convey.So(valid().Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When team blue is too small", func() {
			req := valid()
			req.TeamBlue = []string{"a", "b"}

			convey.Convey("Then it should name team blue", func() {
				err := req.Validate()
				convey.So(errors.Is(err, model.ErrInvalidSubmission), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "team blue")
			})
		})

		convey.Convey("When team red is too large", func() {
			req := valid()
			req.TeamRed = []string{"d", "e", "f", "g", "h"}

			convey.Convey("Then it should name team red", func() {
				convey.So(req.Validate().Error(), convey.ShouldContainSubstring, "team red")
			})
		})

		convey.Convey("When a player is in both teams", func() {
			req := valid()
			req.TeamRed = []string{"a", "e", "f"}

			convey.Convey("Then it should be rejected", func() {
				err := req.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "more than once")
			})
		})

		convey.Convey("When the winner is unknown", func() {
			req := valid()
			req.Winner = "teamGreen"

			convey.Convey("Then it should be rejected", func() {
				convey.So(req.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the game number is zero", func() {
			req := valid()
			req.GameNumber = 0

			convey.Convey("Then it should be rejected", func() {
				convey.So(req.Validate().Error(), convey.ShouldContainSubstring, "gameNumber")
			})
		})
	})
}
