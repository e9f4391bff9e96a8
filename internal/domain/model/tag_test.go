package model_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	model "github.com/okian/pitchtag/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestTagBranches(t *testing.T) {
	convey.Convey("Given tags with different point branches", t, func() {
		convey.Convey("When only the marker point is set", func() {
			tag := model.Tag{Action: "shot", Point: &model.Point{X: 10, Y: 20}}
			it, ok := tag.Interaction()

			convey.Convey("Then it is a valid marker tag", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(it, convey.ShouldEqual, model.InteractionMarker)
				convey.So(tag.Validate(), convey.ShouldBeNil)
				convey.So(tag.ValidateFor(model.InteractionMarker), convey.ShouldBeNil)
			})
		})

		convey.Convey("When both from and to are set", func() {
			tag := model.Tag{Action: "pass", From: &model.Point{X: 1, Y: 2}, To: &model.Point{X: 3, Y: 4}}
			it, ok := tag.Interaction()

			convey.Convey("Then it is a valid line tag", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(it, convey.ShouldEqual, model.InteractionLine)
				convey.So(tag.Validate(), convey.ShouldBeNil)
			})

			convey.Convey("And validating it against a marker action fails", func() {
				err := tag.ValidateFor(model.InteractionMarker)
				convey.So(errors.Is(err, model.ErrInteractionMismatch), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When both branches are set", func() {
			tag := model.Tag{Action: "x", Point: &model.Point{}, From: &model.Point{}, To: &model.Point{}}

			convey.Convey("Then it is malformed", func() {
				convey.So(errors.Is(tag.Validate(), model.ErrMalformedTag), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When neither branch is set", func() {
			tag := model.Tag{Action: "x"}

			convey.Convey("Then it is malformed", func() {
				convey.So(errors.Is(tag.Validate(), model.ErrMalformedTag), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a line is missing its second point", func() {
			tag := model.Tag{Action: "pass", From: &model.Point{X: 1, Y: 1}}

			convey.Convey("Then it is malformed", func() {
				convey.So(errors.Is(tag.Validate(), model.ErrMalformedTag), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the point is not finite", func() {
			tag := model.Tag{Action: "shot", Point: &model.Point{X: math.NaN(), Y: 1}}

			convey.Convey("Then it is malformed", func() {
				convey.So(errors.Is(tag.Validate(), model.ErrMalformedTag), convey.ShouldBeTrue)
			})
		})
	})
}

func TestTagJSON(t *testing.T) {
	convey.Convey("Given a marker tag with enrichment", t, func() {
		d := 12.5
		tag := model.Tag{
			ID:       "t-1",
			Action:   "goal",
			Metadata: model.Metadata{Team: "A", PlayerName: "Sam", Player: "9", Minute: 42},
			Point:    &model.Point{X: 0, Y: 44},
			Enrichment: model.Enrichment{
				Side:                 "Left",
				DistanceToGoalMeters: &d,
				RenderCategory:       "goal",
			},
		}

		convey.Convey("When it is marshaled", func() {
			b, err := json.Marshal(tag)
			convey.So(err, convey.ShouldBeNil)

			var m map[string]any
			convey.So(json.Unmarshal(b, &m), convey.ShouldBeNil)

			convey.Convey("Then x and y are flat keys and from/to are absent", func() {
				convey.So(m["x"], convey.ShouldEqual, 0.0)
				convey.So(m["y"], convey.ShouldEqual, 44.0)
				convey.So(m, convey.ShouldNotContainKey, "from")
				convey.So(m, convey.ShouldNotContainKey, "to")
				convey.So(m["player"], convey.ShouldEqual, "9")
				convey.So(m["side"], convey.ShouldEqual, "Left")
				convey.So(m["distanceToGoalMeters"], convey.ShouldEqual, 12.5)
			})

			convey.Convey("And it reads back into the same branch", func() {
				var back model.Tag
				convey.So(json.Unmarshal(b, &back), convey.ShouldBeNil)
				convey.So(back.Point, convey.ShouldNotBeNil)
				convey.So(back.From, convey.ShouldBeNil)
				convey.So(back.Team, convey.ShouldEqual, "A")
				convey.So(back.Minute, convey.ShouldEqual, 42)
			})
		})
	})

	convey.Convey("Given a line tag", t, func() {
		tag := model.Tag{Action: "pass", From: &model.Point{X: 1, Y: 2}, To: &model.Point{X: 3, Y: 4}}

		convey.Convey("When it is marshaled", func() {
			b, err := json.Marshal(tag)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then x and y are absent", func() {
				var m map[string]any
				convey.So(json.Unmarshal(b, &m), convey.ShouldBeNil)
				convey.So(m, convey.ShouldNotContainKey, "x")
				convey.So(m, convey.ShouldNotContainKey, "y")
				convey.So(m, convey.ShouldContainKey, "from")
			})
		})
	})
}

func TestTagClone(t *testing.T) {
	convey.Convey("Given a tag", t, func() {
		d := 3.0
		tag := model.Tag{Action: "shot", Point: &model.Point{X: 1, Y: 1}, Enrichment: model.Enrichment{DistanceToGoalMeters: &d}}

		convey.Convey("When the clone is mutated", func() {
			c := tag.Clone()
			c.Point.X = 99
			*c.DistanceToGoalMeters = 99

			convey.Convey("Then the original is untouched", func() {
				convey.So(tag.Point.X, convey.ShouldEqual, 1)
				convey.So(*tag.DistanceToGoalMeters, convey.ShouldEqual, 3)
			})
		})
	})
}
