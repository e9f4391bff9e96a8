package geometry_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 0.01

func gaa(t *testing.T) pitch.Template {
	t.Helper()
	r, err := pitch.NewRegistry(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tpl, err := r.Get(context.Background(), pitch.GAA)
	if err != nil {
		t.Fatal(err)
	}
	return tpl
}

func TestNormalizePixel(t *testing.T) {
	tpl := gaa(t)
	canvas := geometry.Canvas{Width: 800, Height: 484.8}

	Convey("Given a 800x484.8 canvas over the 145x88 template", t, func() {
		Convey("When clicking the centre pixel", func() {
			p, clamped, err := geometry.Normalize(model.Point{X: 400, Y: 242.4}, geometry.SpacePixel, tpl, canvas)

			Convey("Then the point is the centre of the pitch on the Left side", func() {
				So(err, ShouldBeNil)
				So(clamped, ShouldBeFalse)
				So(p.X, ShouldAlmostEqual, 72.5, tolerance)
				So(p.Y, ShouldAlmostEqual, 44.0, tolerance)
				So(geometry.Features(p, tpl).Side, ShouldEqual, geometry.SideLeft)
			})
		})

		Convey("When clicking two points for a line", func() {
			from, _, err1 := geometry.Normalize(model.Point{X: 100, Y: 100}, geometry.SpacePixel, tpl, canvas)
			to, _, err2 := geometry.Normalize(model.Point{X: 700, Y: 400}, geometry.SpacePixel, tpl, canvas)

			Convey("Then both are scaled by the canvas-to-template ratio", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(from.X, ShouldAlmostEqual, 18.125, tolerance)
				So(from.Y, ShouldAlmostEqual, 18.15, tolerance)
				So(to.X, ShouldAlmostEqual, 126.875, tolerance)
				So(to.Y, ShouldAlmostEqual, 72.61, tolerance)
			})
		})

		Convey("When the canvas is 484 pixels high", func() {
			short := geometry.Canvas{Width: 800, Height: 484}
			from, _, _ := geometry.Normalize(model.Point{X: 100, Y: 100}, geometry.SpacePixel, tpl, short)
			to, _, _ := geometry.Normalize(model.Point{X: 700, Y: 400}, geometry.SpacePixel, tpl, short)

			Convey("Then the line matches the recorded fixture values", func() {
				So(from.X, ShouldAlmostEqual, 18.13, tolerance)
				So(from.Y, ShouldAlmostEqual, 18.18, tolerance)
				So(to.X, ShouldAlmostEqual, 126.88, tolerance)
				So(to.Y, ShouldAlmostEqual, 72.73, tolerance)
			})
		})

		Convey("When clicking beyond the right edge", func() {
			p, clamped, err := geometry.Normalize(model.Point{X: 900, Y: -10}, geometry.SpacePixel, tpl, canvas)

			Convey("Then the point is clamped to the boundary exactly", func() {
				So(err, ShouldBeNil)
				So(clamped, ShouldBeTrue)
				So(p.X, ShouldEqual, tpl.WidthMeters)
				So(p.Y, ShouldEqual, 0)
			})
		})

		Convey("When the canvas has no size", func() {
			_, _, err := geometry.Normalize(model.Point{X: 1, Y: 1}, geometry.SpacePixel, tpl, geometry.Canvas{})

			Convey("Then ErrInvalidCanvas is returned", func() {
				So(errors.Is(err, geometry.ErrInvalidCanvas), ShouldBeTrue)
			})
		})

		Convey("When the raw point is NaN", func() {
			_, _, err := geometry.Normalize(model.Point{X: math.NaN(), Y: 1}, geometry.SpacePixel, tpl, canvas)

			Convey("Then ErrNonFinite is returned", func() {
				So(errors.Is(err, geometry.ErrNonFinite), ShouldBeTrue)
			})
		})
	})
}

func TestNormalizePercent(t *testing.T) {
	tpl := gaa(t)

	Convey("Given percent-space input", t, func() {
		Convey("When normalizing 50%,25%", func() {
			p, clamped, err := geometry.Normalize(model.Point{X: 50, Y: 25}, geometry.SpacePercent, tpl, geometry.Canvas{})

			Convey("Then the canvas is ignored and the template dimensions scale it", func() {
				So(err, ShouldBeNil)
				So(clamped, ShouldBeFalse)
				So(p.X, ShouldAlmostEqual, 72.5, tolerance)
				So(p.Y, ShouldAlmostEqual, 22.0, tolerance)
			})
		})

		Convey("When normalizing above 100%", func() {
			p, clamped, _ := geometry.Normalize(model.Point{X: 120, Y: 100}, geometry.SpacePercent, tpl, geometry.Canvas{})

			Convey("Then it clamps to the far edge", func() {
				So(clamped, ShouldBeTrue)
				So(p.X, ShouldEqual, 145)
				So(p.Y, ShouldEqual, 88)
			})
		})
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	Convey("Given every built-in template", t, func() {
		for _, tpl := range pitch.Defaults() {
			Convey("When normalizing an already normalized point for "+tpl.Sport, func() {
				for _, raw := range []model.Point{{X: -5, Y: 3}, {X: 10, Y: 10}, {X: 1e6, Y: 1e6}} {
					once, _, err := geometry.Normalize(raw, geometry.SpaceMeters, tpl, geometry.Canvas{})
					So(err, ShouldBeNil)
					twice, clamped, err := geometry.Normalize(once, geometry.SpaceMeters, tpl, geometry.Canvas{})

					So(err, ShouldBeNil)
					So(clamped, ShouldBeFalse)
					So(twice, ShouldResemble, once)
				}
			})
		}
	})
}

func TestFeatures(t *testing.T) {
	tpl := gaa(t)

	Convey("Given the GAA template", t, func() {
		Convey("When the point is on the left goal line", func() {
			f := geometry.Features(model.Point{X: 0, Y: 44}, tpl)

			Convey("Then it is Left and zero meters from goal", func() {
				So(f.Side, ShouldEqual, geometry.SideLeft)
				So(f.DistanceToGoalMeters, ShouldEqual, 0)
			})
		})

		Convey("When the point is just past halfway", func() {
			f := geometry.Features(model.Point{X: 72.6, Y: 44}, tpl)

			Convey("Then it is measured to the right goal", func() {
				So(f.Side, ShouldEqual, geometry.SideRight)
				So(f.DistanceToGoalMeters, ShouldAlmostEqual, 72.4, tolerance)
			})
		})

		Convey("When the point is 3-4-5 from the right goal", func() {
			f := geometry.Features(model.Point{X: 142, Y: 48}, tpl)

			Convey("Then the distance is Euclidean", func() {
				So(f.DistanceToGoalMeters, ShouldAlmostEqual, 5.0, tolerance)
			})
		})

		Convey("Then distance is never negative anywhere on the surface", func() {
			for x := 0.0; x <= tpl.WidthMeters; x += 14.5 {
				for y := 0.0; y <= tpl.HeightMeters; y += 11 {
					So(geometry.Features(model.Point{X: x, Y: y}, tpl).DistanceToGoalMeters, ShouldBeGreaterThanOrEqualTo, 0)
				}
			}
		})
	})
}
