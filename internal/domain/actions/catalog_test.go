package actions_test

import (
	"errors"
	"testing"

	"github.com/okian/pitchtag/internal/domain/actions"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCatalog(t *testing.T) {
	Convey("Given a catalog seeded with two definitions", t, func() {
		c := actions.NewCatalog(
			model.ActionDefinition{Label: "Shot", Value: "shot", Color: "#f00", Interaction: model.InteractionMarker},
			model.ActionDefinition{Label: "Pass", Value: "pass", Color: "#00f", Interaction: model.InteractionLine},
		)

		Convey("Then both are listed in order", func() {
			So(c.Values(), ShouldResemble, []string{"shot", "pass"})
		})

		Convey("When adding a definition with an existing value", func() {
			added, err := c.Add(model.ActionDefinition{Label: "Other", Value: "shot", Color: "#000", Interaction: model.InteractionLine})

			Convey("Then it is ignored and the original is kept", func() {
				So(err, ShouldBeNil)
				So(added, ShouldBeFalse)
				def, ok := c.Lookup("shot")
				So(ok, ShouldBeTrue)
				So(def.Label, ShouldEqual, "Shot")
				So(def.Interaction, ShouldEqual, model.InteractionMarker)
				So(c.Len(), ShouldEqual, 2)
			})
		})

		Convey("When adding a new user-defined definition", func() {
			added, err := c.Add(model.ActionDefinition{Value: " dummy solo ", Interaction: model.InteractionLine})

			Convey("Then it is appended with the value as label", func() {
				So(err, ShouldBeNil)
				So(added, ShouldBeTrue)
				def, ok := c.Lookup("dummy solo")
				So(ok, ShouldBeTrue)
				So(def.Label, ShouldEqual, "dummy solo")
				So(c.Values(), ShouldResemble, []string{"shot", "pass", "dummy solo"})
			})
		})

		Convey("When adding a definition with an unknown interaction type", func() {
			_, err := c.Add(model.ActionDefinition{Value: "x", Interaction: "polygon"})

			Convey("Then ErrInvalidDefinition is returned", func() {
				So(errors.Is(err, actions.ErrInvalidDefinition), ShouldBeTrue)
			})
		})

		Convey("When removing the first definition", func() {
			removed := c.Remove("shot")

			Convey("Then it leaves the vocabulary and the rest stays addressable", func() {
				So(removed, ShouldBeTrue)
				So(c.Values(), ShouldResemble, []string{"pass"})
				_, ok := c.Lookup("shot")
				So(ok, ShouldBeFalse)
				def, ok := c.Lookup("pass")
				So(ok, ShouldBeTrue)
				So(def.Label, ShouldEqual, "Pass")
			})

			Convey("And removing it again reports nothing removed", func() {
				So(c.Remove("shot"), ShouldBeFalse)
			})
		})

		Convey("When the list copy is mutated", func() {
			l := c.List()
			l[0].Label = "changed"

			Convey("Then the catalog is untouched", func() {
				def, _ := c.Lookup("shot")
				So(def.Label, ShouldEqual, "Shot")
			})
		})
	})

	Convey("Given the sport defaults", t, func() {
		Convey("Then every built-in sport has a valid, duplicate-free vocabulary", func() {
			for _, sport := range []string{pitch.Soccer, pitch.GAA, pitch.Basketball, pitch.Gridiron} {
				defs := actions.Defaults(sport)
				So(len(defs), ShouldBeGreaterThan, 0)
				So(actions.NewCatalog(defs...).Len(), ShouldEqual, len(defs))
			}
		})

		Convey("Then an unknown sport gets an empty vocabulary", func() {
			So(actions.Defaults("futsal"), ShouldBeEmpty)
		})
	})
}
