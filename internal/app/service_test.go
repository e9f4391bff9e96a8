package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pitchtag/internal/adapters/repository"
	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var soccerCanvas = geometry.Canvas{Width: 1050, Height: 680}

func started(opts ...service.Option) *service.Service {
	base := []service.Option{service.WithWorkerCount(1), service.WithLogger(logger.Nop())}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("When it is used before Start", func() {
			_, err := svc.CreateSession(context.Background(), service.CreateSessionRequest{Sport: "soccer", Canvas: soccerCanvas})

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When it is started and stopped", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			err := svc.Stop(ctx)

			Convey("Then it reports stopped", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given an invalid configured template", t, func() {
		svc := service.New(
			service.WithLogger(logger.Nop()),
			service.WithTemplates(pitch.Template{Sport: "futsal"}),
		)

		Convey("Then Start fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, pitch.ErrInvalidTemplate), ShouldBeTrue)
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service capped at two sessions", t, func() {
		futsal := pitch.Template{
			Sport: "Futsal", WidthMeters: 40, HeightMeters: 20,
			Goals: pitch.Goals{Left: model.Point{X: 0, Y: 10}, Right: model.Point{X: 40, Y: 10}},
		}
		ids := []string{"s-1", "s-2", "s-3"}
		next := 0
		svc := started(
			service.WithMaxSessions(2),
			service.WithTemplates(futsal),
			service.WithIDGenerator(func() string { next++; return ids[next-1] }),
		)
		defer func() { _ = svc.Stop(context.Background()) }()
		ctx := context.Background()

		Convey("Then configured templates are listed with the built-ins", func() {
			sports, err := svc.Sports(ctx)
			So(err, ShouldBeNil)
			keys := make([]string, len(sports))
			for i, s := range sports {
				keys[i] = s.Sport
			}
			So(keys, ShouldResemble, []string{"basketball", "futsal", "gaa", "gridiron", "soccer"})
		})

		Convey("When a session is created for a known sport", func() {
			v, err := svc.CreateSession(ctx, service.CreateSessionRequest{Sport: "Soccer", Canvas: soccerCanvas})

			Convey("Then it starts idle with the sport vocabulary", func() {
				So(err, ShouldBeNil)
				So(v.ID, ShouldEqual, "s-1")
				So(v.Sport, ShouldEqual, "soccer")
				So(v.Template.WidthMeters, ShouldEqual, 105)
				So(v.State.State.String(), ShouldEqual, "idle")
				So(len(v.Actions), ShouldBeGreaterThan, 0)
			})

			Convey("And it can be fetched, listed and deleted", func() {
				got, err := svc.GetSession(ctx, "s-1")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, "s-1")

				all, err := svc.ListSessions(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 1)

				So(svc.DeleteSession(ctx, "s-1"), ShouldBeNil)
				_, err = svc.GetSession(ctx, "s-1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a session supplies its own vocabulary", func() {
			v, err := svc.CreateSession(ctx, service.CreateSessionRequest{
				Sport:   "futsal",
				Canvas:  geometry.Canvas{Width: 400, Height: 200},
				Actions: []model.ActionDefinition{{Label: "Shot", Value: "shot", Interaction: model.InteractionMarker}},
			})

			Convey("Then only that vocabulary is armed", func() {
				So(err, ShouldBeNil)
				So(v.Actions, ShouldHaveLength, 1)
				_, err := svc.Arm(ctx, v.ID, "pass")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the cap is reached", func() {
			_, err1 := svc.CreateSession(ctx, service.CreateSessionRequest{Sport: "soccer", Canvas: soccerCanvas})
			_, err2 := svc.CreateSession(ctx, service.CreateSessionRequest{Sport: "gaa", Canvas: soccerCanvas})
			_, err3 := svc.CreateSession(ctx, service.CreateSessionRequest{Sport: "gaa", Canvas: soccerCanvas})

			Convey("Then further sessions are refused", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(errors.Is(err3, repository.ErrLimitReached), ShouldBeTrue)
			})
		})

		Convey("When the sport is unknown", func() {
			_, err := svc.CreateSession(ctx, service.CreateSessionRequest{Sport: "curling", Canvas: soccerCanvas})
			So(errors.Is(err, pitch.ErrUnknownSport), ShouldBeTrue)
		})

		Convey("When the canvas is empty", func() {
			_, err := svc.CreateSession(ctx, service.CreateSessionRequest{Sport: "soccer"})
			So(errors.Is(err, geometry.ErrInvalidCanvas), ShouldBeTrue)
		})
	})
}

func TestService_Classify(t *testing.T) {
	Convey("Classify explains render categories", t, func() {
		svc := service.New()
		So(svc.Classify("Free Wide").Category, ShouldEqual, "setplay-miss")
		So(svc.Classify("  Point ").Category, ShouldEqual, "point")
		r := svc.Classify("kickout")
		So(r.Passthrough, ShouldBeTrue)
		So(r.Category, ShouldEqual, "kickout")
	})
}
