package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchtag/internal/adapters/repository"
	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/internal/domain/tagging"
	. "github.com/smartystreets/goconvey/convey"
)

var soccer = pitch.Template{
	Sport: pitch.Soccer, WidthMeters: 105, HeightMeters: 68,
	Goals: pitch.Goals{Left: model.Point{X: 0, Y: 34}, Right: model.Point{X: 105, Y: 34}},
}

func newSession(id string, at time.Time) *repository.Session {
	e, err := tagging.NewEngine(soccer, geometry.Canvas{Width: 1050, Height: 680})
	if err != nil {
		panic(err)
	}
	return repository.NewSession(id, e, ingest.New(soccer), at)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty memory store", t, func() {
		s := repository.NewMemoryStore()
		base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

		Convey("When sessions are created", func() {
			So(s.Create(ctx, newSession("b", base.Add(time.Second))), ShouldBeNil)
			So(s.Create(ctx, newSession("a", base)), ShouldBeNil)

			Convey("Then they can be fetched and listed by creation time", func() {
				got, err := s.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(got.Sport, ShouldEqual, pitch.Soccer)
				So(s.Count(ctx), ShouldEqual, 2)
				list := s.List(ctx)
				So(list[0].ID, ShouldEqual, "a")
				So(list[1].ID, ShouldEqual, "b")
			})

			Convey("And a duplicate ID is refused", func() {
				err := s.Create(ctx, newSession("a", base))
				So(errors.Is(err, repository.ErrExists), ShouldBeTrue)
			})

			Convey("And deleting removes the session", func() {
				So(s.Delete(ctx, "a"), ShouldBeNil)
				_, err := s.Get(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(s.Delete(ctx, "a"), repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a store capped at two sessions", t, func() {
		s := repository.NewMemoryStore(repository.WithMaxSessions(2))
		now := time.Now()
		So(s.Create(ctx, newSession("1", now)), ShouldBeNil)
		So(s.Create(ctx, newSession("2", now)), ShouldBeNil)

		Convey("When a third session is created", func() {
			err := s.Create(ctx, newSession("3", now))

			Convey("Then the limit is reported until one is closed", func() {
				So(errors.Is(err, repository.ErrLimitReached), ShouldBeTrue)
				So(s.Delete(ctx, "1"), ShouldBeNil)
				So(s.Create(ctx, newSession("3", now)), ShouldBeNil)
			})
		})
	})
}

func TestSessionDo(t *testing.T) {
	Convey("Given a session shared by concurrent requests", t, func() {
		sess := newSession("s", time.Now())

		Convey("When many goroutines append tags through Do", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = sess.Do(func(e *tagging.Engine, _ *ingest.Ingester) error {
						return e.Append(model.Tag{ID: fmt.Sprint(i), Action: "shot", Point: &model.Point{X: 1, Y: 1}})
					})
				}(i)
			}
			wg.Wait()

			Convey("Then every tag is stored", func() {
				var n int
				_ = sess.Do(func(e *tagging.Engine, _ *ingest.Ingester) error {
					n = e.Len()
					return nil
				})
				So(n, ShouldEqual, 50)
				So(sess.UpdatedAt().IsZero(), ShouldBeFalse)
			})
		})
	})
}
