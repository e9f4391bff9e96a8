package publisher_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitchtag/internal/adapters/publisher"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/pkg/logger"
)

type fakeStreams struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStreams) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	return redis.NewStringResult("1-0", nil)
}

func record() model.TagRecord {
	return model.TagRecord{
		SessionID: "s1",
		Sport:     "gaa",
		Op:        model.OpRecorded,
		Tag: model.Tag{
			ID:     "t1",
			Action: "pass",
			From:   &model.Point{X: 10, Y: 20},
			To:     &model.Point{X: 30, Y: 40},
		},
	}
}

func TestStreamPublisher(t *testing.T) {
	convey.Convey("Given a stream publisher over a fake client", t, func() {
		fake := &fakeStreams{}
		p := publisher.NewStreamPublisher(fake, publisher.WithStreamPrefix("tags"), publisher.WithMaxLen(500))

		convey.Convey("When a record is published", func() {
			err := p.Publish(context.Background(), record())

			convey.Convey("Then it lands on the sport stream as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fake.args, convey.ShouldHaveLength, 1)
				a := fake.args[0]
				convey.So(a.Stream, convey.ShouldEqual, "tags.gaa")
				convey.So(a.MaxLen, convey.ShouldEqual, 500)
				convey.So(a.Approx, convey.ShouldBeTrue)

				var got model.TagRecord
				data, ok := a.Values.(map[string]interface{})["data"].(string)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(json.Unmarshal([]byte(data), &got), convey.ShouldBeNil)
				convey.So(got.Tag.ID, convey.ShouldEqual, "t1")
				convey.So(*got.Tag.To, convey.ShouldResemble, model.Point{X: 30, Y: 40})
			})
		})

		convey.Convey("When the client fails", func() {
			fake.err = errors.New("connection refused")
			err := p.Publish(context.Background(), record())

			convey.Convey("Then ErrPublish is returned", func() {
				convey.So(errors.Is(err, publisher.ErrPublish), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "tags.gaa")
			})
		})
	})

	convey.Convey("Given the default prefix", t, func() {
		p := publisher.NewStreamPublisher(&fakeStreams{})
		convey.So(p.Stream("soccer"), convey.ShouldEqual, "pitchtag.tags.soccer")
	})
}

func TestNewRedisClient(t *testing.T) {
	convey.Convey("A valid URL builds a client without connecting", t, func() {
		c, err := publisher.NewRedisClient("redis://localhost:6379/2")
		convey.So(err, convey.ShouldBeNil)
		convey.So(c.Options().DB, convey.ShouldEqual, 2)
		_ = c.Close()
	})

	convey.Convey("A malformed URL is rejected", t, func() {
		_, err := publisher.NewRedisClient("http://nope")
		convey.So(errors.Is(err, publisher.ErrRedisURL), convey.ShouldBeTrue)
	})
}

func TestLogPublisher(t *testing.T) {
	convey.Convey("The log publisher accepts records until ctx is canceled", t, func() {
		p := publisher.NewLogPublisher(logger.Nop())
		convey.So(p.Publish(context.Background(), record()), convey.ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		convey.So(p.Publish(ctx, record()), convey.ShouldEqual, context.Canceled)
	})
}
