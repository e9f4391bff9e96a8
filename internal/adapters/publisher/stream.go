// Package publisher delivers tag records to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/pkg/logger"
)

const defaultStreamPrefix = "pitchtag.tags"

// StreamAdder is the subset of the Redis client the stream publisher needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher appends tag records to Redis Streams.
// Stream key format: {prefix}.{sport}
type StreamPublisher struct {
	client StreamAdder
	prefix string
	maxLen int64
}

// StreamOption configures a StreamPublisher.
type StreamOption func(*StreamPublisher)

// WithStreamPrefix sets the stream key prefix.
func WithStreamPrefix(prefix string) StreamOption {
	return func(p *StreamPublisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithMaxLen approximately trims each stream to n entries. 0 disables trimming.
func WithMaxLen(n int64) StreamOption {
	return func(p *StreamPublisher) {
		if n >= 0 {
			p.maxLen = n
		}
	}
}

// NewStreamPublisher creates a stream publisher over an existing client.
func NewStreamPublisher(client StreamAdder, opts ...StreamOption) *StreamPublisher {
	p := &StreamPublisher{client: client, prefix: defaultStreamPrefix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewRedisClient parses a redis:// URL and builds a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisURL, err)
	}
	return redis.NewClient(opts), nil
}

// Stream returns the stream key for a sport.
func (p *StreamPublisher) Stream(sport string) string {
	return p.prefix + "." + sport
}

// Publish appends r as JSON under the "data" field.
func (p *StreamPublisher) Publish(ctx context.Context, r model.TagRecord) error { //nolint:gocritic // hugeParam: matches the worker Publisher contract
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: marshal tag %s: %v", ErrPublish, r.Tag.ID, err)
	}
	stream := p.Stream(r.Sport)
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%w: stream %s: %v", ErrPublish, stream, err)
	}
	return nil
}

// LogPublisher writes records to the structured log. It is used when no
// Redis URL is configured.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses the global one.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	if l == nil {
		l = logger.Get()
	}
	return &LogPublisher{logger: l.Named("publisher")}
}

// Publish logs the record.
func (p *LogPublisher) Publish(ctx context.Context, r model.TagRecord) error { //nolint:gocritic // hugeParam: matches the worker Publisher contract
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info(ctx, "tag record",
		logger.String("session", r.SessionID),
		logger.String("sport", r.Sport),
		logger.String("op", string(r.Op)),
		logger.String("tag", r.Tag.ID),
		logger.String("action", r.Tag.Action),
	)
	return nil
}
