// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and PITCHTAG_ env vars on top of the defaults.
// - Errors wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CORSOrigins is a comma separated list of allowed browser origins.
	CORSOrigins string `koanf:"cors_origins"`

	// MaxSessions caps concurrently open tagging sessions. 0 means no cap.
	MaxSessions int `koanf:"max_sessions"`

	// PublishQueueSize bounds the in-memory tag record queue.
	PublishQueueSize int `koanf:"publish_queue_size"`

	// PublishWorkerCount sets the number of publish workers.
	PublishWorkerCount int `koanf:"publish_worker_count"`

	// RedisURL enables the Redis stream publisher when set,
	// e.g. redis://localhost:6379/0.
	RedisURL string `koanf:"redis_url"`

	// StreamPrefix names the Redis streams: {prefix}.{sport}.
	StreamPrefix string `koanf:"stream_prefix"`

	// IngestDedupeSize bounds the external tag deduper. 0 or less is unbounded.
	IngestDedupeSize int `koanf:"ingest_dedupe_size"`

	// FeedBufferSize is the per-client outbound buffer of the live feed.
	FeedBufferSize int `koanf:"feed_buffer_size"`

	// Templates registers extra pitch templates keyed by sport.
	Templates map[string]TemplateConfig `koanf:"templates"`
}

// TemplateConfig is the YAML shape of one pitch template.
type TemplateConfig struct {
	WidthMeters  float64     `koanf:"width_meters"`
	HeightMeters float64     `koanf:"height_meters"`
	LeftGoal     PointConfig `koanf:"left_goal"`
	RightGoal    PointConfig `koanf:"right_goal"`
}

// PointConfig is a coordinate in meters.
type PointConfig struct {
	X float64 `koanf:"x"`
	Y float64 `koanf:"y"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		CORSOrigins:        "*",
		MaxSessions:        1_000,
		PublishQueueSize:   10_000,
		PublishWorkerCount: runtime.NumCPU(),
		StreamPrefix:       "pitchtag.tags",
		IngestDedupeSize:   100_000,
		FeedBufferSize:     64,
	}
}

// Origins splits CORSOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PitchTemplates converts the configured templates, sorted by sport.
func (c *Config) PitchTemplates() []pitch.Template {
	out := make([]pitch.Template, 0, len(c.Templates))
	for sport, t := range c.Templates {
		out = append(out, pitch.Template{
			Sport:        pitch.Key(sport),
			WidthMeters:  t.WidthMeters,
			HeightMeters: t.HeightMeters,
			Goals: pitch.Goals{
				Left:  model.Point{X: t.LeftGoal.X, Y: t.LeftGoal.Y},
				Right: model.Point{X: t.RightGoal.X, Y: t.RightGoal.Y},
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sport < out[j].Sport })
	return out
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.MaxSessions < 0:
		return fmt.Errorf("%w: max_sessions must be >= 0", ErrInvalidConfig)
	case c.PublishQueueSize <= 0:
		return fmt.Errorf("%w: publish_queue_size must be > 0", ErrInvalidConfig)
	case c.PublishWorkerCount <= 0:
		return fmt.Errorf("%w: publish_worker_count must be > 0", ErrInvalidConfig)
	case c.FeedBufferSize <= 0:
		return fmt.Errorf("%w: feed_buffer_size must be > 0", ErrInvalidConfig)
	case c.StreamPrefix == "":
		return fmt.Errorf("%w: stream_prefix must not be empty", ErrInvalidConfig)
	}
	for _, t := range c.PitchTemplates() {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %w: templates.%s: %w", ErrInvalidConfig, ErrInvalidTemplate, t.Sport, err)
		}
	}
	return nil
}
