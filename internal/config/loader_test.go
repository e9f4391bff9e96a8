package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/pitchtag/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 1_000)
				convey.So(cfg.PublishQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.RedisURL, convey.ShouldBeEmpty)
				convey.So(cfg.StreamPrefix, convey.ShouldEqual, "pitchtag.tags")
				convey.So(cfg.Origins(), convey.ShouldResemble, []string{"*"})
				convey.So(cfg.PitchTemplates(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PITCHTAG_ADDR", ":8080")
			_ = os.Setenv("PITCHTAG_PUBLISH_QUEUE_SIZE", "500")
			_ = os.Setenv("PITCHTAG_PUBLISH_WORKER_COUNT", "3")
			_ = os.Setenv("PITCHTAG_REDIS_URL", "redis://localhost:6379/0")
			_ = os.Setenv("PITCHTAG_CORS_ORIGINS", "https://a.example, https://b.example,")
			_ = os.Setenv("PITCHTAG_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PublishQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.PublishWorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://localhost:6379/0")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.Origins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When loading config with a YAML file carrying templates", func() {
			yamlContent := `
addr: ":9090"
max_sessions: 5
templates:
  Futsal:
    width_meters: 40
    height_meters: 20
    left_goal: {x: 0, y: 10}
    right_goal: {x: 40, y: 10}
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PITCHTAG_CONFIG", tmpFile)
			_ = os.Setenv("PITCHTAG_MAX_SESSIONS", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env overrides them", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 7)
				tpls := cfg.PitchTemplates()
				convey.So(len(tpls), convey.ShouldEqual, 1)
				convey.So(tpls[0].Sport, convey.ShouldEqual, "futsal")
				convey.So(tpls[0].WidthMeters, convey.ShouldEqual, 40)
				convey.So(tpls[0].Goals.Right.X, convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When a configured template has a goal off the surface", func() {
			yamlContent := `
templates:
  futsal:
    width_meters: 40
    height_meters: 20
    left_goal: {x: 0, y: 10}
    right_goal: {x: 45, y: 10}
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PITCHTAG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "templates.futsal")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PITCHTAG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PITCHTAG_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PITCHTAG_PUBLISH_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config values out of range", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		cases := map[string]string{
			"PITCHTAG_PUBLISH_WORKER_COUNT": "0",
			"PITCHTAG_PUBLISH_QUEUE_SIZE":   "-1",
			"PITCHTAG_MAX_SESSIONS":         "-5",
			"PITCHTAG_FEED_BUFFER_SIZE":     "0",
			"PITCHTAG_LOG_FORMAT":           "xml",
		}
		for key, value := range cases {
			convey.Convey("When "+key+" is "+value, func() {
				_ = os.Setenv(key, value)
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.Convey("Then validation rejects it", func() {
					convey.So(cfg, convey.ShouldBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the YAML sets an empty addr", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PITCHTAG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"PITCHTAG_CONFIG",
		"PITCHTAG_ADDR",
		"PITCHTAG_LOG_FORMAT",
		"PITCHTAG_CORS_ORIGINS",
		"PITCHTAG_MAX_SESSIONS",
		"PITCHTAG_PUBLISH_QUEUE_SIZE",
		"PITCHTAG_PUBLISH_WORKER_COUNT",
		"PITCHTAG_REDIS_URL",
		"PITCHTAG_FEED_BUFFER_SIZE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "pitchtag-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
