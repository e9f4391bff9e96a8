package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pitchtag/internal/adapters/http/api"
	"github.com/okian/pitchtag/internal/adapters/http/feed"
	workerpool "github.com/okian/pitchtag/internal/adapters/mq/worker"
	"github.com/okian/pitchtag/internal/adapters/publisher"
	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/internal/config"
	"github.com/okian/pitchtag/pkg/logger"
	"github.com/okian/pitchtag/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	redisPingTimeout  = 5 * time.Second
)

func main() {
	// System metrics are sampled by the metrics manager instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithOptions(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger.Get()); err != nil {
		logger.Get().Error(ctx, "pitchtag exited", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the process and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	pub, closePub, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePub()

	hubCtx, stopHub := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHub()
	hub := feed.NewHub(feed.WithHubLogger(log))
	go hub.Run(hubCtx)

	svc := newService(cfg, log, pub, hub)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	go metrics.Default().RunSystemCollector(ctx)

	srv := newHTTPServer(cfg, svc, hub, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout. In-flight requests finish first so
	// the publish queue sees every record before it drains.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service stop failed", logger.Error(err))
	}
	stopHub()

	log.Info(ctx, "server stopped")
	return nil
}

// newPublisher selects the Redis stream publisher when a URL is
// configured, and the log publisher otherwise.
func newPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (workerpool.Publisher, func(), error) {
	if cfg.RedisURL == "" {
		log.Info(ctx, "redis_url not set; tag records go to the log")
		return publisher.NewLogPublisher(log), func() {}, nil
	}

	client, err := publisher.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info(ctx, "publishing tag records to redis", logger.String("stream_prefix", cfg.StreamPrefix))

	closeFn := func() {
		if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			log.Warn(context.Background(), "redis close failed", logger.Error(err))
		}
	}
	return publisher.NewStreamPublisher(client, publisher.WithStreamPrefix(cfg.StreamPrefix)), closeFn, nil
}

func newService(cfg *config.Config, log logger.Logger, pub workerpool.Publisher, n service.Notifier) *service.Service {
	return service.New(
		service.WithLogger(log),
		service.WithWorkerCount(cfg.PublishWorkerCount),
		service.WithQueueSize(cfg.PublishQueueSize),
		service.WithDedupeSize(cfg.IngestDedupeSize),
		service.WithMaxSessions(cfg.MaxSessions),
		service.WithTemplates(cfg.PitchTemplates()...),
		service.WithPublisher(pub),
		service.WithNotifier(n),
	)
}

func newHTTPServer(cfg *config.Config, svc *service.Service, hub *feed.Hub, log logger.Logger) *http.Server {
	feedHandler := feed.NewHandler(hub, svc.SubscribeFeed,
		feed.WithClientBuffer(cfg.FeedBufferSize),
		feed.WithCheckOrigin(feed.AllowOrigins(cfg.Origins())),
	)
	apiServer := api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.Origins()),
		api.WithFeed(feedHandler),
		api.WithLogger(log),
	)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
