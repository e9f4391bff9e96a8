// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/pitchtag/internal/adapters/http/feed"
	"github.com/okian/pitchtag/internal/adapters/http/swagger"
	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/internal/domain/classify"
	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/internal/domain/tagging"
	"github.com/okian/pitchtag/pkg/logger"
)

const defaultMaxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context, req service.CreateSessionRequest) (service.SessionView, error)
	GetSession(ctx context.Context, id string) (service.SessionView, error)
	ListSessions(ctx context.Context) ([]service.SessionView, error)
	DeleteSession(ctx context.Context, id string) error
	Sports(ctx context.Context) ([]pitch.Template, error)
	Classify(label string) classify.Result

	Arm(ctx context.Context, id, value string) (tagging.Outcome, error)
	Disarm(ctx context.Context, id string) (tagging.Outcome, error)
	Click(ctx context.Context, id string, req service.ClickRequest) (tagging.Outcome, error)
	Submit(ctx context.Context, id string, meta model.Metadata) (tagging.Outcome, error)
	Cancel(ctx context.Context, id string) (tagging.Outcome, error)

	Tags(ctx context.Context, id string, enriched bool) ([]model.Tag, error)
	EditTag(ctx context.Context, id string, index int, p tagging.Patch) (model.Tag, error)
	DeleteTag(ctx context.Context, id string, index int) (model.Tag, error)
	Undo(ctx context.Context, id string) (model.Tag, bool, error)
	ClearTags(ctx context.Context, id string) (int, error)
	Ingest(ctx context.Context, id string, raws []ingest.RawTag) (service.IngestResult, error)
	Summary(ctx context.Context, id string) (service.SummaryView, error)

	Actions(ctx context.Context, id string) ([]model.ActionDefinition, error)
	AddAction(ctx context.Context, id string, def model.ActionDefinition) (bool, error)
	RemoveAction(ctx context.Context, id, value string) (bool, tagging.Outcome, error)

	SubscribeFeed(ctx context.Context, id string, attach func(feed.Message) error) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	feedHandler   *feed.Handler

	origins      []string
	maxBodyBytes int64
	logger       logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithFeed mounts the live feed websocket.
func WithFeed(h *feed.Handler) Option {
	return func(s *Server) {
		s.feedHandler = h
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		origins:       []string{"*"},
		maxBodyBytes:  defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Handler builds the router with every route attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", s.statsHandler.HandleStats)
	swagger.Register(context.Background(), r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sports", s.handleSports)
		r.Get("/classify", s.handleClassify)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			r.Post("/arm", s.handleArm)
			r.Post("/disarm", s.handleDisarm)
			r.Post("/clicks", s.handleClick)
			r.Post("/submit", s.handleSubmit)
			r.Post("/cancel", s.handleCancel)

			r.Get("/tags", s.handleListTags)
			r.Delete("/tags", s.handleClearTags)
			r.Patch("/tags/{index}", s.handleEditTag)
			r.Delete("/tags/{index}", s.handleDeleteTag)
			r.Post("/undo", s.handleUndo)
			r.Post("/ingest", s.handleIngest)
			r.Get("/summary", s.handleSummary)

			r.Get("/actions", s.handleListActions)
			r.Post("/actions", s.handleAddAction)
			r.Delete("/actions/{value}", s.handleRemoveAction)

			if s.feedHandler != nil {
				r.Get("/feed", func(w http.ResponseWriter, r *http.Request) {
					s.feedHandler.Serve(w, r, chi.URLParam(r, "id"))
				})
			}
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err to a status and writes it. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= statusInternalError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", chimiddleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		err = Wrap(op, err)
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched
// when optional is set.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
