package handler

import (
	"net/http"

	"github.com/landing/backend/internal/config"
	"github.com/landing/backend/internal/metrics"
	"github.com/landing/backend/internal/repository"
	"github.com/landing/backend/internal/service"
	"github.com/landing/backend/internal/validation"
)

// Route paths.
const (
	PathHealth   = "/health"
	PathWaitlist = "/v1/waitlist"
	PathContact  = "/v1/contact"
)

// Options configures NewServer.
type Options struct {
	AllowedOrigin string
	// ExposeErrorTrace adds the wrapped error chain to error responses. Never
	// set in production.
	ExposeErrorTrace bool
	RateLimit        config.RateLimitConfig
	MaxBodyBytes     int64

	DB       repository.DB
	Waitlist service.WaitlistService
	Contact  service.ContactService
	Metrics  *metrics.Metrics
}

// Server is the public HTTP surface: the request logger around the stage
// pipeline.
type Server struct {
	pipeline *Pipeline
	handler  http.Handler
	limiters []*RateLimiter
}

// NewServer assembles the pipeline. Call Close when done.
func NewServer(opts Options) *Server {
	bodyLimit := opts.MaxBodyBytes
	if bodyLimit <= 0 {
		bodyLimit = MaxBodyBytes
	}

	global := NewRateLimiter(RateLimiterConfig{
		Name:              "global",
		Max:               opts.RateLimit.GlobalMax,
		Window:            opts.RateLimit.Window,
		TrustedProxyCount: opts.RateLimit.TrustedProxyCount,
		Metrics:           opts.Metrics,
	})
	strict := NewRateLimiter(RateLimiterConfig{
		Name:              "strict",
		Max:               opts.RateLimit.StrictMax,
		Window:            opts.RateLimit.Window,
		TrustedProxyCount: opts.RateLimit.TrustedProxyCount,
		Metrics:           opts.Metrics,
	})

	health := NewHealthHandler(opts.DB)
	waitlist := NewWaitlistHandler(opts.Waitlist, opts.Metrics)
	contact := NewContactHandler(opts.Contact, opts.Metrics)

	router := NewRouter(
		Route{Method: http.MethodGet, Path: PathHealth, Handle: health.Health},
		Route{Method: http.MethodPost, Path: PathWaitlist, Schema: validation.Waitlist, Handle: waitlist.Subscribe},
		Route{Method: http.MethodPost, Path: PathContact, Schema: validation.Contact, Handle: contact.Submit},
	)

	pipeline := NewPipeline(NewErrorResponder(opts.ExposeErrorTrace),
		RequestIDStage(),
		SecurityHeadersStage(),
		BodyStage(bodyLimit),
		OriginStage(opts.AllowedOrigin),
		global.Stage(),
		strict.Stage(PathWaitlist, PathContact),
		router.Stage(),
		ValidationStage(),
		ControllerStage(),
	)

	return &Server{
		pipeline: pipeline,
		handler:  RequestLogger(opts.Metrics, pipeline),
		limiters: []*RateLimiter{global, strict},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// StageNames returns the pipeline order.
func (s *Server) StageNames() []string { return s.pipeline.StageNames() }

// Close stops background work owned by the server.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Close()
	}
}
