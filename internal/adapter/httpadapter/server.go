package httpadapter

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/couchcryptid/safescape-map-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportStore is the report persistence the API and sessions use.
type ReportStore interface {
	LoadAll(ctx context.Context) []domain.Report
	Append(ctx context.Context, report domain.Report) (domain.Report, error)
	Theme(ctx context.Context) string
	SetTheme(ctx context.Context, theme string) error
}

// Interceptor serves requests from the offline cache when it can.
type Interceptor interface {
	Middleware(next http.Handler) http.Handler
	Transport(base http.RoundTripper) http.RoundTripper
}

// Options wires the server's collaborators. Geocoder and Offline are
// optional.
type Options struct {
	Addr          string
	Store         ReportStore
	Sessions      *Sessions
	Geocoder      domain.Geocoder
	Offline       Interceptor
	Assets        fs.FS
	LeafletBase   string
	LocateTimeout time.Duration
	Ready         sharedobs.ReadinessChecker
	Metrics       *observability.Metrics
}

// Server exposes the map page, its JSON API, and the health, readiness and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	store         ReportStore
	sessions      *Sessions
	geocoder      domain.Geocoder
	vendor        *http.Client
	leafletBase   string
	locateTimeout time.Duration
	metrics       *observability.Metrics
}

// NewServer creates the HTTP server and its routes.
func NewServer(opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	transport := http.DefaultTransport
	if opts.Offline != nil {
		transport = opts.Offline.Transport(transport)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:        logger,
		store:         opts.Store,
		sessions:      opts.Sessions,
		geocoder:      opts.Geocoder,
		vendor:        &http.Client{Transport: transport, Timeout: 15 * time.Second},
		leafletBase:   opts.LeafletBase,
		locateTimeout: opts.LocateTimeout,
		metrics:       opts.Metrics,
	}

	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", sharedobs.LivenessHandler())
	router.Get("/readyz", sharedobs.ReadinessHandler(opts.Ready))
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/reports", s.listReports)
		r.Post("/reports", s.createReport)
		r.Get("/search", s.search)

		r.Post("/sessions", s.openSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.closeSession)
			r.Get("/markers", s.listMarkers)
			r.Post("/filter", s.setFilter)
			r.Post("/report-mode", s.enterReportMode)
			r.Post("/clicks", s.click)
			r.Post("/submit", s.submit)
			r.Post("/cancel", s.cancel)
			r.Post("/locate", s.locate)
			r.Get("/nearby", s.nearby)
			r.Get("/nearest", s.nearest)
			r.Get("/recent", s.recent)
			r.Get("/stats", s.stats)
			r.Post("/theme", s.toggleTheme)
			r.Get("/messages", s.messages)
		})
	})

	router.Get("/vendor/*", s.proxyVendor)

	if opts.Assets != nil {
		var static http.Handler = http.FileServer(http.FS(opts.Assets))
		if opts.Offline != nil {
			static = opts.Offline.Middleware(static)
		}
		router.Handle("/*", static)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
