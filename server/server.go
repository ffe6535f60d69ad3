// Package server - HTTP user interface and JSON API over the detection pipeline.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/config"
	"github.com/nvr-ai/detect-demo/controller"
	"github.com/nvr-ai/detect-demo/inference"
)

// SessionCookie names the cookie that carries the session id.
const SessionCookie = "detect_demo_session"

//go:embed templates/*.html
var templateFS embed.FS

// Pipeline runs one interaction for a session.
type Pipeline interface {
	Run(ctx context.Context, session *controller.Session, req controller.Request) (*controller.Render, error)
}

// Catalog lists the selectable datasets.
type Catalog interface {
	Datasets() []config.Dataset
	Names() []string
}

// Options configure a Server.
type Options struct {
	// Samples are the URLs the shuffle button picks from.
	Samples []string
	// Defaults are the initial slider positions.
	Defaults inference.Thresholds
	// Registry receives the metrics. Nil creates a private registry.
	Registry *prometheus.Registry
	// Logger receives request failures. Nil discards them.
	Logger common.Logger
	// IntN picks the shuffle index. Nil uses math/rand/v2.
	IntN func(n int) int
}

// Server serves the UI and API.
type Server struct {
	pipeline Pipeline
	catalog  Catalog
	sessions *controller.SessionStore
	options  Options
	metrics  *Metrics
	page     *template.Template
	logger   common.Logger
	mux      *http.ServeMux
}

// New creates a server.
//
// Arguments:
//   - pipeline: Runs interactions.
//   - catalog: The dataset table.
//   - sessions: Holds browser sessions.
//   - options: Optional settings.
//
// Returns:
//   - *Server: The server.
//   - error: An error if the template cannot be parsed or metrics cannot be registered.
func New(pipeline Pipeline, catalog Catalog, sessions *controller.SessionStore, options Options) (*Server, error) {
	if options.Registry == nil {
		options.Registry = prometheus.NewRegistry()
	}
	logger := options.Logger
	if logger == nil {
		logger = common.NopLogger{}
	}

	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	metrics, err := NewMetrics(options.Registry, func() float64 { return float64(sessions.Len()) })
	if err != nil {
		return nil, errors.Wrap(err, "register metrics")
	}

	s := &Server{
		pipeline: pipeline,
		catalog:  catalog,
		sessions: sessions,
		options:  options,
		metrics:  metrics,
		page:     page,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.handle("GET /{$}", "index", s.handleIndex)
	s.handle("POST /predict", "predict", s.handlePredict)
	s.handle("POST /shuffle", "shuffle", s.handleShuffle)
	s.handle("GET /render.png", "render", s.handleRender)
	s.handle("POST /api/predict", "api_predict", s.handleAPIPredict)
	s.handle("GET /api/datasets", "api_datasets", s.handleAPIDatasets)
	s.handle("GET /healthz", "healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.options.Registry, promhttp.HandlerOpts{}))
}

func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.observeRequest(route, rec.status)
	}))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Printf("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// StatusFor maps an error kind to the HTTP status reported for it.
func StatusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindNetwork:
		return http.StatusBadGateway
	case common.KindDecode:
		return http.StatusUnprocessableEntity
	case common.KindConfiguration:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
