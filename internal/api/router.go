// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/models"
	generatepreviews "f1-previews/internal/workers/generation/generate-previews"
	promptstore "f1-previews/internal/workers/prompts/prompt-store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PreviewStore interface {
	Load(ctx context.Context) models.GeneratedData
	Clear(ctx context.Context) error
}

// Pipeline runs one generation mode against the current aggregate and
// persists the result.
type Pipeline interface {
	Run(ctx context.Context, mode string, req generatepreviews.Request, state models.GeneratedData, driver string, progress generatepreviews.ProgressFunc) (models.GeneratedData, *generatepreviews.Report, error)
}

type PromptStore interface {
	All(ctx context.Context) (map[promptstore.PromptID]string, error)
	Get(ctx context.Context, id promptstore.PromptID) (string, error)
	Set(ctx context.Context, id promptstore.PromptID, value string) error
	Reset(ctx context.Context) error
	LoadSettings(ctx context.Context) (promptstore.Settings, error)
	SaveSettings(ctx context.Context, settings promptstore.Settings) error
}

// ResultsSource is one recent-results adapter; fetch failures yield empty
// results.
type ResultsSource interface {
	Name() string
	SafeDriverResults(ctx context.Context, driverNumber, season int) models.DriverResults
}

type ScheduleSource interface {
	Schedule(ctx context.Context) ([]models.RaceWeekend, error)
}

type ChampionshipSource interface {
	DriversChampionship(ctx context.Context) (map[string]models.ChampionshipStanding, error)
}

// Deps holds everything the router serves from. Results is keyed by source
// name; DefaultSource picks the entry used when the query omits one.
type Deps struct {
	Previews      PreviewStore
	Pipeline      Pipeline
	Prompts       PromptStore
	Results       map[string]ResultsSource
	DefaultSource string
	Schedule      ScheduleSource
	Championship  ChampionshipSource
	Roster        []models.Driver
	Season        int
	Logger        logger.Logger
	Metrics       http.Handler
}

type server struct {
	deps   Deps
	logger logger.Logger
	errors *apperrors.ErrorHandler
	// one generation run at a time
	running sync.Mutex
}

// NewRouter builds the HTTP API.
func NewRouter(deps Deps) chi.Router {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if deps.Roster == nil {
		deps.Roster = models.Roster2025
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	s := &server{
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
		errors: apperrors.NewErrorHandler(log),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", deps.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/previews", func(r chi.Router) {
			r.Get("/", s.getPreviews)
			r.Delete("/", s.clearPreviews)
			r.Get("/drivers/{name}", s.getDriverPreview)
			r.Post("/generate", s.generate)
		})
		r.Get("/drivers", s.listDrivers)
		r.Get("/drivers/{number}/results", s.driverResults)
		r.Get("/schedule", s.schedule)

		r.Get("/prompts", s.listPrompts)
		r.Post("/prompts/reset", s.resetPrompts)
		r.Get("/prompts/{id}", s.getPrompt)
		r.Put("/prompts/{id}", s.putPrompt)

		r.Get("/settings", s.getSettings)
		r.Put("/settings", s.putSettings)
	})

	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request served", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"requestId":  middleware.GetReqID(r.Context()),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}
