package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/infra/http/middleware"
)

type RouterConfig struct {
	Health   *HealthHandler
	Cohorts  *CohortHandler
	Rollups  *RollupHandler
	Patients *PatientHandler
	Reports  *ReportHandler

	Auth        middleware.AuthConfig
	CORSOrigins []string
	// WriteLimit caps mutating requests per client per minute; 0 disables it.
	WriteLimit int
	Logger     zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	writes := func(next http.Handler) http.Handler { return next }
	if cfg.WriteLimit > 0 {
		writes = NewRateLimiter(cfg.WriteLimit, time.Minute).Middleware
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth))

		r.Get("/cohorts", cfg.Cohorts.List)
		r.Get("/cohorts/{cohort}", cfg.Cohorts.Query)
		r.Get("/cohorts/{cohort}/export.xlsx", cfg.Cohorts.Export)
		r.Get("/statistics/daily", cfg.Cohorts.DailyStatistics)

		r.Get("/rollups/daily/{date}", cfg.Rollups.Daily)
		r.Get("/rollups/monthly/{yearMonth}", cfg.Rollups.Monthly)
		r.Get("/rollups/monthly/{yearMonth}/export.xlsx", cfg.Rollups.ExportMonthly)
		r.Get("/rollups/monthly/{yearMonth}/buckets/{bucket}", cfg.Rollups.Bucket)

		r.Get("/status-mapping", StatusMapping)

		r.Route("/patients", func(r chi.Router) {
			r.With(writes).Post("/", cfg.Patients.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Patients.Get)
				r.Get("/history", cfg.Patients.History)

				r.Group(func(r chi.Router) {
					r.Use(writes)
					r.Post("/status", cfg.Patients.ChangeStatus)
					r.Post("/callbacks", cfg.Patients.AddCallback)
					r.Post("/callbacks/{callbackId}/complete", cfg.Patients.CompleteCallback)
					r.Post("/callbacks/{callbackId}/cancel", cfg.Patients.CancelCallback)
					r.Post("/visit-confirmation", cfg.Patients.ConfirmVisit)
					r.Delete("/visit-confirmation", cfg.Patients.CancelVisitConfirmation)
					r.Post("/close", cfg.Patients.Close)
					r.Post("/reopen", cfg.Patients.Reopen)
				})
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", cfg.Reports.List)
			r.With(writes).Post("/", cfg.Reports.Generate)
			r.Get("/{id}", cfg.Reports.Get)
			r.With(writes).Patch("/{id}", cfg.Reports.UpdateCommentary)
			r.With(writes).Post("/{id}/feedback", cfg.Reports.AddFeedback)
			r.With(writes).Post("/{id}/refresh", cfg.Reports.Refresh)
		})
	})

	return r
}
