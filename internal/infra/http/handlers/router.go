package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/sales-operator/internal/infra/http/middleware"
	"github.com/xavierca1/sales-operator/internal/usecase"
)

type RouterConfig struct {
	Leads          *usecase.LeadService
	Tasks          *usecase.TaskService
	Health         *HealthHandler
	AllowedOrigins []string
	// IntakeRateLimit caps POST /leads per client IP per minute.
	IntakeRateLimit int
	// Quiet drops the request logger (tests).
	Quiet bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	leads := NewLeadHandler(cfg.Leads, cfg.IntakeRateLimit)
	tasks := NewTaskHandler(cfg.Tasks)
	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil, nil, "")
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	if !cfg.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/leads", func(r chi.Router) {
		r.Post("/", leads.Create)
		r.Get("/", leads.List)
		r.Get("/by-email", leads.FindByEmail)
		r.Get("/{id}", leads.Get)
		r.Patch("/{id}/status", leads.UpdateStatus)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", tasks.Create)
		r.Get("/", tasks.List)
		r.Get("/open", tasks.Open)
		r.Get("/quick", tasks.Quick)
		r.Get("/prioritized", tasks.Prioritized)
		r.Get("/{id}", tasks.Get)
		r.Patch("/{id}", tasks.Update)
		r.Post("/{id}/actions", tasks.LogAction)
		r.Post("/{id}/done", tasks.MarkDone)
		r.Post("/{id}/reopen", tasks.Reopen)
	})

	return r
}
