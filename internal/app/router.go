package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/odyssey-erp/ticketdash/internal/analytics/http"
	"github.com/odyssey-erp/ticketdash/internal/observability"
	"github.com/odyssey-erp/ticketdash/internal/platform/httpx"
	"github.com/odyssey-erp/ticketdash/internal/tickets"
	"github.com/odyssey-erp/ticketdash/jobs"
	"github.com/odyssey-erp/ticketdash/web"
)

// DatasetProbe reports whether the ticket dataset can be served.
type DatasetProbe interface {
	Dataset(ctx context.Context) (*tickets.Table, error)
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	DashboardHandler *analytichttp.Handler
	JobHandler       *jobs.Handler
	Dataset          DatasetProbe
	Metrics          *observability.Metrics
}

type readiness struct {
	Status string `json:"status"`
	Source string `json:"source,omitempty"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Dataset == nil {
			httpx.JSON(w, http.StatusOK, readiness{Status: "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		table, err := params.Dataset.Dataset(ctx)
		if err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, readiness{Status: "unavailable", Error: err.Error()})
			return
		}
		httpx.JSON(w, http.StatusOK, readiness{Status: "ok", Source: table.Source(), Rows: table.Len()})
	})

	if params.DashboardHandler != nil {
		params.DashboardHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := web.StaticFS()
	if err != nil {
		if params.Logger != nil {
			params.Logger.Error("create static sub filesystem", slog.Any("error", err))
		}
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
