package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/stockledger/internal/dashboard"
	"github.com/odyssey-erp/stockledger/internal/entry"
	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/ledger/export"
	"github.com/odyssey-erp/stockledger/internal/lookup"
	"github.com/odyssey-erp/stockledger/internal/observability"
	"github.com/odyssey-erp/stockledger/internal/platform/httpx"
	"github.com/odyssey-erp/stockledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	LedgerHandler    *ledger.Handler
	ExportHandler    *export.Handler
	LookupHandler    *lookup.Handler
	EntryHandler     *entry.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
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

	r.Route("/api", func(r chi.Router) {
		if params.LedgerHandler != nil || params.ExportHandler != nil {
			r.Route("/ledger", func(r chi.Router) {
				if params.LedgerHandler != nil {
					params.LedgerHandler.MountRoutes(r)
				}
				if params.ExportHandler != nil {
					params.ExportHandler.MountRoutes(r)
				}
			})
		}
		if params.LookupHandler != nil {
			r.Route("/lookup", params.LookupHandler.MountRoutes)
		}
		if params.EntryHandler != nil {
			r.Route("/entries", params.EntryHandler.MountRoutes)
		}
		if params.DashboardHandler != nil {
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
	})

	return r
}
