package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps are the collaborators of the HTTP surface. Chat is mounted on
// POST /v1/chat and POST /v1/chat/{userId}; Store may be nil.
type RouterDeps struct {
	Portfolio   *service.PortfolioService
	Chat        http.Handler
	Store       Pinger
	StoreName   string
	CORSOrigins []string
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger, deps.Metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		HandleServiceError(w, &domain.ErrNotFound{Resource: "route", ID: r.URL.Path}, logger)
	})

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(deps.Store, deps.StoreName))
	r.Get("/readyz", readyzHandler(deps.Store))
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		// Conversation
		chat := deps.Chat
		if chat == nil {
			chat = unavailableHandler("chat", logger)
		}
		r.Method(http.MethodPost, "/chat", chat)
		r.Method(http.MethodPost, "/chat/{userId}", chat)

		// Portfolio and direct scoring
		if deps.Portfolio != nil {
			r.Get("/users/{userId}/cards", listCardsHandler(deps.Portfolio, logger))
			r.Post("/users/{userId}/cards", registerCardHandler(deps.Portfolio, logger))
			r.Post("/users/{userId}/recommendations", recommendHandler(deps.Portfolio, logger))
		}

		// Flow counters
		if deps.Metrics != nil {
			r.Get("/metrics/flow", flowMetricsHandler(deps.Metrics))
		}
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store Pinger, storeName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "optimiser-api", Status: "healthy", LastChecked: now},
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			start := time.Now()
			err := store.Ping(ctx)
			cancel()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			if storeName == "" {
				storeName = "store"
			}
			services = append(services, domain.ServiceHealth{
				Name:        storeName,
				Status:      status,
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func unavailableHandler(feature string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		HandleServiceError(w, &domain.ErrUnavailable{Feature: feature}, logger)
	}
}

func flowMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.FlowSnapshot())
	}
}
