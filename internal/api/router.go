package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"go.opentelemetry.io/otel"

	"github.com/socialchef/lru/internal/middleware"
	"github.com/socialchef/lru/internal/sentry"
)

// NewRouter wires the cache endpoints behind tracing, metrics, CORS, request ids,
// request logging and panic capture.
func NewRouter(s *Server, log *slog.Logger) http.Handler {
	serviceName := "lru-cache"
	origins := []string{"*"}
	if s.cfg != nil {
		if s.cfg.ServiceName != "" {
			serviceName = s.cfg.ServiceName
		}
		if len(s.cfg.Server.CORSAllowedOrigins) > 0 {
			origins = s.cfg.Server.CORSAllowedOrigins
		}
	}
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(otelchi.Middleware(serviceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	))

	// HTTP metrics
	metricCfg := otelchimetric.NewBaseConfig(serviceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(sentry.HTTPMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Post("/set", s.HandleSet)
	r.Get("/get/{key}", s.HandleGet)
	r.Delete("/delete/{key}", s.HandleDelete)
	r.Get("/stats", s.HandleStats)

	return r
}
