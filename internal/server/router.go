package server

import (
	"log/slog"
	"net/http"
	"time"

	"scanstock-backend/internal/config"
	"scanstock-backend/internal/handler"
	"scanstock-backend/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Health     handler.HealthHandler
	Docs       handler.DocsHandler
	Auth       handler.AuthHandler
	Users      handler.UserHandler
	Products   handler.ProductHandler
	Sales      handler.SaleHandler
	Categories handler.CategoryHandler
	Business   handler.BusinessHandler
	Activities handler.ActivityHandler
	AppUpdates handler.AppUpdateHandler
}

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config, logger *slog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, 1*time.Minute))
	}

	h.Health.RegisterRoutes(r)
	h.Docs.RegisterRoutes(r)
	h.Auth.RegisterRoutes(r)
	h.AppUpdates.RegisterPublicRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())
	if cfg.UploadDir != "" {
		fs := http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(cfg.UploadDir)))
		r.Method("GET", storage.URLPrefix+"*", fs)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		h.Users.RegisterRoutes(pr)
		h.Products.RegisterRoutes(pr)
		h.Sales.RegisterRoutes(pr)
		h.Categories.RegisterRoutes(pr)
		h.Business.RegisterRoutes(pr)
		h.Activities.RegisterRoutes(pr)
		h.AppUpdates.RegisterRoutes(pr)
	})

	return r
}
