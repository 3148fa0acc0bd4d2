package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/flightdesk-api/internal/config"
	"github.com/flightdesk-api/internal/domain"
	"github.com/flightdesk-api/internal/transport/http/handler"
	appmiddleware "github.com/flightdesk-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"golang.org/x/time/rate"
)

const requestTimeout = 30 * time.Second

// NewRouter builds and returns the application router. ctx bounds the
// background cleanup of the per-IP limiter.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmiddleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(secureHeaders(cfg))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	authMw := appmiddleware.Auth(deps.Verifier)
	guard := appmiddleware.Guard{Gate: deps.Gate}
	if deps.Metrics != nil {
		guard.OnDeny = deps.Metrics.GateDenied
	}

	// 5 requests/second, burst of 10, for the endpoints that mint or redeem links.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler(deps.Checks)
	authH := handler.NewAuthHandler(deps.Auth)
	userH := handler.NewUserHandler(deps.Users)
	baseH := handler.NewBaseHandler(deps.Bases)
	aircraftH := handler.NewAircraftHandler(deps.Aircraft, cfg.UploadMaxBytes)

	r.Get("/health", healthH.Live)
	r.Get("/health/ready", healthH.Ready)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Post("/magic-link", authH.RequestLink)
		r.With(sensitiveRL.Limit).Get("/verify", authH.Verify)
		r.With(sensitiveRL.Limit).Post("/verify", authH.Verify)
		if cfg.GoogleClientID != "" {
			r.With(sensitiveRL.Limit).Post("/google", authH.Google)
		}
		r.With(authMw).Get("/profile", authH.Profile)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMw)
		if deps.Identities != nil {
			r.Use(appmiddleware.Active(deps.Identities))
		}

		r.With(guard.RequireRole(domain.RoleUser)).Get("/roles", handler.ListRoles)

		r.Route("/users", func(r chi.Router) {
			r.With(guard.RequirePermission(domain.PermUsersRead)).Get("/", userH.List)
			r.With(guard.RequirePermission(domain.PermUsersRead)).Get("/{id}", userH.Get)
			r.With(guard.RequirePermission(domain.PermUsersWrite)).Put("/{id}", userH.Update)
		})

		r.Route("/bases", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(guard.RequirePermission(domain.PermBasesRead))
				r.Get("/", baseH.List)
				r.Get("/{id}", baseH.Get)
			})
			r.Group(func(r chi.Router) {
				r.Use(guard.RequirePermission(domain.PermBasesWrite))
				r.Post("/", baseH.Create)
				r.Put("/{id}", baseH.Update)
				r.Delete("/{id}", baseH.Delete)
			})
		})

		r.Route("/aircraft", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(guard.RequirePermission(domain.PermAircraftRead))
				r.Get("/", aircraftH.List)
				r.Get("/{id}", aircraftH.Get)
				r.Get("/{id}/image", aircraftH.Image)
			})
			r.Group(func(r chi.Router) {
				r.Use(guard.RequirePermission(domain.PermAircraftWrite))
				r.Post("/", aircraftH.Create)
				r.Put("/{id}", aircraftH.Update)
				r.Delete("/{id}", aircraftH.Delete)
			})
			r.With(guard.RequirePermission(domain.PermFilesWrite)).Post("/{id}/image", aircraftH.UploadImage)
		})
	})

	return r
}

func secureHeaders(cfg *config.Config) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.IsProduction(),
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				slog.Warn("secure headers blocked request", "err", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
