package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-auth-api/internal/config"
	"clinic-auth-api/internal/handler"
	"clinic-auth-api/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	healthCheck func(context.Context) error,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, cfg.TrustProxyHeaders)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if healthCheck != nil {
			if err := healthCheck(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Post("/register", authHandler.Register)
		api.Post("/login", authHandler.Login)
		api.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
		api.With(authMiddleware.RequireAuth).Get("/profile", authHandler.Profile)
	})

	return r
}
