package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ovaisilyas/stripe-payment-links/internal/metrics"
)

// RouterDeps is everything the router needs. The CSRF wrapper is applied
// by the caller, outside this router.
type RouterDeps struct {
	Auth      *AuthHandler
	Payment   *PaymentHandler
	Home      *HomeHandler
	Sessions  *SessionAuth
	Templates *TemplateCache
	Metrics   metrics.Recorder
	Gatherer  prometheus.Gatherer
	LoginRate *IPRateLimiter
	StaticDir string
}

// NewRouter assembles the full route table and middleware pipeline:
// request-id -> logging -> security headers -> recovery -> routes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(deps.Metrics))
	r.Use(SecurityHeadersMiddleware)
	r.Use(RecoveryMiddleware(deps.Templates))

	if deps.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(deps.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static", fileServer))
	}
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Get("/", deps.Home.Index)

	r.Route("/auth", func(r chi.Router) {
		r.With(deps.Sessions.RedirectIfAuthenticated).Get("/login", deps.Auth.LoginForm)
		if deps.LoginRate != nil {
			r.With(deps.Sessions.RedirectIfAuthenticated, deps.LoginRate.Middleware).Post("/login", deps.Auth.Login)
		} else {
			r.With(deps.Sessions.RedirectIfAuthenticated).Post("/login", deps.Auth.Login)
		}
		r.Get("/logout", deps.Auth.Logout)
		r.Post("/logout", deps.Auth.Logout)
	})

	r.Route("/payment", func(r chi.Router) {
		r.Use(deps.Sessions.RequireAuth)
		r.Get("/create", deps.Payment.CreateForm)
		r.Post("/create", deps.Payment.Create)
		r.Get("/links", deps.Payment.List)
		r.Get("/links/qr", deps.Payment.LinkQR)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, deps.Templates, http.StatusNotFound, "Page not found")
	})

	return r
}
