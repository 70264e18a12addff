package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/ovaisilyas/stripe-payment-links/internal/config"
	"github.com/ovaisilyas/stripe-payment-links/internal/gateway"
	"github.com/ovaisilyas/stripe-payment-links/internal/handlers"
	"github.com/ovaisilyas/stripe-payment-links/internal/metrics"
	"github.com/ovaisilyas/stripe-payment-links/internal/services"
)

func main() {
	// 1. Load Configuration (needed first for the log level)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// 2. External collaborators
	recordStore := gateway.NewAirtableStore(cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.AirtableTableName)
	provider := gateway.NewStripeProvider(cfg.StripeSecretKey)

	authService := services.NewAuthService(recordStore)
	linkService := services.NewLinkService(provider)

	// 3. Session Setup (24h rolling, secure in production)
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	sessionStore.Options.MaxAge = int((24 * time.Hour).Seconds())
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}
	sessionAuth := &handlers.SessionAuth{Store: sessionStore}

	// 4. Init Templates
	templates := handlers.NewTemplateCache()
	if err := templates.Load("templates"); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 5. Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Login attempts: 10 per minute per IP
	loginRate := handlers.NewIPRateLimiter(rate.Limit(10.0/60.0), 10)
	defer loginRate.Stop()

	// 6. Handlers and routes
	router := handlers.NewRouter(handlers.RouterDeps{
		Auth: &handlers.AuthHandler{
			Auth:      authService,
			Sessions:  sessionAuth,
			Templates: templates,
			Metrics:   collector,
		},
		Payment: &handlers.PaymentHandler{
			Links:          linkService,
			Sessions:       sessionAuth,
			Templates:      templates,
			Metrics:        collector,
			PublishableKey: cfg.StripePublishableKey,
		},
		Home:      &handlers.HomeHandler{Sessions: sessionAuth},
		Sessions:  sessionAuth,
		Templates: templates,
		Metrics:   collector,
		Gatherer:  registry,
		LoginRate: loginRate,
		StaticDir: "./static",
	})

	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: CSRF(router),
	}

	// 7. Start Server with Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
