package handlers

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ovaisilyas/stripe-payment-links/internal/metrics"
	"github.com/ovaisilyas/stripe-payment-links/internal/models"
)

// Register types for gob encoding (used by sessions)
func init() {
	gob.Register(FlashMessage{})
	gob.Register(models.User{})
}

const (
	sessionName    = "paylink-session"
	sessionUserKey = "user"

	requestIDHeader = "X-Request-ID"
)

// FlashMessage is a one-shot status message shown on the next rendered
// page. Type is "success" or "error".
type FlashMessage struct {
	Type    string
	Message string
}

// GetFlash drains pending flash messages from the session. The caller
// must save the session afterwards or the messages come back.
func GetFlash(session *sessions.Session) []FlashMessage {
	flashes := session.Flashes()
	var messages []FlashMessage
	for _, f := range flashes {
		if fm, ok := f.(FlashMessage); ok {
			messages = append(messages, fm)
		}
	}
	return messages
}

type contextKey string

var requestIDContextKey = contextKey("request_id")

// RequestIDFromContext returns the request id set by RequestIDMiddleware,
// or "" when there is none.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// RequestIDMiddleware honors an inbound X-Request-ID or mints a UUID, and
// echoes it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs each request and feeds the status/duration
// metrics.
func LoggingMiddleware(recorder metrics.Recorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)
			duration := time.Since(start)
			if recorder != nil {
				recorder.RecordHTTPStatus(ww.statusCode)
				recorder.RecordRequestDuration(duration)
			}
			slog.Info("HTTP Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", duration,
				"ip", r.RemoteAddr,
				"request_id", RequestIDFromContext(r.Context()),
			)
		})
	}
}

// Custom ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// SecurityHeadersMiddleware adds standard security headers. The CSP
// allows jsdelivr and Google Fonts, which the pages pull Bootstrap from.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' https://cdn.jsdelivr.net; "+
				"style-src 'self' https://cdn.jsdelivr.net https://fonts.googleapis.com 'unsafe-inline'; "+
				"font-src 'self' https://cdn.jsdelivr.net https://fonts.gstatic.com data:; "+
				"img-src 'self' data:; connect-src 'self'; object-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware stops a panic from killing the process and renders
// the generic 500 page.
func RecoveryMiddleware(templates *TemplateCache) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					renderError(w, templates, http.StatusInternalServerError, "Something went wrong!")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// renderError renders error.html with a fallback to plain text when the
// template is unavailable.
func renderError(w http.ResponseWriter, templates *TemplateCache, status int, message string) {
	tmpl := templates.Get("error.html")
	if tmpl == nil {
		http.Error(w, message, status)
		return
	}
	w.WriteHeader(status)
	if err := tmpl.Execute(w, map[string]interface{}{
		"Title":   "Error",
		"Message": message,
	}); err != nil {
		slog.Error("Failed to render error page", "error", err)
	}
}

// SessionAuth is the request-level auth gate over the cookie session.
type SessionAuth struct {
	Store *sessions.CookieStore
}

// CurrentUser returns the identity held in the session, or nil for an
// anonymous request.
func (a *SessionAuth) CurrentUser(r *http.Request) *models.User {
	session, _ := a.Store.Get(r, sessionName)
	user, ok := session.Values[sessionUserKey].(models.User)
	if !ok {
		return nil
	}
	return &user
}

// SignIn stores the identity in the session.
func (a *SessionAuth) SignIn(w http.ResponseWriter, r *http.Request, user *models.User, flash FlashMessage) error {
	session, _ := a.Store.Get(r, sessionName)
	session.Values[sessionUserKey] = *user
	session.AddFlash(flash)
	return session.Save(r, w)
}

// SignOut destroys the session.
func (a *SessionAuth) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := a.Store.Get(r, sessionName)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1 // Expire immediately
	return session.Save(r, w)
}

// RequireAuth passes authenticated requests through; anonymous ones get
// an error flash and a redirect to the login page. The wrapped handler
// never runs for an anonymous request.
func (a *SessionAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.CurrentUser(r) != nil {
			next.ServeHTTP(w, r)
			return
		}
		session, _ := a.Store.Get(r, sessionName)
		session.AddFlash(FlashMessage{Type: "error", Message: "Please log in to access this page"})
		if err := session.Save(r, w); err != nil {
			slog.Error("Failed to save session", "error", err)
		}
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
	})
}

// RedirectIfAuthenticated keeps a logged-in user away from the login
// page by sending them to the payment creation page.
func (a *SessionAuth) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.CurrentUser(r) != nil {
			http.Redirect(w, r, "/payment/create", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
