package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/ovaisilyas/stripe-payment-links/internal/metrics"
	"github.com/ovaisilyas/stripe-payment-links/internal/models"
)

// Authenticator verifies credentials against the record store.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type AuthHandler struct {
	Auth      Authenticator
	Sessions  *SessionAuth
	Templates *TemplateCache
	Metrics   metrics.Recorder
}

// LoginForm renders the sign-in page with any pending flashes.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Sessions.Store.Get(r, sessionName)
	flashes := GetFlash(session)
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}
	h.renderLogin(w, r, flashes, nil, "")
}

// Login handles the sign-in submission. Validation failures re-render
// the form with inline errors; bad credentials and a down record store
// both come back as the same generic message, distinguished only in the
// logs and metrics.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := parseLoginForm(r)
	if errs := validateForm(form); len(errs) > 0 {
		h.renderLogin(w, r, nil, errs, form.Email)
		return
	}

	user, err := h.Auth.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, models.ErrServiceUnavailable) {
			slog.Error("Login failed: record store unavailable", "email", form.Email)
		} else {
			slog.Info("Login failed: invalid credentials", "email", form.Email)
		}
		if h.Metrics != nil {
			h.Metrics.RecordLogin(false)
		}
		h.renderLogin(w, r, nil, []string{"Invalid email or password"}, form.Email)
		return
	}

	if err := h.Sessions.SignIn(w, r, user, FlashMessage{Type: "success", Message: "Welcome back!"}); err != nil {
		slog.Error("Failed to save session", "error", err)
		renderError(w, h.Templates, http.StatusInternalServerError, "Something went wrong!")
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordLogin(true)
	}
	slog.Info("Login successful", "user_id", user.ID)
	http.Redirect(w, r, "/payment/create", http.StatusSeeOther)
}

// Logout destroys the session and always redirects to the login page,
// logging any destroy error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		slog.Error("Logout error", "error", err)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, flashes []FlashMessage, errs []string, email string) {
	tmpl := h.Templates.Get("login.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	data := map[string]interface{}{
		"Title":     "Sign In",
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   flashes,
		"Errors":    errs,
		"Email":     email,
	}
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("Failed to render login page", "error", err)
	}
}
