package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ovaisilyas/stripe-payment-links/internal/metrics"
	"github.com/ovaisilyas/stripe-payment-links/internal/models"
	"github.com/ovaisilyas/stripe-payment-links/internal/services"
)

// linksPageSize is how many links the list page fetches from the
// provider before filtering by creator.
const linksPageSize = 20

// hostedLinkPrefix is the only URL prefix the QR endpoint encodes.
const hostedLinkPrefix = "https://buy.stripe.com/"

// LinkManager creates and lists payment links.
type LinkManager interface {
	CreateLink(ctx context.Context, req models.LinkRequest, creatorID string) (*models.PaymentLink, error)
	ListLinks(ctx context.Context, creatorID string, limit int64) ([]*models.PaymentLink, error)
}

type PaymentHandler struct {
	Links          LinkManager
	Sessions       *SessionAuth
	Templates      *TemplateCache
	Metrics        metrics.Recorder
	PublishableKey string
}

// CreateForm renders the link creation page, echoing any previously
// submitted values and pending flashes.
func (h *PaymentHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Sessions.Store.Get(r, sessionName)
	flashes := GetFlash(session)
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}
	r.ParseForm()
	h.renderCreate(w, r, flashes, nil, r.Form)
}

// Create validates the submission and asks the link service to create a
// price and a payment link. The creator identity always comes from the
// session, never the form.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := h.Sessions.CurrentUser(r)
	if user == nil {
		// RequireAuth guards this route; reaching here anonymous means
		// the router is miswired.
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	r.ParseForm()
	form, errs := parseLinkForm(r)
	errs = append(errs, validateForm(form)...)
	if len(errs) > 0 {
		h.renderCreate(w, r, nil, errs, r.Form)
		return
	}

	link, err := h.Links.CreateLink(r.Context(), models.LinkRequest{
		Name:        form.Name,
		Description: form.Description,
		Amount:      form.Amount,
		Currency:    form.Currency,
		Quantity:    form.Quantity,
		Metadata: map[string]string{
			services.MetadataCreatedByKey: user.ID,
			"created_at":                  time.Now().UTC().Format(time.RFC3339),
		},
	}, user.ID)
	if err != nil {
		slog.Error("Payment link creation failed", "user_id", user.ID, "error", err)
		if h.Metrics != nil {
			h.Metrics.RecordLinkCreateFailure(failureReason(err))
		}
		session, _ := h.Sessions.Store.Get(r, sessionName)
		session.AddFlash(FlashMessage{Type: "error", Message: err.Error()})
		if serr := session.Save(r, w); serr != nil {
			slog.Error("Failed to save session", "error", serr)
		}
		h.renderCreate(w, r, nil, []string{err.Error()}, r.Form)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordLinkCreated()
	}

	session, _ := h.Sessions.Store.Get(r, sessionName)
	session.AddFlash(FlashMessage{Type: "success", Message: "Payment link created successfully!"})
	flashes := GetFlash(session)
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}

	tmpl := h.Templates.Get("payment_success.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, map[string]interface{}{
		"Title":       "Payment Link Created",
		"PaymentLink": link,
		"User":        user,
		"Flashes":     flashes,
	}); err != nil {
		slog.Error("Failed to render success page", "error", err)
	}
}

// List shows the creator's payment links. On a provider failure the list
// page is never rendered; the user lands back on the creation page with
// a generic flash.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := h.Sessions.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	links, err := h.Links.ListLinks(r.Context(), user.ID, linksPageSize)
	if err != nil {
		slog.Error("Payment links list failed", "user_id", user.ID, "error", err)
		session, _ := h.Sessions.Store.Get(r, sessionName)
		session.AddFlash(FlashMessage{Type: "error", Message: "Failed to load payment links"})
		if serr := session.Save(r, w); serr != nil {
			slog.Error("Failed to save session", "error", serr)
		}
		http.Redirect(w, r, "/payment/create", http.StatusSeeOther)
		return
	}

	session, _ := h.Sessions.Store.Get(r, sessionName)
	flashes := GetFlash(session)
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}

	tmpl := h.Templates.Get("payment_links.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, map[string]interface{}{
		"Title":        "My Payment Links",
		"PaymentLinks": links,
		"User":         user,
		"Flashes":      flashes,
	}); err != nil {
		slog.Error("Failed to render links page", "error", err)
	}
}

// LinkQR renders a hosted payment link URL as a PNG QR code. Only
// Stripe-hosted link URLs are accepted; anything else is a 400.
func (h *PaymentHandler) LinkQR(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if !strings.HasPrefix(raw, hostedLinkPrefix) {
		http.Error(w, "Invalid payment link URL", http.StatusBadRequest)
		return
	}
	if _, err := url.Parse(raw); err != nil {
		http.Error(w, "Invalid payment link URL", http.StatusBadRequest)
		return
	}

	png, err := qrcode.Encode(raw, qrcode.Medium, 256)
	if err != nil {
		slog.Error("QR encoding failed", "error", err)
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *PaymentHandler) renderCreate(w http.ResponseWriter, r *http.Request, flashes []FlashMessage, errs []string, formData url.Values) {
	tmpl := h.Templates.Get("payment_create.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	data := map[string]interface{}{
		"Title":          "Create Payment Link",
		"CsrfField":      csrf.TemplateField(r),
		"Flashes":        flashes,
		"Errors":         errs,
		"FormData":       formData,
		"User":           h.Sessions.CurrentUser(r),
		"PublishableKey": h.PublishableKey,
	}
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("Failed to render create page", "error", err)
	}
}

func failureReason(err error) string {
	var perr *models.ProviderError
	switch {
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.As(err, &perr):
		return "provider"
	}
	return "unknown"
}
