package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ovaisilyas/stripe-payment-links/internal/models"
)

// MetadataCreatedByKey is the payment-link metadata key carrying the
// creator's record id. Listing filters on an exact match of this field,
// so it must always equal the session identity that created the link.
const MetadataCreatedByKey = "created_by"

// minimumMinorUnits is Stripe's floor for a one-time price ($0.50).
const minimumMinorUnits = 50

// PriceSpec is the input for creating a priced product on the provider.
type PriceSpec struct {
	UnitAmount  int64
	Currency    string
	ProductName string
	Description string
}

// LinkSpec is the input for creating a payment link for an existing price.
type LinkSpec struct {
	PriceID  string
	Quantity int64
	Metadata map[string]string
}

// ProviderLink is the provider's view of a payment link. Stripe's
// payment-link object carries no creation timestamp, so the only date a
// link has is the created_at value this app stamps into its metadata.
type ProviderLink struct {
	ID       string
	URL      string
	Active   bool
	Metadata map[string]string
}

// PaymentProvider is the slice of the Stripe API the link service uses.
type PaymentProvider interface {
	CreatePrice(ctx context.Context, spec PriceSpec) (priceID string, err error)
	CreateLink(ctx context.Context, spec LinkSpec) (*ProviderLink, error)
	ListLinks(ctx context.Context, limit int64) ([]*ProviderLink, error)
}

// LinkService creates and lists hosted payment links.
type LinkService struct {
	Provider PaymentProvider
}

func NewLinkService(provider PaymentProvider) *LinkService {
	return &LinkService{Provider: provider}
}

// CreateLink creates a priced product and a payment link referencing it,
// tagging the link with the creator's id under MetadataCreatedByKey.
//
// Validation happens before any outbound call: name and a positive amount
// are required, and the amount must round to at least 50 minor units.
// If the link call fails after the price was created, the price is left
// behind; there is no compensation, only a WARN with the orphaned id.
func (s *LinkService) CreateLink(ctx context.Context, req models.LinkRequest, creatorID string) (*models.PaymentLink, error) {
	if req.Name == "" || req.Amount == 0 {
		return nil, fmt.Errorf("%w: name and amount are required", models.ErrValidation)
	}

	minorUnits := int64(math.Round(req.Amount * 100))
	if minorUnits < minimumMinorUnits {
		return nil, fmt.Errorf("%w: amount must be at least $0.50", models.ErrValidation)
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	description := req.Description
	if description == "" {
		description = "Payment for " + req.Name
	}

	priceID, err := s.Provider.CreatePrice(ctx, PriceSpec{
		UnitAmount:  minorUnits,
		Currency:    currency,
		ProductName: req.Name,
		Description: description,
	})
	if err != nil {
		return nil, &models.ProviderError{Op: "create payment link", Err: err}
	}

	metadata := map[string]string{MetadataCreatedByKey: creatorID}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	link, err := s.Provider.CreateLink(ctx, LinkSpec{
		PriceID:  priceID,
		Quantity: quantity,
		Metadata: metadata,
	})
	if err != nil {
		slog.Warn("payment link creation failed after price was created; price is orphaned",
			"price_id", priceID, "error", err)
		return nil, &models.ProviderError{Op: "create payment link", Err: err}
	}

	created := linkCreatedAt(metadata)
	if created.IsZero() {
		created = time.Now().UTC()
	}

	return &models.PaymentLink{
		ID:       link.ID,
		URL:      link.URL,
		Active:   link.Active,
		Created:  created,
		Name:     req.Name,
		Amount:   req.Amount,
		Currency: currency,
	}, nil
}

// linkCreatedAt reads the created_at metadata stamped on links made by
// this app. Links tagged elsewhere come back with a zero time.
func linkCreatedAt(metadata map[string]string) time.Time {
	ts, err := time.Parse(time.RFC3339, metadata["created_at"])
	if err != nil {
		return time.Time{}
	}
	return ts
}

// ListLinks fetches up to limit recent links from the provider and keeps
// only those whose created_by metadata equals creatorID.
//
// The filter runs after the provider truncates at limit, so a creator's
// older links disappear from the list once enough other links exist.
// That matches the behavior this app has always had; fixing it would
// need paging through the full link history.
func (s *LinkService) ListLinks(ctx context.Context, creatorID string, limit int64) ([]*models.PaymentLink, error) {
	links, err := s.Provider.ListLinks(ctx, limit)
	if err != nil {
		return nil, &models.ProviderError{Op: "list payment links", Err: err}
	}

	var out []*models.PaymentLink
	for _, l := range links {
		if l.Metadata[MetadataCreatedByKey] != creatorID {
			continue
		}
		out = append(out, &models.PaymentLink{
			ID:      l.ID,
			URL:     l.URL,
			Active:  l.Active,
			Created: linkCreatedAt(l.Metadata),
		})
	}
	return out, nil
}
