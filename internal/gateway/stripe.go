package gateway

import (
	"context"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/ovaisilyas/stripe-payment-links/internal/services"
)

// StripeProvider implements services.PaymentProvider against the Stripe
// Prices and Payment Links APIs.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// CreatePrice creates a one-time price with inline product data. The
// description rides on the product metadata, as the original did.
func (p *StripeProvider) CreatePrice(ctx context.Context, spec services.PriceSpec) (string, error) {
	params := &stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		UnitAmount: stripe.Int64(spec.UnitAmount),
		Currency:   stripe.String(spec.Currency),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(spec.ProductName),
			Metadata: map[string]string{
				"description": spec.Description,
			},
		},
	}
	price, err := p.api.Prices.New(params)
	if err != nil {
		return "", err
	}
	return price.ID, nil
}

// CreateLink creates a payment link for an already-created price.
func (p *StripeProvider) CreateLink(ctx context.Context, spec services.LinkSpec) (*services.ProviderLink, error) {
	params := &stripe.PaymentLinkParams{
		Params: stripe.Params{Context: ctx, Metadata: spec.Metadata},
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(spec.PriceID),
				Quantity: stripe.Int64(spec.Quantity),
			},
		},
	}
	link, err := p.api.PaymentLinks.New(params)
	if err != nil {
		return nil, err
	}
	return providerLink(link), nil
}

// ListLinks fetches up to limit payment links in the provider's default
// order. No creator filtering happens here; that is the service's job.
// The iterator auto-paginates past Limit (it only sets the page size),
// so the loop stops itself once one page's worth has been collected.
func (p *StripeProvider) ListLinks(ctx context.Context, limit int64) ([]*services.ProviderLink, error) {
	params := &stripe.PaymentLinkListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)

	var out []*services.ProviderLink
	iter := p.api.PaymentLinks.List(params)
	for iter.Next() {
		out = append(out, providerLink(iter.PaymentLink()))
		if int64(len(out)) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func providerLink(link *stripe.PaymentLink) *services.ProviderLink {
	return &services.ProviderLink{
		ID:       link.ID,
		URL:      link.URL,
		Active:   link.Active,
		Metadata: link.Metadata,
	}
}
