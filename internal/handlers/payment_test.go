package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaisilyas/stripe-payment-links/internal/models"
	"github.com/ovaisilyas/stripe-payment-links/internal/services"
)

func TestCreate_DefaultsApplied(t *testing.T) {
	auth := testSessionAuth()
	var gotReq models.LinkRequest
	var gotCreator string
	links := &mockLinkManager{
		createLinkFn: func(ctx context.Context, req models.LinkRequest, creatorID string) (*models.PaymentLink, error) {
			gotReq = req
			gotCreator = creatorID
			return &models.PaymentLink{
				ID:       "plink_1",
				URL:      "https://buy.stripe.com/test_1",
				Active:   true,
				Created:  time.Unix(1700000000, 0),
				Name:     req.Name,
				Amount:   req.Amount,
				Currency: "usd",
			}, nil
		},
	}
	router := testRouter(t, auth, &mockAuthenticator{}, links)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, formRequest("/payment/create", url.Values{
		"name":   {"Widget"},
		"amount": {"9.99"},
	}, signIn(t, auth)))

	res := rec.Result()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	page := body(t, res)
	assert.Contains(t, page, "success:plink_1:https://buy.stripe.com/test_1:Widget")
	assert.Contains(t, page, "[[success:Payment link created successfully!]]")

	assert.Equal(t, "Widget", gotReq.Name)
	assert.Equal(t, 9.99, gotReq.Amount)
	assert.Empty(t, gotReq.Currency, "currency defaulting is the service's job")
	assert.Equal(t, "rec123", gotCreator, "creator comes from the session")
	assert.Equal(t, "rec123", gotReq.Metadata[services.MetadataCreatedByKey])

	createdAt, err := time.Parse(time.RFC3339, gotReq.Metadata["created_at"])
	require.NoError(t, err, "created_at metadata is ISO-8601")
	assert.WithinDuration(t, time.Now().UTC(), createdAt, time.Minute)
}

func TestCreate_AmountBelowMinimum(t *testing.T) {
	auth := testSessionAuth()
	links := &mockLinkManager{}
	router := testRouter(t, auth, &mockAuthenticator{}, links)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, formRequest("/payment/create", url.Values{
		"name":   {"Widget"},
		"amount": {"0.25"},
	}, signIn(t, auth)))

	assert.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "[Amount must be at least $0.50]")
	assert.Contains(t, page, "name=Widget", "submitted values are echoed")
	assert.Zero(t, links.createCalls, "no provider call on validation failure")
}

func TestCreate_ValidationMessages(t *testing.T) {
	auth := testSessionAuth()
	links := &mockLinkManager{}
	router := testRouter(t, auth, &mockAuthenticator{}, links)
	cookies := signIn(t, auth)

	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing name", url.Values{"amount": {"5"}}, "[Product name is required and must be less than 100 characters]"},
		{"bad currency", url.Values{"name": {"W"}, "amount": {"5"}, "currency": {"jpy"}}, "[Invalid currency]"},
		{"quantity too big", url.Values{"name": {"W"}, "amount": {"5"}, "quantity": {"1001"}}, "[Quantity must be between 1 and 1000]"},
		{"quantity not a number", url.Values{"name": {"W"}, "amount": {"5"}, "quantity": {"lots"}}, "[Quantity must be between 1 and 1000]"},
		{"quantity zero", url.Values{"name": {"W"}, "amount": {"5"}, "quantity": {"0"}}, "[Quantity must be between 1 and 1000]"},
		{"amount not a number", url.Values{"name": {"W"}, "amount": {"free"}}, "[Amount must be at least $0.50]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, formRequest("/payment/create", tc.form, cookies))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
	assert.Zero(t, links.createCalls)
}

func TestCreate_ProviderFailure(t *testing.T) {
	auth := testSessionAuth()
	links := &mockLinkManager{
		createLinkFn: func(ctx context.Context, req models.LinkRequest, creatorID string) (*models.PaymentLink, error) {
			return nil, &models.ProviderError{Op: "create payment link", Err: assert.AnError}
		},
	}
	router := testRouter(t, auth, &mockAuthenticator{}, links)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, formRequest("/payment/create", url.Values{
		"name":   {"Widget"},
		"amount": {"9.99"},
	}, signIn(t, auth)))

	// The provider message is surfaced as-is on the re-rendered form.
	assert.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "failed to create payment link")
	assert.Contains(t, page, "name=Widget")
}

func TestList_RendersCreatorLinks(t *testing.T) {
	auth := testSessionAuth()
	links := &mockLinkManager{
		listLinksFn: func(ctx context.Context, creatorID string, limit int64) ([]*models.PaymentLink, error) {
			assert.Equal(t, "rec123", creatorID)
			assert.Equal(t, int64(20), limit, "fixed page size of 20")
			return []*models.PaymentLink{{ID: "plink_a"}, {ID: "plink_b"}}, nil
		},
	}
	router := testRouter(t, auth, &mockAuthenticator{}, links)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, getRequest("/payment/links", signIn(t, auth)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "links(plink_a)(plink_b)")
}

func TestList_FailureRedirectsToCreate(t *testing.T) {
	auth := testSessionAuth()
	links := &mockLinkManager{
		listLinksFn: func(ctx context.Context, creatorID string, limit int64) ([]*models.PaymentLink, error) {
			return nil, &models.ProviderError{Op: "list payment links", Err: assert.AnError}
		},
	}
	router := testRouter(t, auth, &mockAuthenticator{}, links)
	cookies := signIn(t, auth)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, getRequest("/payment/links", cookies))

	res := rec.Result()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode, "the list page never renders in an error state")
	assert.Equal(t, "/payment/create", res.Header.Get("Location"))

	// The generic flash shows on the creation page. The redirect's
	// Set-Cookie carries both the identity and the queued flash.
	req := getRequest("/payment/create", res.Cookies())
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Contains(t, rec2.Body.String(), "[[error:Failed to load payment links]]")
}

func TestLinkQR(t *testing.T) {
	auth := testSessionAuth()
	router := testRouter(t, auth, &mockAuthenticator{}, &mockLinkManager{})
	cookies := signIn(t, auth)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, getRequest("/payment/links/qr?url="+url.QueryEscape("https://buy.stripe.com/test_abc"), cookies))

	res := rec.Result()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	png := body(t, res)
	require.Greater(t, len(png), 8)
	assert.Equal(t, "\x89PNG\r\n\x1a\n", png[:8], "response is a PNG image")
}

func TestLinkQR_RejectsForeignURLs(t *testing.T) {
	auth := testSessionAuth()
	router := testRouter(t, auth, &mockAuthenticator{}, &mockLinkManager{})
	cookies := signIn(t, auth)

	for _, bad := range []string{
		"https://evil.example.com/pay",
		"http://buy.stripe.com/test_abc",
		"",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, getRequest("/payment/links/qr?url="+url.QueryEscape(bad), cookies))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "url=%q", bad)
	}
}
