package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/ovaisilyas/stripe-payment-links/internal/models"
)

// Shared fixtures for the handler tests: a throwaway template set, a
// cookie session store and request helpers.

var testTemplateFiles = map[string]string{
	"login.html": `login{{range .Errors}}[{{.}}]{{end}}` +
		`{{range .Flashes}}[[{{.Type}}:{{.Message}}]]{{end}}email={{.Email}}`,
	"payment_create.html": `create{{range .Errors}}[{{.}}]{{end}}` +
		`{{range .Flashes}}[[{{.Type}}:{{.Message}}]]{{end}}name={{.FormData.Get "name"}}`,
	"payment_success.html": `success:{{.PaymentLink.ID}}:{{.PaymentLink.URL}}:` +
		`{{.PaymentLink.Name}}{{range .Flashes}}[[{{.Type}}:{{.Message}}]]{{end}}`,
	"payment_links.html": `links{{range .PaymentLinks}}({{.ID}}){{end}}` +
		`{{range .Flashes}}[[{{.Type}}:{{.Message}}]]{{end}}`,
	"error.html": `error:{{.Message}}`,
}

func testTemplates(t *testing.T) *TemplateCache {
	t.Helper()
	dir := t.TempDir()
	for name, content := range testTemplateFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	tc := NewTemplateCache()
	require.NoError(t, tc.Load(dir))
	return tc
}

func testSessionAuth() *SessionAuth {
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	store.Options.Path = "/"
	return &SessionAuth{Store: store}
}

var testUser = models.User{ID: "rec123", Email: "juliette@example.com", Name: "Juliette", Role: "user"}

// signIn returns the cookies of a session holding testUser.
func signIn(t *testing.T, auth *SessionAuth) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := auth.Store.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionUserKey] = testUser
	require.NoError(t, session.Save(req, rec))
	return rec.Result().Cookies()
}

func formRequest(target string, form url.Values, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func getRequest(target string, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func body(t *testing.T, res *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

// --- mocks ---

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, email, password string) (*models.User, error)
	calls          int
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	m.calls++
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, email, password)
	}
	return nil, models.ErrInvalidCredentials
}

type mockLinkManager struct {
	createLinkFn func(ctx context.Context, req models.LinkRequest, creatorID string) (*models.PaymentLink, error)
	listLinksFn  func(ctx context.Context, creatorID string, limit int64) ([]*models.PaymentLink, error)
	createCalls  int
	listCalls    int
}

func (m *mockLinkManager) CreateLink(ctx context.Context, req models.LinkRequest, creatorID string) (*models.PaymentLink, error) {
	m.createCalls++
	if m.createLinkFn != nil {
		return m.createLinkFn(ctx, req, creatorID)
	}
	return &models.PaymentLink{ID: "plink_1", URL: "https://buy.stripe.com/test_1", Name: req.Name}, nil
}

func (m *mockLinkManager) ListLinks(ctx context.Context, creatorID string, limit int64) ([]*models.PaymentLink, error) {
	m.listCalls++
	if m.listLinksFn != nil {
		return m.listLinksFn(ctx, creatorID, limit)
	}
	return nil, nil
}

// testRouter builds the full route table without the CSRF wrapper.
func testRouter(t *testing.T, auth *SessionAuth, authn *mockAuthenticator, links *mockLinkManager) http.Handler {
	t.Helper()
	templates := testTemplates(t)
	return NewRouter(RouterDeps{
		Auth:      &AuthHandler{Auth: authn, Sessions: auth, Templates: templates},
		Payment:   &PaymentHandler{Links: links, Sessions: auth, Templates: templates},
		Home:      &HomeHandler{Sessions: auth},
		Sessions:  auth,
		Templates: templates,
	})
}
