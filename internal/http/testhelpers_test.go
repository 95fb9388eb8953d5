package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	fakes "github.com/socialadify/adify-console/internal/mocks/auth"
	"github.com/socialadify/adify-console/internal/service"
)

const (
	adminEmail   = "ada@example.com"
	memberEmail  = "bob@example.com"
	testPassword = "Str0ng!pass"
	testCSRF     = "test-csrf-token"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// consoleFixture wires the real session store to a fake API behind the full router.
type consoleFixture struct {
	gw      *fakes.FakeGateway
	kv      *fakes.MemoryKV
	tokens  *service.TokenStore
	store   *service.SessionStore
	handler http.Handler
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("Templates not available, skipping integration test")
	}

	gw := fakes.NewFakeGateway()
	gw.AddAccount(testPassword, domainauth.User{ID: "u-1", FirstName: "Ada", LastName: "Lovelace", Email: adminEmail, IsAdmin: true})
	gw.AddAccount(testPassword, domainauth.User{ID: "u-2", FirstName: "Bob", LastName: "Builder", Email: memberEmail})

	kv := fakes.NewMemoryKV()
	logger := discardLogger()
	tokens := service.NewTokenStore(service.TokenStoreOptions{KV: kv, Logger: logger})
	store := service.NewSessionStore(service.SessionStoreOptions{
		Gateway: gw,
		Tokens:  tokens,
		Config:  service.SessionConfig{Logger: logger},
	})

	handler, err := NewRouter(RouterServices{
		Session:    store,
		Tokens:     tokens,
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     logger,
	})
	require.NoError(t, err)

	return &consoleFixture{gw: gw, kv: kv, tokens: tokens, store: store, handler: handler}
}

func (f *consoleFixture) hydrate(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Hydrate(context.Background()))
}

func (f *consoleFixture) loginAs(t *testing.T, email string) {
	t.Helper()
	f.hydrate(t)
	_, err := f.store.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
}

func (f *consoleFixture) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func browserGet(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	return r
}

func apiRequest(method, path, body string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Accept", "application/json")
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRF})
	r.Header.Set(DefaultCSRFHeaderName, testCSRF)
	return r
}

// formPost builds a browser form submission carrying a valid CSRF pair.
func formPost(path string, values url.Values) *http.Request {
	if values == nil {
		values = url.Values{}
	}
	values.Set("csrf_token", testCSRF)
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Accept", "text/html")
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRF})
	return r
}

func asHTMX(r *http.Request, currentURL string) *http.Request {
	r.Header.Set("Hx-Request", "true")
	if currentURL != "" {
		r.Header.Set("Hx-Current-Url", currentURL)
	}
	return r
}
