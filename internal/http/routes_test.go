package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/service"
)

func loginForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestRouter_RedirectRoundTrip(t *testing.T) {
	f := newConsoleFixture(t)
	f.hydrate(t)

	rec := f.do(browserGet("/scheduler"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = f.do(formPost("/login", loginForm(adminEmail, testPassword)))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/scheduler", rec.Header().Get("Location"))
	assert.Empty(t, f.tokens.RedirectTarget(context.Background()), "target is consumed")

	rec = f.do(browserGet("/scheduler"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scheduler")
}

func TestRouter_ValidLoginFetchesUserOnce(t *testing.T) {
	f := newConsoleFixture(t)
	f.hydrate(t)

	rec := f.do(formPost("/login", loginForm(memberEmail, testPassword)))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
	assert.Equal(t, 1, f.gw.Calls("Login"))
	assert.Equal(t, 1, f.gw.Calls("FetchCurrentUser"))
	assert.NotEmpty(t, f.tokens.Token(context.Background()))
}

func TestRouter_WrongPasswordKeepsTarget(t *testing.T) {
	f := newConsoleFixture(t)
	f.hydrate(t)
	f.do(browserGet("/caption-history"))

	rec := f.do(formPost("/login", loginForm(memberEmail, "wrong-Pass1!")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password.")
	assert.Contains(t, rec.Body.String(), `value="bob@example.com"`)
	assert.Empty(t, f.tokens.Token(context.Background()))
	assert.False(t, f.store.Snapshot().IsAuthenticated())

	rec = f.do(formPost("/login", loginForm(memberEmail, testPassword)))
	assert.Equal(t, "/caption-history", rec.Header().Get("Location"))
}

func TestRouter_StaleStoredToken(t *testing.T) {
	f := newConsoleFixture(t)
	require.NoError(t, f.kv.Set(context.Background(), "authToken", "token-revoked"))
	f.hydrate(t)

	snap := f.store.Snapshot()
	assert.True(t, snap.IsReady)
	assert.False(t, snap.IsAuthenticated())
	assert.Empty(t, f.tokens.Token(context.Background()))

	rec := f.do(browserGet("/dashboard"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = f.do(browserGet("/login"))
	assert.Contains(t, rec.Body.String(), "Your session has expired")
	rec = f.do(browserGet("/login"))
	assert.NotContains(t, rec.Body.String(), "Your session has expired", "shown once")
}

func TestRouter_BeforeHydrationShowsPlaceholder(t *testing.T) {
	f := newConsoleFixture(t)

	rec := f.do(browserGet("/dashboard"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading")
	assert.Empty(t, f.tokens.RedirectTarget(context.Background()))
}

func TestRouter_Logout(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, memberEmail)

	rec := f.do(formPost("/logout", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, f.tokens.Token(context.Background()))

	rec = f.do(browserGet("/home"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRouter_LogoutAPI(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, memberEmail)

	rec := f.do(apiRequest(http.MethodPost, "/logout", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/login", body["redirect_to"])
}

func TestRouter_CSRFRequiredForForms(t *testing.T) {
	f := newConsoleFixture(t)
	f.hydrate(t)

	r := formPost("/login", loginForm(memberEmail, testPassword))
	r.Header.Del("Cookie")
	rec := f.do(r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, f.store.Snapshot().IsAuthenticated())
}

func TestRouter_AuthStatus(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, adminEmail)

	rec := f.do(apiRequest(http.MethodGet, "/auth/status", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), string(f.tokens.Token(context.Background())))
	var body statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.True(t, body.Authenticated)
	assert.Equal(t, domainauth.StateAuthenticated, body.State)
	require.NotNil(t, body.User)
	assert.Equal(t, adminEmail, body.User.Email)
}

func TestRouter_AdminRoutes(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, memberEmail)

	rec := f.do(browserGet("/admin/dashboard"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))

	f.store.Logout(context.Background())
	_, err := f.store.Login(context.Background(), adminEmail, testPassword)
	require.NoError(t, err)

	rec = f.do(browserGet("/admin/dashboard"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin Dashboard")
}

func TestRouter_RoleDowngradeAfterRefresh(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, adminEmail)
	require.Equal(t, http.StatusOK, f.do(browserGet("/admin/users")).Code)

	f.gw.SetAdmin(adminEmail, false)
	rec := f.do(apiRequest(http.MethodPost, "/auth/refresh", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(browserGet("/admin/users"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestRouter_RefreshWithRevokedToken(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, memberEmail)
	f.gw.RevokeToken(f.tokens.Token(context.Background()))

	rec := f.do(formPost("/auth/refresh", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, f.store.Snapshot().IsAuthenticated())
}

func TestRouter_LoginPageWhenAuthenticated(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, memberEmail)

	rec := f.do(browserGet("/login"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestRouter_LoginPageReasonNotice(t *testing.T) {
	f := newConsoleFixture(t)
	f.hydrate(t)

	rec := f.do(browserGet("/login?reason=password_changed"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your password was changed.")
}

func TestRouter_MiscRoutes(t *testing.T) {
	f := newConsoleFixture(t)
	f.hydrate(t)

	rec := f.do(browserGet("/"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))

	rec = f.do(apiRequest(http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","session_ready":true}`, rec.Body.String())

	rec = f.do(browserGet("/no-such-page"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")

	rec = f.do(apiRequest(http.MethodGet, "/no-such-page", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestNewRouter_RequiresDependencies(t *testing.T) {
	_, err := NewRouter(RouterServices{})
	assert.Error(t, err)
}

func TestRouter_FollowsStorageSharedWithAnotherProcess(t *testing.T) {
	f := newConsoleFixture(t)
	f.loginAs(t, memberEmail)
	ctx := context.Background()

	rec := f.do(browserGet("/dashboard"))
	require.Equal(t, http.StatusOK, rec.Code)

	// A second process on the same storage (for example the CLI) logs out.
	other := service.NewTokenStore(service.TokenStoreOptions{KV: f.kv, Logger: discardLogger()})
	other.ClearToken(ctx)

	rec = f.do(browserGet("/dashboard"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, f.store.Snapshot().IsAuthenticated())

	// And logs back in as someone else.
	require.NoError(t, other.SetToken(ctx, f.gw.IssueToken(adminEmail)))

	rec = f.do(browserGet("/admin/dashboard"))
	assert.Equal(t, http.StatusOK, rec.Code)
	snap := f.store.Snapshot()
	require.True(t, snap.IsAuthenticated())
	assert.Equal(t, adminEmail, snap.User.Email)
}
