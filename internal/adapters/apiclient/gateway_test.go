package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/observability/statsd"
)

func newTestGateway(t *testing.T, handler http.Handler) (*Gateway, *statsd.Recorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &statsd.Recorder{}
	gw, err := NewGateway(Options{Config: Config{
		BaseURL:   srv.URL,
		UserAgent: "adify-test",
		Metrics:   rec,
	}})
	require.NoError(t, err)
	return gw, rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewGateway_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "ftp://example.com", "http://"} {
		_, err := NewGateway(Options{Config: Config{BaseURL: raw}})
		assert.Error(t, err, raw)
	}
}

func TestGateway_Origin(t *testing.T) {
	gw, err := NewGateway(Options{Config: Config{BaseURL: "https://api.example.com/v1/"}})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", gw.Origin())
	assert.Equal(t, "https://api.example.com/v1/auth/me", gw.endpoint("/auth/me"))
}

func TestGateway_LoginPasswordGrant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ada@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "Secret#123", r.PostForm.Get("password"))
		assert.Equal(t, "adify-test", r.Header.Get("User-Agent"))
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	})
	gw, rec := newTestGateway(t, mux)

	tok, err := gw.Login(context.Background(), domainauth.Credentials{Email: " ada@example.com ", Password: "Secret#123"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.Token("tok-1"), tok)
	samples := rec.Counts("gateway.request")
	require.Len(t, samples, 1)
	assert.Equal(t, "login", samples[0].Tags["operation"])
	assert.Equal(t, "success", samples[0].Tags["result"])
	assert.Equal(t, "200", samples[0].Tags["status"])
}

func TestGateway_LoginWrongPassword(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
	}))

	_, err := gw.Login(context.Background(), domainauth.Credentials{Email: "a@b.co", Password: "nope"})
	require.Error(t, err)
	authErr := domainauth.AsError(err)
	assert.Equal(t, domainauth.KindInvalidCredentials, authErr.Kind)
	assert.Equal(t, "Incorrect email or password", authErr.Message)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestGateway_LoginMissingAccessToken(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token_type": "bearer"})
	}))

	_, err := gw.Login(context.Background(), domainauth.Credentials{Email: "a@b.co", Password: "x"})
	assert.Equal(t, domainauth.KindUnknown, domainauth.KindOf(err))
}

func TestGateway_LoginNetworkFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	gw, err := NewGateway(Options{Config: Config{BaseURL: "http://" + addr, Timeout: time.Second}})
	require.NoError(t, err)

	_, err = gw.Login(context.Background(), domainauth.Credentials{Email: "a@b.co", Password: "x"})
	authErr := domainauth.AsError(err)
	assert.Equal(t, domainauth.KindNetwork, authErr.Kind)
	assert.Equal(t, domainauth.MsgNetwork, authErr.Message)
	assert.Zero(t, authErr.Status)
}

func TestGateway_FetchCurrentUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "u1", "firstname": "Ada", "lastname": "Lovelace",
			"email": "ada@example.com", "is_admin": true, "profile_picture_url": nil,
		})
	})
	gw, rec := newTestGateway(t, mux)

	user, err := gw.FetchCurrentUser(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsAdmin)
	assert.Nil(t, user.ProfilePictureURL)

	_, err = gw.FetchCurrentUser(context.Background(), "stale")
	assert.True(t, domainauth.IsUnauthorized(err))
	samples := rec.Counts("gateway.request")
	require.Len(t, samples, 2)
	assert.Equal(t, "unauthorized", samples[1].Tags["error_kind"])
	assert.Equal(t, "401", samples[1].Tags["status"])
}

func TestGateway_FetchCurrentUserBadJSON(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	}))

	_, err := gw.FetchCurrentUser(context.Background(), "tok")
	authErr := domainauth.AsError(err)
	assert.Equal(t, domainauth.KindUnknown, authErr.Kind)
	assert.Equal(t, "Failed to fetch user details.", authErr.Message)
}

func TestGateway_FetchCurrentUserCanceled(t *testing.T) {
	release := make(chan struct{})
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.FetchCurrentUser(ctx, "tok")
	assert.Equal(t, domainauth.KindNetwork, domainauth.KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGateway_SignupConflictAndValidation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var in domainauth.SignupInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		switch in.Email {
		case "taken@example.com":
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		case "weak@example.com":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]any{
				{"loc": []string{"body", "password"}, "msg": "Value error, Password too short", "type": "value_error"},
			}})
		default:
			writeJSON(w, http.StatusCreated, map[string]any{"id": "u9", "email": in.Email, "firstname": in.FirstName})
		}
	})
	gw, _ := newTestGateway(t, mux)
	ctx := context.Background()

	user, err := gw.Signup(ctx, domainauth.SignupInput{Email: "new@example.com", FirstName: "Neo", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "u9", user.ID)
	assert.Equal(t, "Neo", user.FirstName)

	_, err = gw.Signup(ctx, domainauth.SignupInput{Email: "taken@example.com"})
	assert.Equal(t, domainauth.KindConflict, domainauth.KindOf(err))

	_, err = gw.Signup(ctx, domainauth.SignupInput{Email: "weak@example.com"})
	authErr := domainauth.AsError(err)
	assert.Equal(t, domainauth.KindValidation, authErr.Kind)
	assert.Equal(t, "Password too short", authErr.FieldMessage("password"))
}

func TestGateway_AccountCalls(t *testing.T) {
	type seen struct {
		method, path, auth string
		body               map[string]any
	}
	var calls []seen
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, seen{r.Method, r.URL.Path, r.Header.Get("Authorization"), body})
		w.WriteHeader(http.StatusOK)
	}))
	ctx := context.Background()
	first := "Ada"

	require.NoError(t, gw.UpdateProfile(ctx, "tok", domainauth.ProfileUpdate{FirstName: &first}))
	require.NoError(t, gw.ChangePassword(ctx, "tok", domainauth.PasswordChange{CurrentPassword: "a", NewPassword: "b"}))
	require.NoError(t, gw.DeleteAccount(ctx, "tok", domainauth.AccountDeletion{Password: "a"}))

	require.Len(t, calls, 3)
	assert.Equal(t, seen{http.MethodPut, "/auth/me/profile", "Bearer tok", map[string]any{"firstname": "Ada"}}, calls[0])
	assert.Equal(t, "/auth/me/password", calls[1].path)
	assert.Equal(t, "b", calls[1].body["new_password"])
	assert.Equal(t, "/auth/me/delete", calls[2].path)
}

func TestGateway_AccountCallUnauthorized(t *testing.T) {
	gw, _ := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := gw.ChangePassword(context.Background(), "tok", domainauth.PasswordChange{})
	assert.True(t, domainauth.IsUnauthorized(err))
}

func TestGateway_PasswordReset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Check your inbox"})
	})
	mux.HandleFunc("POST /auth/reset-password", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gw, _ := newTestGateway(t, mux)
	ctx := context.Background()

	msg, err := gw.RequestPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Check your inbox", msg)

	msg, err = gw.ResetPassword(ctx, domainauth.PasswordReset{Token: "r", NewPassword: "New#Pass1"})
	require.NoError(t, err)
	assert.Equal(t, msgResetDone, msg)
}

func TestGateway_CustomEndpointsAndClient(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]string{"id": "u1"})
	}))
	defer srv.Close()

	gw, err := NewGateway(Options{
		Config:     Config{BaseURL: srv.URL + "/api", Endpoints: Endpoints{Me: "/users/me"}},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	_, err = gw.FetchCurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "/api/users/me", path)
	assert.Equal(t, "/auth/login", gw.endpoints.Login)
}
