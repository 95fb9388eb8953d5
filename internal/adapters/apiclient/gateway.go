// Package apiclient implements ports.AuthGateway against the remote account API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/observability/metrics"
	"github.com/socialadify/adify-console/internal/observability/statsd"
	"github.com/socialadify/adify-console/internal/ports"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "adify-console"
	// maxResponseBody bounds how much of any response is read into memory.
	maxResponseBody = 1 << 20
)

// Confirmation messages used when the API answers without a message of its own.
const (
	msgResetRequested = "If an account exists for this email, a reset link has been sent."
	msgResetDone      = "Your password has been reset. Please log in with your new password."
)

// Endpoints are paths relative to the base URL.
type Endpoints struct {
	Login    string
	Signup   string
	Me       string
	Profile  string
	Password string
	Delete   string
	Forgot   string
	Reset    string
}

// DefaultEndpoints returns the paths served by the account API.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:    "/auth/login",
		Signup:   "/auth/signup",
		Me:       "/auth/me",
		Profile:  "/auth/me/profile",
		Password: "/auth/me/password",
		Delete:   "/auth/me/delete",
		Forgot:   "/auth/forgot-password",
		Reset:    "/auth/reset-password",
	}
}

func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return strings.TrimSpace(v)
	}
	return Endpoints{
		Login:    pick(e.Login, d.Login),
		Signup:   pick(e.Signup, d.Signup),
		Me:       pick(e.Me, d.Me),
		Profile:  pick(e.Profile, d.Profile),
		Password: pick(e.Password, d.Password),
		Delete:   pick(e.Delete, d.Delete),
		Forgot:   pick(e.Forgot, d.Forgot),
		Reset:    pick(e.Reset, d.Reset),
	}
}

// Config describes the remote API.
type Config struct {
	BaseURL   string
	Endpoints Endpoints
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	Metrics   statsd.Sink
}

// Options groups the dependencies of Gateway.
type Options struct {
	Config Config
	// HTTPClient is optional. Its transport is wrapped, never replaced.
	HTTPClient *http.Client
}

// Gateway calls the remote API. It is stateless and safe for concurrent use.
type Gateway struct {
	base      *url.URL
	endpoints Endpoints
	client    *http.Client
	logger    *slog.Logger
	metrics   statsd.Sink
}

var _ ports.AuthGateway = (*Gateway)(nil)

// NewGateway validates the base URL and builds a Gateway.
func NewGateway(opts Options) (*Gateway, error) {
	cfg := opts.Config
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url scheme: %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, errors.New("invalid api base url: missing host")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	hc := &http.Client{Timeout: timeout}
	var rt http.RoundTripper = http.DefaultTransport
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		hc = &clone
		if hc.Timeout == 0 {
			hc.Timeout = timeout
		}
		if hc.Transport != nil {
			rt = hc.Transport
		}
	}
	hc.Transport = &headerTransport{base: rt, userAgent: userAgent}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		base:      base,
		endpoints: cfg.Endpoints.withDefaults(),
		client:    hc,
		logger:    logger.With("component", "apiclient"),
		metrics:   cfg.Metrics,
	}, nil
}

// Origin returns scheme://host of the base URL.
func (g *Gateway) Origin() string {
	return g.base.Scheme + "://" + g.base.Host
}

func (g *Gateway) endpoint(path string) string {
	ref := &url.URL{Path: strings.TrimRight(g.base.Path, "/") + "/" + strings.TrimLeft(path, "/")}
	return g.base.ResolveReference(ref).String()
}

// Login exchanges credentials for a bearer token using the OAuth2 password grant.
func (g *Gateway) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Token, error) {
	start := time.Now()
	ctx, trace := withTrace(ctx)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)

	conf := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  g.endpoint(g.endpoints.Login),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	tok, err := conf.PasswordCredentialsToken(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		authErr := loginError(ctx, trace, err)
		g.observe(OpLogin, trace, start, authErr)
		return "", authErr
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		authErr := domainauth.NewError(domainauth.KindUnknown, DefaultMessage(OpLogin))
		g.observe(OpLogin, trace, start, authErr)
		return "", authErr
	}

	g.observe(OpLogin, trace, start, nil)
	return domainauth.Token(tok.AccessToken), nil
}

func loginError(ctx context.Context, trace *callTrace, err error) *domainauth.Error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		authErr := NormalizeError(OpLogin, re.Response.StatusCode, re.Body)
		authErr.Cause = err
		return authErr
	}
	if _, _, transportErr := trace.result(); transportErr != nil {
		return domainauth.Wrap(domainauth.KindNetwork, domainauth.MsgNetwork, transportErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domainauth.Wrap(domainauth.KindNetwork, domainauth.MsgNetwork, ctxErr)
	}
	return domainauth.Wrap(domainauth.KindUnknown, DefaultMessage(OpLogin), err)
}

// Signup creates an account. It does not log in.
func (g *Gateway) Signup(ctx context.Context, in domainauth.SignupInput) (domainauth.User, error) {
	var user domainauth.User
	err := g.do(ctx, call{op: OpSignup, method: http.MethodPost, path: g.endpoints.Signup, in: in, out: &user})
	if err != nil {
		return domainauth.User{}, err
	}
	return user, nil
}

// FetchCurrentUser returns the account the token belongs to.
func (g *Gateway) FetchCurrentUser(ctx context.Context, tok domainauth.Token) (domainauth.User, error) {
	var user domainauth.User
	err := g.do(ctx, call{op: OpMe, method: http.MethodGet, path: g.endpoints.Me, token: tok, out: &user})
	if err != nil {
		return domainauth.User{}, err
	}
	return user, nil
}

// UpdateProfile applies a partial profile update.
func (g *Gateway) UpdateProfile(ctx context.Context, tok domainauth.Token, in domainauth.ProfileUpdate) error {
	return g.do(ctx, call{op: OpUpdateProfile, method: http.MethodPut, path: g.endpoints.Profile, token: tok, in: in})
}

// ChangePassword rotates the password of the current account.
func (g *Gateway) ChangePassword(ctx context.Context, tok domainauth.Token, in domainauth.PasswordChange) error {
	return g.do(ctx, call{op: OpChangePassword, method: http.MethodPut, path: g.endpoints.Password, token: tok, in: in})
}

// DeleteAccount removes the current account.
func (g *Gateway) DeleteAccount(ctx context.Context, tok domainauth.Token, in domainauth.AccountDeletion) error {
	return g.do(ctx, call{op: OpDeleteAccount, method: http.MethodPut, path: g.endpoints.Delete, token: tok, in: in})
}

// RequestPasswordReset asks the API to email a reset link.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var out any
	in := map[string]string{"email": strings.TrimSpace(email)}
	if err := g.do(ctx, call{op: OpRequestPasswordReset, method: http.MethodPost, path: g.endpoints.Forgot, in: in, out: &out}); err != nil {
		return "", err
	}
	return confirmation(out, msgResetRequested), nil
}

// ResetPassword sets a new password using an emailed reset token.
func (g *Gateway) ResetPassword(ctx context.Context, in domainauth.PasswordReset) (string, error) {
	var out any
	if err := g.do(ctx, call{op: OpResetPassword, method: http.MethodPost, path: g.endpoints.Reset, in: in, out: &out}); err != nil {
		return "", err
	}
	return confirmation(out, msgResetDone), nil
}

func confirmation(body any, fallback string) string {
	if msg := searchString("message", body); msg != "" {
		return msg
	}
	return fallback
}

// call describes one JSON request.
type call struct {
	op     Operation
	method string
	path   string
	token  domainauth.Token
	in     any
	out    any
}

func (g *Gateway) do(ctx context.Context, c call) error {
	start := time.Now()
	ctx, trace := withTrace(ctx)

	err := g.roundTrip(ctx, c)
	g.observe(c.op, trace, start, err)
	if err != nil {
		return err
	}
	return nil
}

func (g *Gateway) roundTrip(ctx context.Context, c call) *domainauth.Error {
	var body io.Reader
	if c.in != nil {
		raw, err := json.Marshal(c.in)
		if err != nil {
			return domainauth.Wrap(domainauth.KindUnknown, DefaultMessage(c.op), fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, g.endpoint(c.path), body)
	if err != nil {
		return domainauth.Wrap(domainauth.KindUnknown, DefaultMessage(c.op), fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+string(c.token))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return domainauth.Wrap(domainauth.KindNetwork, domainauth.MsgNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domainauth.Wrap(domainauth.KindNetwork, domainauth.MsgNetwork, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return NormalizeError(c.op, resp.StatusCode, raw)
	}
	if c.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, c.out); err != nil {
		authErr := domainauth.Wrap(domainauth.KindUnknown, DefaultMessage(c.op), fmt.Errorf("decode response: %w", err))
		authErr.Status = resp.StatusCode
		return authErr
	}
	return nil
}

func (g *Gateway) observe(op Operation, trace *callTrace, start time.Time, err *domainauth.Error) {
	requestID, status, _ := trace.result()
	if err != nil && err.Status != 0 {
		status = err.Status
	}
	elapsed := time.Since(start)

	var callErr error
	if err != nil {
		callErr = err
		g.logger.Debug("api call failed",
			"operation", string(op),
			"status", status,
			"kind", string(err.Kind),
			"request_id", requestID,
			"duration_ms", elapsed.Milliseconds(),
		)
	} else {
		g.logger.Debug("api call",
			"operation", string(op),
			"status", status,
			"request_id", requestID,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	metrics.EmitGatewayCall(g.metrics, metrics.GatewayMetric{
		Operation: string(op),
		Status:    status,
		Duration:  elapsed,
		Err:       callErr,
	})
}
