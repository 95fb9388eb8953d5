package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/ports"
)

// Storage keys. They are prefixed with the namespace when one is configured.
const (
	tokenKey    = "authToken"
	redirectKey = "redirectAfterLogin"
)

// TokenStoreConfig configures key namespacing and the login route.
type TokenStoreConfig struct {
	// Namespace isolates keys per backend, normally the remote API origin.
	Namespace string
	// LoginPath is returned by RecordRedirect and is never stored as a target.
	LoginPath string
}

// TokenStoreOptions groups dependencies for TokenStore.
type TokenStoreOptions struct {
	KV     ports.KeyValueStore // Required
	Config TokenStoreConfig
	Logger *slog.Logger // Optional
}

// TokenStore keeps the bearer token and the post-login redirect target in durable storage.
// Read and clear failures are logged and treated as "nothing stored".
type TokenStore struct {
	kv          ports.KeyValueStore
	tokenKey    string
	redirectKey string
	loginPath   string
	logger      *slog.Logger
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(opts TokenStoreOptions) *TokenStore {
	if opts.KV == nil {
		panic("TokenStore requires a KeyValueStore")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := opts.Config.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	return &TokenStore{
		kv:          opts.KV,
		tokenKey:    namespacedKey(opts.Config.Namespace, tokenKey),
		redirectKey: namespacedKey(opts.Config.Namespace, redirectKey),
		loginPath:   loginPath,
		logger:      logger.With("component", "token_store"),
	}
}

func namespacedKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + "|" + key
}

// LoginPath returns the route unauthenticated visitors are sent to.
func (s *TokenStore) LoginPath() string { return s.loginPath }

// Token returns the stored token, or "" when none is stored or storage fails.
func (s *TokenStore) Token(ctx context.Context) domainauth.Token {
	tok, err := s.LoadToken(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read token failed; treating as logged out", "error", err)
		return ""
	}
	return tok
}

// LoadToken is Token with the storage error reported instead of swallowed.
func (s *TokenStore) LoadToken(ctx context.Context) (domainauth.Token, error) {
	v, ok, err := s.kv.Get(ctx, s.tokenKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return domainauth.Token(strings.TrimSpace(v)), nil
}

// SetToken persists tok. It is the only write whose failure is reported.
func (s *TokenStore) SetToken(ctx context.Context, tok domainauth.Token) error {
	if tok == "" {
		s.ClearToken(ctx)
		return nil
	}
	if err := s.kv.Set(ctx, s.tokenKey, string(tok)); err != nil {
		s.logger.ErrorContext(ctx, "persist token failed", "error", err)
		return fmt.Errorf("%w: %w", domainauth.ErrStorageUnavailable, err)
	}
	return nil
}

// ClearToken removes the stored token.
func (s *TokenStore) ClearToken(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.tokenKey); err != nil {
		s.logger.WarnContext(ctx, "clear token failed", "error", err)
	}
}

// RedirectTarget returns the stored post-login path, or "".
func (s *TokenStore) RedirectTarget(ctx context.Context) string {
	v, ok, err := s.kv.Get(ctx, s.redirectKey)
	if err != nil {
		s.logger.WarnContext(ctx, "read redirect target failed", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	target, valid := s.SanitizeTarget(v)
	if !valid {
		return ""
	}
	return target
}

// SetRedirectTarget stores path when it is a safe same-origin target. An unsafe
// value is not stored but still replaces any older target.
func (s *TokenStore) SetRedirectTarget(ctx context.Context, path string) {
	target, ok := s.SanitizeTarget(path)
	if !ok {
		s.logger.DebugContext(ctx, "dropping unsafe redirect target", "target", path)
		s.ClearRedirectTarget(ctx)
		return
	}
	if err := s.kv.Set(ctx, s.redirectKey, target); err != nil {
		s.logger.WarnContext(ctx, "persist redirect target failed", "error", err)
	}
}

// ClearRedirectTarget removes the stored post-login path.
func (s *TokenStore) ClearRedirectTarget(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.redirectKey); err != nil {
		s.logger.WarnContext(ctx, "clear redirect target failed", "error", err)
	}
}

// RecordRedirect remembers requestURI as the post-login target and returns the
// login URL the caller must navigate to.
func (s *TokenStore) RecordRedirect(ctx context.Context, requestURI string) string {
	s.SetRedirectTarget(ctx, requestURI)
	return s.loginPath
}

// TakeRedirectTarget returns the stored target and deletes it.
func (s *TokenStore) TakeRedirectTarget(ctx context.Context) string {
	target := s.RedirectTarget(ctx)
	s.ClearRedirectTarget(ctx)
	return target
}

// SanitizeTarget accepts only same-origin absolute paths (optionally with a query)
// and rejects the login page itself.
func (s *TokenStore) SanitizeTarget(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return "", false
	}
	// Scheme-relative ("//host") and backslash tricks ("/\host") leave the origin.
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "", false
	}
	if strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "", false
	}
	if u.Path == s.loginPath || strings.HasPrefix(u.Path, s.loginPath+"/") {
		return "", false
	}
	u.Fragment = ""
	return u.RequestURI(), true
}
