package httpx

import (
	"context"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// SessionReader exposes the latest session snapshot. Guards call it on every request.
type SessionReader interface {
	Snapshot() domainauth.Session
}

// SessionReconciler is implemented by session stores whose durable storage can
// be changed by another process. Guards reconcile before reading the snapshot.
type SessionReconciler interface {
	Reconcile(ctx context.Context) error
}

// RedirectRecorder stores the post-login target and returns the login URL.
type RedirectRecorder interface {
	RecordRedirect(ctx context.Context, requestURI string) string
}

// LoadingRenderer renders the neutral placeholder shown before the session is ready.
type LoadingRenderer interface {
	RenderLoading(w http.ResponseWriter, r *http.Request) error
}

// GuardPaths names the navigation targets guards use.
type GuardPaths struct {
	Login   string
	Landing string
	// Public paths are never guarded and never recorded as a post-login target.
	Public []string
}

// GuardConfig configures RequireSession and RequireAdmin.
type GuardConfig struct {
	Session  SessionReader    // Required
	Tokens   RedirectRecorder // Required
	Paths    GuardPaths
	Renderer LoadingRenderer // Optional; a built-in page is used when nil
	Logger   *slog.Logger
}

type guard struct {
	cfg    GuardConfig
	logger *slog.Logger
}

func newGuard(cfg GuardConfig) *guard {
	if cfg.Session == nil {
		panic("guard requires a SessionReader")
	}
	if cfg.Tokens == nil {
		panic("guard requires a RedirectRecorder")
	}
	if cfg.Paths.Login == "" {
		cfg.Paths.Login = "/login"
	}
	if cfg.Paths.Landing == "" {
		cfg.Paths.Landing = "/home"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &guard{cfg: cfg, logger: logger.With("component", "guard")}
}

// RequireSession admits only authenticated sessions.
//
// Before the session is ready it renders a loading placeholder (never the
// protected content, never a redirect). Unauthenticated browsers have the
// current URL recorded as the post-login target and are sent to the login
// page; API clients get 401. Admitted requests carry the snapshot in their context.
func RequireSession(cfg GuardConfig) func(http.Handler) http.Handler {
	g := newGuard(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}
			session, ok := g.admit(w, r)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// RequireAdmin is RequireSession plus the admin flag. Authenticated non-admins
// are sent to the landing page (API clients get 403).
func RequireAdmin(cfg GuardConfig) func(http.Handler) http.Handler {
	g := newGuard(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}
			session, ok := g.admit(w, r)
			if !ok {
				return
			}
			if !session.IsAdmin() {
				g.deny(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
		})
	}
}

// admit reads the snapshot once and answers the request itself unless it is authenticated.
func (g *guard) admit(w http.ResponseWriter, r *http.Request) (domainauth.Session, bool) {
	if rc, ok := g.cfg.Session.(SessionReconciler); ok {
		if err := rc.Reconcile(r.Context()); err != nil {
			g.logger.DebugContext(r.Context(), "session reconcile failed", "error", err)
		}
	}
	session := g.cfg.Session.Snapshot()
	switch {
	case !session.IsReady:
		g.loading(w, r)
		return session, false
	case !session.IsAuthenticated():
		g.redirectToLogin(w, r)
		return session, false
	default:
		return session, true
	}
}

func (g *guard) isPublic(r *http.Request) bool {
	p := r.URL.Path
	if p == g.cfg.Paths.Login || strings.HasPrefix(p, g.cfg.Paths.Login+"/") {
		return true
	}
	return slices.Contains(g.cfg.Paths.Public, p)
}

const loadingPage = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><meta http-equiv="refresh" content="1">
<title>Loading</title></head>
<body><main class="loading" aria-busy="true">Loading...</main></body></html>
`

// loading renders the neutral placeholder shown until hydration finishes.
func (g *guard) loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	switch {
	case IsHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `<div class="loading" aria-busy="true" hx-get="`+html.EscapeString(r.URL.RequestURI())+
			`" hx-trigger="load delay:500ms" hx-swap="outerHTML">Loading...</div>`)
	case IsBrowserRequest(r):
		if g.cfg.Renderer != nil {
			if err := g.cfg.Renderer.RenderLoading(w, r); err == nil {
				return
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, loadingPage)
	default:
		w.Header().Set("Retry-After", "1")
		WriteJSON(w, http.StatusServiceUnavailable, errorBody{Error: "session_loading", Message: "Session is loading."})
	}
}

func (g *guard) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusUnauthorized, errorBody{
			Error:   string(domainauth.KindUnauthorized),
			Message: "Authentication required.",
		})
		return
	}

	target := redirectPathForRequest(r)
	dest := g.cfg.Paths.Login
	if target != "" {
		dest = g.cfg.Tokens.RecordRedirect(r.Context(), target)
	}
	g.logger.DebugContext(r.Context(), "unauthenticated request redirected",
		"path", r.URL.Path,
		"target_recorded", target != "",
	)
	Navigate(w, r, dest)
}

func (g *guard) deny(w http.ResponseWriter, r *http.Request) {
	g.logger.DebugContext(r.Context(), "admin route denied", "path", r.URL.Path)
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Message: "Administrator access required."})
		return
	}
	Navigate(w, r, g.cfg.Paths.Landing)
}

// redirectPathForRequest picks the page the user was on. htmx requests target
// fragment endpoints, so the browser URL they report is preferred.
func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := sameOriginPath(r, HXCurrentURL(r)); current != "" {
			return current
		}
		if referer := sameOriginPath(r, r.Referer()); referer != "" {
			return referer
		}
	}
	return r.URL.RequestURI()
}

// sameOriginPath returns the path and query of raw when it points at this console.
func sameOriginPath(r *http.Request, raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		if !strings.EqualFold(u.Host, r.Host) {
			return ""
		}
		return u.RequestURI()
	}
	if u.Host != "" {
		return ""
	}
	return u.RequestURI()
}
