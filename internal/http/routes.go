package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
)

// RouterServices holds everything the console router needs.
type RouterServices struct {
	Session      SessionService   // Required
	Tokens       RedirectRecorder // Required
	TemplateFS   fs.FS            // Required
	Paths        NavPaths
	CookieDomain string
	Logger       *slog.Logger // Optional
}

// NewRouter builds the console mux wrapped in
// Recover → RequestID → Logging → BrowserDetection → CSRF.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Session == nil || services.Tokens == nil {
		return nil, errors.New("router requires a session and a token store")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	paths := services.Paths.withDefaults()

	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: services.TemplateFS, Logger: logger})
	if err != nil {
		return nil, err
	}

	authHandlers := &AuthHandlers{Session: services.Session, T: tr, Paths: paths, Logger: logger}
	accountHandlers := &AccountHandlers{Session: services.Session, T: tr, Paths: paths, Logger: logger}
	pageHandlers := &PageHandlers{T: tr, Logger: logger}

	guardCfg := GuardConfig{
		Session: services.Session,
		Tokens:  services.Tokens,
		Paths: GuardPaths{
			Login:   paths.Login,
			Landing: paths.Home,
			Public:  []string{paths.Signup, "/forgot-password", "/reset-password"},
		},
		Renderer: tr,
		Logger:   logger,
	}
	requireSession := RequireSession(guardCfg)
	requireAdmin := RequireAdmin(guardCfg)

	mux := http.NewServeMux()
	registerAuthRoutes(mux, authHandlers, paths)
	registerSessionRoutes(mux, routeDeps{
		auth:    authHandlers,
		account: accountHandlers,
		pages:   pageHandlers,
		guard:   requireSession,
	})
	registerAdminRoutes(mux, pageHandlers, requireAdmin)

	health := healthHandler(services.Session)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /{$}", http.RedirectHandler(paths.Home, http.StatusSeeOther))
	mux.HandleFunc("/", pageHandlers.NotFound)

	return Chain(mux,
		Recover(logger),
		RequestID(),
		Logging(logger),
		BrowserDetection(),
		CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain, Logger: logger}),
	), nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, paths NavPaths) {
	mux.HandleFunc("GET "+paths.Login, h.LoginPage)
	mux.HandleFunc("POST "+paths.Login, h.Login)
	mux.HandleFunc("GET "+paths.Signup, h.SignupPage)
	mux.HandleFunc("POST "+paths.Signup, h.Signup)
	mux.HandleFunc("GET /forgot-password", h.ForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", h.ForgotPassword)
	mux.HandleFunc("GET /reset-password", h.ResetPasswordPage)
	mux.HandleFunc("POST /reset-password", h.ResetPassword)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

// routeDeps groups the handlers registered behind RequireSession.
type routeDeps struct {
	auth    *AuthHandlers
	account *AccountHandlers
	pages   *PageHandlers
	guard   func(http.Handler) http.Handler
}

func registerSessionRoutes(mux *http.ServeMux, d routeDeps) {
	shells := []struct{ path, page, title string }{
		{d.auth.Paths.Home, PageHome, "Home"},
		{"/dashboard", PageDashboard, "Dashboard"},
		{"/scheduler", PageScheduler, "Scheduler"},
		{"/caption-generator", PageCaptionGenerator, "Caption Generator"},
		{"/caption-history", PageCaptionHistory, "Caption History"},
	}
	for _, s := range shells {
		mux.Handle("GET "+s.path, d.guard(d.pages.Shell(s.page, s.title)))
	}

	mux.Handle("GET /account", d.guard(http.HandlerFunc(d.account.Page)))
	mux.Handle("POST /account/profile", d.guard(http.HandlerFunc(d.account.UpdateProfile)))
	mux.Handle("POST /account/password", d.guard(http.HandlerFunc(d.account.ChangePassword)))
	mux.Handle("POST /account/delete", d.guard(http.HandlerFunc(d.account.DeleteAccount)))
	mux.Handle("POST /auth/refresh", d.guard(http.HandlerFunc(d.auth.Refresh)))
}

func registerAdminRoutes(mux *http.ServeMux, pages *PageHandlers, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /admin/dashboard", guard(pages.Shell(PageAdminDashboard, "Admin Dashboard")))
	mux.Handle("GET /admin/users", guard(pages.Shell(PageAdminUsers, "Users")))
}
