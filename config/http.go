package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the console to. The default only listens on loopback.
	Addr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:3000"`

	// CookieDomain is the domain for the CSRF cookie.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = "127.0.0.1:3000"
	}
	h.CookieDomain = strings.TrimSpace(h.CookieDomain)
}

// NavConfig names the console routes the session logic navigates to.
type NavConfig struct {
	LoginPath  string `env:"NAV_LOGIN_PATH"  envDefault:"/login"`
	HomePath   string `env:"NAV_HOME_PATH"   envDefault:"/home"`
	SignupPath string `env:"NAV_SIGNUP_PATH" envDefault:"/signup"`
}

// Sanitize forces every path to be rooted.
func (n *NavConfig) Sanitize() {
	n.LoginPath = rootedPath(n.LoginPath, "/login")
	n.HomePath = rootedPath(n.HomePath, "/home")
	n.SignupPath = rootedPath(n.SignupPath, "/signup")
}

func rootedPath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "//") {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
