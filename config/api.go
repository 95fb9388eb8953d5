package config

import (
	"net/url"
	"strings"
	"time"
)

// APIConfig describes the remote account API the console authenticates against.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://api.adify.example".
	BaseURL   string        `env:"API_BASE_URL"   envDefault:"http://localhost:8000"`
	Timeout   time.Duration `env:"API_TIMEOUT"    envDefault:"10s"`
	UserAgent string        `env:"API_USER_AGENT" envDefault:"adify-console"`

	// Endpoint paths, relative to BaseURL.
	LoginPath    string `env:"API_LOGIN_PATH"    envDefault:"/auth/login"`
	SignupPath   string `env:"API_SIGNUP_PATH"   envDefault:"/auth/signup"`
	MePath       string `env:"API_ME_PATH"       envDefault:"/auth/me"`
	ProfilePath  string `env:"API_PROFILE_PATH"  envDefault:"/auth/me/profile"`
	PasswordPath string `env:"API_PASSWORD_PATH" envDefault:"/auth/me/password"`
	DeletePath   string `env:"API_DELETE_PATH"   envDefault:"/auth/me/delete"`
	ForgotPath   string `env:"API_FORGOT_PATH"   envDefault:"/auth/forgot-password"`
	ResetPath    string `env:"API_RESET_PATH"    envDefault:"/auth/reset-password"`
}

// Sanitize trims the base URL and clamps the timeout.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Timeout > 2*time.Minute {
		c.Timeout = 2 * time.Minute
	}
	c.UserAgent = strings.TrimSpace(c.UserAgent)
}

// Origin returns scheme://host of BaseURL, or "" when it does not parse.
func (c *APIConfig) Origin() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
