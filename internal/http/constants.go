package httpx

// Page identifiers used in templates and navigation.
const (
	PageLogin          = "login"
	PageSignup         = "signup"
	PageForgotPassword = "forgot-password"
	PageResetPassword  = "reset-password"

	PageHome             = "home"
	PageDashboard        = "dashboard"
	PageScheduler        = "scheduler"
	PageCaptionGenerator = "caption-generator"
	PageCaptionHistory   = "caption-history"
	PageAccount          = "account"

	PageAdminDashboard = "admin-dashboard"
	PageAdminUsers     = "admin-users"

	PageNotFound = "not-found"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "web/templates"
	TemplatePathFromTest = "../../web/templates"
)

// Query values the login and signup pages turn into notices.
const (
	reasonSignedUp      = "signed_up"
	reasonPasswordReset = "password_reset"
)

var noticeForReason = map[string]string{ //nolint:gochecknoglobals // read-only lookup
	"email_changed":     "Your email was changed. Please log in with your new email address.",
	"password_changed":  "Your password was changed. Please log in again.",
	reasonSignedUp:      "Account created. Please log in.",
	reasonPasswordReset: "Your password has been reset. Please log in.",
}

//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageLogin:          "login-content",
	PageSignup:         "signup-content",
	PageForgotPassword: "forgot-password-content",
	PageResetPassword:  "reset-password-content",
	PageAccount:        "account-content",
	PageNotFound:       "not-found-content",
}

// ContentTemplateFor returns the content template for the given page.
// Pages without a dedicated template share the neutral shell.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "shell-content"
}
