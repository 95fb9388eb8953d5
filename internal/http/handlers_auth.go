package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
	"github.com/socialadify/adify-console/internal/service"
)

// SessionService is what the console handlers need from the session store.
type SessionService interface {
	SessionReader
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, in domainauth.SignupInput) (domainauth.User, error)
	Logout(ctx context.Context) string
	RefreshUser(ctx context.Context) error
	ClearError()

	UpdateProfile(ctx context.Context, in domainauth.ProfileUpdate) (string, error)
	ChangePassword(ctx context.Context, in domainauth.PasswordChange) (string, error)
	DeleteAccount(ctx context.Context, in domainauth.AccountDeletion) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, in domainauth.PasswordReset) (string, error)
}

var _ SessionService = (*service.SessionStore)(nil)

// NavPaths are the console's navigation targets.
type NavPaths struct {
	Login  string
	Home   string
	Signup string
}

func (p NavPaths) withDefaults() NavPaths {
	if p.Login == "" {
		p.Login = "/login"
	}
	if p.Home == "" {
		p.Home = "/home"
	}
	if p.Signup == "" {
		p.Signup = "/signup"
	}
	return p
}

// AuthHandlers serves the public authentication pages and session endpoints.
type AuthHandlers struct {
	Session SessionService
	T       *TemplateRenderer
	Paths   NavPaths
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) page(r *http.Request, page, title string) PageData {
	data := newPageData(r, page, title)
	data.LoginPath = h.Paths.Login
	data.SignupPath = h.Paths.Signup
	return data
}

func (h *AuthHandlers) render(w http.ResponseWriter, r *http.Request, data PageData) {
	if err := h.T.Render(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render auth page failed", "page", data.CurrentPage, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// sendAway ends a handler by navigating to dest; API clients get it as JSON.
func sendAway(w http.ResponseWriter, r *http.Request, dest string, payload map[string]any) {
	if IsBrowserRequest(r) {
		Navigate(w, r, dest)
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["redirect_to"] = dest
	WriteJSON(w, http.StatusOK, payload)
}

func withReason(path, reason string) string {
	return path + "?" + url.Values{"reason": {reason}}.Encode()
}

// LoginPage renders the login form. Already authenticated sessions go home.
// GET /login.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()
	if snap.IsAuthenticated() {
		Navigate(w, r, h.Paths.Home)
		return
	}
	data := h.page(r, PageLogin, "Log in")
	data.Notice = noticeForReason[r.URL.Query().Get("reason")]
	// Surfaces why a restored session ended, e.g. an expired token. Shown once.
	if msg := snap.ErrorMessage(); msg != "" {
		if data.Notice == "" {
			data.Error = msg
		}
		h.Session.ClearError()
	}
	h.render(w, r, data)
}

// Login exchanges credentials and navigates to the recorded target.
// POST /login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	dest, err := h.Session.Login(r.Context(), in.get("email"), in.secret("password"))
	if err != nil {
		if !IsBrowserRequest(r) {
			WriteAuthError(w, err)
			return
		}
		data := h.page(r, PageLogin, "Log in").withError(err)
		data.Form["email"] = in.get("email")
		h.render(w, r, data)
		return
	}

	payload := map[string]any{}
	if user := h.Session.Snapshot().User; user != nil {
		payload["user"] = user
	}
	sendAway(w, r, dest, payload)
}

// SignupPage renders the signup form.
// GET /signup.
func (h *AuthHandlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, PageSignup, "Sign up")
	if r.URL.Query().Get("accountDeleted") == "true" {
		data.Notice = "Your account has been deleted."
	}
	h.render(w, r, data)
}

// Signup creates an account and sends the user to log in.
// POST /signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	signup := domainauth.SignupInput{
		Email:     in.get("email"),
		Password:  in.secret("password"),
		FirstName: in.get("firstname"),
		LastName:  in.get("lastname"),
	}
	user, err := h.Session.Signup(r.Context(), signup)
	if err != nil {
		if !IsBrowserRequest(r) {
			WriteAuthError(w, err)
			return
		}
		data := h.page(r, PageSignup, "Sign up").withError(err)
		data.Form["email"] = signup.Email
		data.Form["firstname"] = signup.FirstName
		data.Form["lastname"] = signup.LastName
		h.render(w, r, data)
		return
	}

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusCreated, map[string]any{"user": user})
		return
	}
	Navigate(w, r, withReason(h.Paths.Login, reasonSignedUp))
}

// ForgotPasswordPage renders the reset request form.
// GET /forgot-password.
func (h *AuthHandlers) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.page(r, PageForgotPassword, "Forgot password"))
}

// ForgotPassword asks the API to email a reset link.
// POST /forgot-password.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	msg, err := h.Session.RequestPasswordReset(r.Context(), in.get("email"))
	if !IsBrowserRequest(r) {
		if err != nil {
			WriteAuthError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
		return
	}

	data := h.page(r, PageForgotPassword, "Forgot password")
	if err != nil {
		data = data.withError(err)
		data.Form["email"] = in.get("email")
	} else {
		data.Notice = msg
	}
	h.render(w, r, data)
}

// ResetPasswordPage renders the new-password form for an emailed token.
// GET /reset-password?token=...
func (h *AuthHandlers) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, PageResetPassword, "Reset password")
	data.Form["token"] = r.URL.Query().Get("token")
	if data.Form["token"] == "" {
		data.Error = "This reset link is invalid. Please request a new one."
	}
	h.render(w, r, data)
}

// ResetPassword completes the reset and sends the user to log in.
// POST /reset-password.
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	reset := domainauth.PasswordReset{Token: in.get("token"), NewPassword: in.secret("new_password")}

	var err error
	var msg string
	if in.has("confirm_password") && in.secret("confirm_password") != reset.NewPassword {
		err = domainauth.Validation("", domainauth.FieldError{Field: "confirm_password", Message: "Passwords do not match."})
	} else {
		msg, err = h.Session.ResetPassword(r.Context(), reset)
	}

	if err != nil {
		if !IsBrowserRequest(r) {
			WriteAuthError(w, err)
			return
		}
		data := h.page(r, PageResetPassword, "Reset password").withError(err)
		data.Form["token"] = reset.Token
		h.render(w, r, data)
		return
	}
	sendAway(w, r, withReason(h.Paths.Login, reasonPasswordReset), map[string]any{"message": msg})
}

// Logout ends the session from any state.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	dest := h.Session.Logout(r.Context())
	sendAway(w, r, dest, nil)
}

// statusResponse is the JSON view of a session snapshot.
type statusResponse struct {
	Ready         bool             `json:"ready"`
	State         domainauth.State `json:"state"`
	Authenticated bool             `json:"authenticated"`
	Loading       bool             `json:"loading"`
	Version       uint64           `json:"version"`
	User          *domainauth.User `json:"user,omitempty"`
	Error         *errorBody       `json:"error,omitempty"`
}

func newStatusResponse(s domainauth.Session) statusResponse {
	resp := statusResponse{
		Ready:         s.IsReady,
		State:         s.State,
		Authenticated: s.IsAuthenticated(),
		Loading:       s.IsLoading,
		Version:       s.Version,
	}
	if resp.Authenticated {
		resp.User = s.User
	}
	if s.Err != nil {
		resp.Error = &errorBody{Error: string(s.Err.Kind), Message: s.Err.Message}
	}
	return resp
}

// Status returns the current session snapshot. It never exposes the token.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, newStatusResponse(h.Session.Snapshot()))
}

// Refresh re-fetches the current user, e.g. after an admin changed roles.
// POST /auth/refresh (guarded).
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.Session.RefreshUser(r.Context())
	switch {
	case err == nil:
	case domainauth.IsUnauthorized(err):
		// The store already dropped the session.
		if IsBrowserRequest(r) {
			Navigate(w, r, h.Paths.Login)
			return
		}
		WriteAuthError(w, err)
		return
	default:
		h.logger().WarnContext(r.Context(), "refresh user failed", "error", err)
		WriteAuthError(w, err)
		return
	}

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, newStatusResponse(h.Session.Snapshot()))
		return
	}
	if IsHTMX(r) {
		HTMX(w).Refresh()
		return
	}
	dest := sameOriginPath(r, r.Referer())
	if dest == "" {
		dest = h.Paths.Home
	}
	Navigate(w, r, dest)
}
