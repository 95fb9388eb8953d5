package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// Sections of the account page.
const (
	sectionProfile  = "profile"
	sectionPassword = "password"
	sectionDelete   = "delete"
)

// AccountHandlers serves /account and its three mutations.
type AccountHandlers struct {
	Session SessionService
	T       *TemplateRenderer
	Paths   NavPaths
	Logger  *slog.Logger
}

func (h *AccountHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AccountHandlers) render(w http.ResponseWriter, r *http.Request, data PageData) {
	if err := h.T.Render(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render account page failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// accountPage builds the view model from the latest snapshot so a just-updated
// profile is shown rather than the one the guard admitted the request with.
func (h *AccountHandlers) accountPage(r *http.Request) PageData {
	data := newPageData(r, PageAccount, "Account")
	if snap := h.Session.Snapshot(); snap.IsAuthenticated() {
		data.User = snap.User
	}
	return data
}

// Page renders the account page.
// GET /account.
func (h *AccountHandlers) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.accountPage(r))
}

// UpdateProfile saves changed profile fields. Unchanged fields are not sent.
// POST /account/profile.
func (h *AccountHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	update := profileUpdateFrom(in, CurrentUser(r.Context()))
	dest, err := h.Session.UpdateProfile(r.Context(), update)
	if err != nil {
		h.fail(w, r, sectionProfile, err)
		return
	}
	if dest != "" {
		sendAway(w, r, dest, nil)
		return
	}

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]any{"user": h.Session.Snapshot().User})
		return
	}
	data := h.accountPage(r)
	data.Notice = "Profile updated."
	h.render(w, r, data)
}

// ChangePassword rotates the password; the session ends and the user logs in again.
// POST /account/password.
func (h *AccountHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	dest, err := h.Session.ChangePassword(r.Context(), domainauth.PasswordChange{
		CurrentPassword: in.secret("current_password"),
		NewPassword:     in.secret("new_password"),
	})
	if err != nil {
		h.fail(w, r, sectionPassword, err)
		return
	}
	sendAway(w, r, dest, nil)
}

// DeleteAccount removes the account after password confirmation.
// POST /account/delete.
func (h *AccountHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	dest, err := h.Session.DeleteAccount(r.Context(), domainauth.AccountDeletion{Password: in.secret("password")})
	if err != nil {
		h.fail(w, r, sectionDelete, err)
		return
	}
	sendAway(w, r, dest, nil)
}

// fail reports a mutation error. A rejected token already ended the session,
// so the browser is sent to log in instead of seeing the form again.
func (h *AccountHandlers) fail(w http.ResponseWriter, r *http.Request, section string, err error) {
	if !IsBrowserRequest(r) {
		WriteAuthError(w, err)
		return
	}
	if domainauth.IsUnauthorized(err) {
		Navigate(w, r, h.Paths.Login)
		return
	}
	data := h.accountPage(r).withError(err)
	data.Section = section
	h.render(w, r, data)
}

// profileUpdateFrom keeps only submitted fields that differ from the current profile.
func profileUpdateFrom(in formInput, current *domainauth.User) domainauth.ProfileUpdate {
	var update domainauth.ProfileUpdate
	changed := func(key, currentValue string, fold bool) *string {
		if !in.has(key) {
			return nil
		}
		v := in.get(key)
		if current != nil {
			if v == currentValue || (fold && strings.EqualFold(v, currentValue)) {
				return nil
			}
		}
		return &v
	}

	var first, last, email string
	if current != nil {
		first, last, email = current.FirstName, current.LastName, current.Email
	}
	update.FirstName = changed("firstname", first, false)
	update.LastName = changed("lastname", last, false)
	update.NewEmail = changed("new_email", email, true)
	return update
}
