// Package auth contains domain-level types for the console session: the bearer token,
// the current user as reported by the remote API, and immutable session snapshots.
// It is pure and free of framework/adapter concerns.
package auth

import "strings"

// Token is an opaque bearer credential issued by the remote API.
type Token string

// String redacts the token so it never ends up in logs by accident.
func (t Token) String() string {
	if t == "" {
		return ""
	}
	return "[redacted]"
}

// User is the current account as returned by the remote API.
// It is never built from local assumptions; every instance comes from a fetch.
type User struct {
	ID                string  `json:"id"`
	FirstName         string  `json:"firstname"`
	LastName          string  `json:"lastname"`
	Email             string  `json:"email"`
	IsAdmin           bool    `json:"is_admin"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

// DisplayName returns the best human-readable name for the user.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}

// State is the lifecycle state of the console session.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateHydrating       State = "hydrating"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticating is entered while an explicit login runs. The token/user
	// slot keeps its previous value until the login resolves.
	StateAuthenticating State = "authenticating"
)

// Session is an immutable snapshot of the session store.
type Session struct {
	Token     Token
	User      *User
	State     State
	IsReady   bool
	IsLoading bool
	Err       *Error
	// Version increases on every mutation of the store.
	Version uint64
}

// IsAuthenticated requires both a token and a user.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// IsAdmin reports whether the session belongs to an authenticated administrator.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin
}

// ErrorMessage returns the user-facing error message, if any.
func (s Session) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Message
}

// Credentials are exchanged for a token.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput carries the profile fields for a new account.
type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// ProfileUpdate is a partial profile mutation; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"firstname,omitempty"`
	LastName  *string `json:"lastname,omitempty"`
	NewEmail  *string `json:"new_email,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.NewEmail == nil
}

// PasswordChange requests a password rotation for the current account.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AccountDeletion confirms account deletion with the current password.
type AccountDeletion struct {
	Password string `json:"password"`
}

// PasswordReset completes the forgot-password flow with an emailed reset token.
type PasswordReset struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
