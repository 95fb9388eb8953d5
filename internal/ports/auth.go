// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// KeyValueStore is the durable string store backing the token store.
// Get reports ok=false when the key is absent. Delete of a missing key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// AuthGateway wraps the remote API's authentication and account endpoints.
// Every error it returns is a *domainauth.Error.
type AuthGateway interface {
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Token, error)
	Signup(ctx context.Context, in domainauth.SignupInput) (domainauth.User, error)
	FetchCurrentUser(ctx context.Context, tok domainauth.Token) (domainauth.User, error)

	UpdateProfile(ctx context.Context, tok domainauth.Token, in domainauth.ProfileUpdate) error
	ChangePassword(ctx context.Context, tok domainauth.Token, in domainauth.PasswordChange) error
	DeleteAccount(ctx context.Context, tok domainauth.Token, in domainauth.AccountDeletion) error

	// RequestPasswordReset and ResetPassword return the server's confirmation message.
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, in domainauth.PasswordReset) (string, error)
}
