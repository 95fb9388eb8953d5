package httpx

import (
	"context"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// requestIDKey carries the console request ID.
type requestIDKey struct{}

// SetSessionInContext returns a child context carrying the snapshot the guard admitted the request with.
func SetSessionInContext(ctx context.Context, session domainauth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the snapshot attached by RequireSession/RequireAdmin.
func GetSessionFromContext(ctx context.Context) (domainauth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domainauth.Session)
	return s, ok
}

// CurrentUser returns the authenticated user of the request, or nil.
func CurrentUser(ctx context.Context) *domainauth.User {
	s, ok := GetSessionFromContext(ctx)
	if !ok || !s.IsAuthenticated() {
		return nil
	}
	return s.User
}

func setRequestIDInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the ID assigned by the RequestID middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
