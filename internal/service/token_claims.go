package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// expiryLeeway tolerates small clock skew between the console and the API.
const expiryLeeway = 5 * time.Second

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// Opaque or malformed tokens report ok=false and are left to the server to judge.
func tokenExpiry(tok domainauth.Token) (time.Time, bool) {
	raw := string(tok)
	if strings.Count(raw, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// tokenExpired reports whether tok carries an exp claim that is already in the past.
func tokenExpired(tok domainauth.Token, now time.Time) bool {
	exp, ok := tokenExpiry(tok)
	if !ok {
		return false
	}
	return now.After(exp.Add(expiryLeeway))
}
