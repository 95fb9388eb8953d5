package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"
	"unicode"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// Classify returns a normalized error name suitable for tagging metrics and logs.
// Session errors are tagged by kind ("invalid_credentials", "network_error", ...);
// context errors get fixed names; anything else falls back to the innermost Go type.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case goerrors.Is(err, domainauth.ErrStorageUnavailable):
		return "storage_unavailable"
	}

	var authErr *domainauth.Error
	if goerrors.As(err, &authErr) {
		return snake(string(authErr.Kind))
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}

// snake converts CamelCase kinds to snake_case.
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
