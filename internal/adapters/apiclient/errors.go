package apiclient

import (
	"encoding/json"
	"net/http"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// Operation names one remote endpoint. It selects fallback messages and metric tags.
type Operation string

const (
	OpLogin                Operation = "login"
	OpSignup               Operation = "signup"
	OpMe                   Operation = "me"
	OpUpdateProfile        Operation = "update_profile"
	OpChangePassword       Operation = "change_password"
	OpDeleteAccount        Operation = "delete_account"
	OpRequestPasswordReset Operation = "forgot_password"
	OpResetPassword        Operation = "reset_password"
)

var defaultMessages = map[Operation]string{
	OpLogin:                "Login failed. Please try again.",
	OpSignup:               "Signup failed. Please try again.",
	OpMe:                   "Failed to fetch user details.",
	OpUpdateProfile:        "Failed to update profile.",
	OpChangePassword:       "Failed to change password.",
	OpDeleteAccount:        "Failed to delete account.",
	OpRequestPasswordReset: "Failed to request password reset.",
	OpResetPassword:        "Failed to reset password.",
}

const (
	msgEmailTaken = "An account with this email already exists."
	// pydanticPrefix is prepended by the API's validators to custom messages.
	pydanticPrefix = "Value error, "
	// maxPlainBody bounds how much of a non-JSON body is shown to the user.
	maxPlainBody = 200
)

// DefaultMessage returns the fallback message for op.
func DefaultMessage(op Operation) string {
	if msg, ok := defaultMessages[op]; ok {
		return msg
	}
	return domainauth.MsgUnknown
}

// parsedBody is what NormalizeError could extract from an error response.
type parsedBody struct {
	message string
	fields  []domainauth.FieldError
}

// NormalizeError maps an HTTP error response of op to a typed error.
// It recognises plain text bodies, {"detail": "..."}, {"detail": {"msg": "..."}},
// {"detail": [{"loc": [...], "msg": "..."}]} and {"message": "..."}.
func NormalizeError(op Operation, status int, body []byte) *domainauth.Error {
	parsed := parseErrorBody(body)
	message := parsed.message

	result := func(kind domainauth.ErrorKind, fallback string) *domainauth.Error {
		msg := message
		if msg == "" {
			msg = fallback
		}
		return &domainauth.Error{Kind: kind, Message: msg, Fields: parsed.fields, Status: status}
	}

	switch {
	case status == http.StatusUnauthorized && op == OpLogin:
		return result(domainauth.KindInvalidCredentials, domainauth.MsgInvalidCredentials)
	case status == http.StatusUnauthorized:
		return &domainauth.Error{Kind: domainauth.KindUnauthorized, Message: domainauth.MsgSessionExpired, Status: status}
	case status == http.StatusConflict:
		return result(domainauth.KindConflict, msgEmailTaken)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "already registered"):
		return result(domainauth.KindConflict, msgEmailTaken)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return result(domainauth.KindValidation, DefaultMessage(op))
	case status >= http.StatusInternalServerError:
		// Server error pages are not meant for users.
		return &domainauth.Error{Kind: domainauth.KindUnknown, Message: DefaultMessage(op), Status: status}
	default:
		return result(domainauth.KindUnknown, DefaultMessage(op))
	}
}

func parseErrorBody(body []byte) parsedBody {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return parsedBody{}
	}

	var data any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		if len(trimmed) > maxPlainBody || strings.HasPrefix(trimmed, "<") {
			return parsedBody{}
		}
		return parsedBody{message: trimmed}
	}
	if s, ok := data.(string); ok {
		return parsedBody{message: strings.TrimSpace(s)}
	}

	switch searchString("type(detail)", data) {
	case "string":
		return parsedBody{message: searchString("detail", data)}
	case "object":
		return parsedBody{message: cleanMessage(searchString("detail.msg", data))}
	case "array":
		return parseDetailList(data)
	}
	return parsedBody{message: searchString("message", data)}
}

// parseDetailList handles the validation shape; the first message is the summary.
func parseDetailList(data any) parsedBody {
	raw, err := jmespath.Search("detail[?msg].{msg: msg, loc: loc}", data)
	if err != nil {
		return parsedBody{}
	}
	items, _ := raw.([]any)

	var out parsedBody
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		msg, _ := entry["msg"].(string)
		msg = cleanMessage(msg)
		if msg == "" {
			continue
		}
		if out.message == "" {
			out.message = msg
		}
		if field := lastStringElement(entry["loc"]); field != "" {
			out.fields = append(out.fields, domainauth.FieldError{Field: field, Message: msg})
		}
	}
	return out
}

func searchString(expr string, data any) string {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func cleanMessage(msg string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg), pydanticPrefix))
}

// lastStringElement returns the last string in a pydantic loc path such as ["body", "email"].
func lastStringElement(loc any) string {
	parts, ok := loc.([]any)
	if !ok {
		return ""
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if s, ok := parts[i].(string); ok && s != "body" {
			return s
		}
	}
	return ""
}
