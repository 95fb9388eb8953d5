package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// maxJSONBody bounds JSON request bodies accepted by the console.
const maxJSONBody = 64 << 10

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_json", Message: err.Error()})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

type errorBody struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Fields  []domainauth.FieldError `json:"fields,omitempty"`
}

// WriteAuthError writes err as {"error": kind, "message": ..., "fields": [...]}
// with a status derived from its kind.
func WriteAuthError(w http.ResponseWriter, err error) {
	authErr := domainauth.AsError(err)
	status := statusForKind(authErr.Kind)
	if authErr == domainauth.ErrBusy || authErr == domainauth.ErrStaleResponse {
		status = http.StatusConflict
	}
	WriteJSON(w, status, errorBody{
		Error:   string(authErr.Kind),
		Message: authErr.Message,
		Fields:  authErr.Fields,
	})
}

func statusForKind(kind domainauth.ErrorKind) int {
	switch kind {
	case domainauth.KindInvalidCredentials, domainauth.KindUnauthorized:
		return http.StatusUnauthorized
	case domainauth.KindValidation:
		return http.StatusUnprocessableEntity
	case domainauth.KindConflict:
		return http.StatusConflict
	case domainauth.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
