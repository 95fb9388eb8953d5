package httpx

import (
	"fmt"
	"net/http"
	"strings"
)

// maxFormBody bounds urlencoded form bodies.
const maxFormBody = 64 << 10

// formInput is the flattened set of submitted string fields.
type formInput map[string]string

// get returns the trimmed value of key.
func (in formInput) get(key string) string { return strings.TrimSpace(in[key]) }

// secret returns the untrimmed value of key. Passwords are sent as typed.
func (in formInput) secret(key string) string { return in[key] }

// has reports whether key was submitted at all.
func (in formInput) has(key string) bool {
	_, ok := in[key]
	return ok
}

// readInput accepts either a JSON object of strings or a urlencoded form.
// On failure the error response is already written.
func readInput(w http.ResponseWriter, r *http.Request) (formInput, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]any
		if !DecodeJSON(w, r, &raw) {
			return nil, false
		}
		in := make(formInput, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				in[k] = val
			case nil:
			default:
				in[k] = fmt.Sprint(val)
			}
		}
		return in, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_form", Message: "Could not read the submitted form."})
		return nil, false
	}
	in := make(formInput, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			in[k] = vs[0]
		}
	}
	return in, true
}
