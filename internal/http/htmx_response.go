package httpx

import (
	"net/http"
)

// HTMXResponse provides a fluent API for building HTMX responses.
type HTMXResponse struct {
	w http.ResponseWriter
}

// HTMX creates a new HTMXResponse for fluent response building.
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{w: w}
}

// Redirect sets Hx-Redirect and answers 204. Nothing else may be written afterwards.
func (h *HTMXResponse) Redirect(url string) {
	SetHXRedirect(h.w, url)
	h.w.WriteHeader(http.StatusNoContent)
}

// Refresh asks htmx to reload the whole page and answers 204.
func (h *HTMXResponse) Refresh() {
	SetHXRefresh(h.w, true)
	h.w.WriteHeader(http.StatusNoContent)
}
