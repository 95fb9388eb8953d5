package httpx

import (
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// HXCurrentURL returns the browser URL htmx reported for the request.
func HXCurrentURL(r *http.Request) string { return r.Header.Get("Hx-Current-Url") }

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXRefresh forces a full page refresh when true.
func SetHXRefresh(w http.ResponseWriter, refresh bool) {
	if refresh {
		w.Header().Set("Hx-Refresh", "true")
		return
	}
	w.Header().Set("Hx-Refresh", "false")
}

// Navigate sends the browser to dest: a 303 for regular requests, Hx-Redirect for htmx.
func Navigate(w http.ResponseWriter, r *http.Request, dest string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(dest)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
