package httpx

import (
	"net/http"
)

type healthResponse struct {
	Status       string `json:"status"`
	SessionReady bool   `json:"session_ready"`
}

// healthHandler answers liveness checks. The process is healthy while the
// session is still hydrating; session_ready reports that separately.
func healthHandler(session SessionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", SessionReady: session.Snapshot().IsReady})
	}
}
