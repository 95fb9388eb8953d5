package httpx

import (
	"log/slog"
	"net/http"
)

// PageHandlers renders the neutral shells of the guarded pages.
type PageHandlers struct {
	T      *TemplateRenderer
	Logger *slog.Logger
}

// Shell returns a handler that renders page with title inside the layout.
func (h *PageHandlers) Shell(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, newPageData(r, page, title))
	}
}

// NotFound renders the 404 page for browsers and a JSON error otherwise.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "Not found."})
		return
	}
	data := newPageData(r, PageNotFound, "Not found")
	data.Status = http.StatusNotFound
	h.render(w, r, data)
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, data PageData) {
	if err := h.T.Render(w, r, data); err != nil {
		logger := h.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "render page failed", "page", data.CurrentPage, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
