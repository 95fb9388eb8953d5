package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

var _ LoadingRenderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer parses *.tmpl and pages/*.tmpl from cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var t *template.Template
	var err error
	t, err = template.New("root").Funcs(templateFuncs(&t)).ParseFS(cfg.TemplateFS, "*.tmpl", "pages/*.tmpl")
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	return &TemplateRenderer{t: t, logger: logger}, nil
}

// RenderFull renders the full page (layout + page content). Keep ≤3 params.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data PageData) error {
	return r.renderTemplate(w, "layout", data)
}

// RenderPartial renders only the main content area.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, _ *http.Request, data PageData) error {
	return r.renderTemplate(w, "content", data)
}

// Render picks the partial for htmx requests and the full page otherwise.
func (r *TemplateRenderer) Render(w http.ResponseWriter, req *http.Request, data PageData) error {
	if IsHTMX(req) {
		return r.RenderPartial(w, req, data)
	}
	return r.RenderFull(w, req, data)
}

// RenderLoading renders the self-refreshing placeholder shown before the session is ready.
func (r *TemplateRenderer) RenderLoading(w http.ResponseWriter, _ *http.Request) error {
	return r.renderTemplate(w, "loading-layout", PageData{Title: "Loading"})
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, name string, data PageData) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	status := data.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", name),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// templateFuncs resolves the page content template at execution time, so the
// layout can embed whichever page CurrentPage names.
func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		"renderContent": func(data PageData) (template.HTML, error) {
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, ContentTemplateFor(data.CurrentPage), data); err != nil {
				return "", err
			}
			//nolint:gosec // output of html/template is already escaped
			return template.HTML(buf.String()), nil
		},
		"isCurrent": func(data PageData, page string) bool {
			return data.CurrentPage == page
		},
	}
}
