package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

func TestPages_Shell_RendersLayout(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return
	}
	h := &PageHandlers{T: tr, Logger: discardLogger()}

	r := httptest.NewRequest(http.MethodGet, "/caption-generator", nil)
	r = r.WithContext(SetSessionInContext(r.Context(), domainauth.Session{
		Token: "tok",
		User:  &domainauth.User{FirstName: "Bob", Email: memberEmail},
		State: domainauth.StateAuthenticated,
	}))
	rr := httptest.NewRecorder()

	h.Shell(PageCaptionGenerator, "Caption Generator").ServeHTTP(rr, r)

	res := rr.Result()
	t.Cleanup(func() { _ = res.Body.Close() })

	if got := res.StatusCode; got != http.StatusOK {
		t.Fatalf("expected status 200, got %d", got)
	}
	if ct := res.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected text/html content type, got %q", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-page="caption-generator"`) {
		t.Fatalf("expected caption generator shell, got: %s", body)
	}
	if !strings.Contains(body, `class="active"`) {
		t.Fatalf("expected current nav entry to be marked, got: %s", body)
	}
}

func TestPages_NotFound(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return
	}
	h := &PageHandlers{T: tr, Logger: discardLogger()}

	r := httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	h.NotFound(rr, r)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Page not found") {
		t.Fatalf("expected not found page, got: %s", rr.Body.String())
	}
}
