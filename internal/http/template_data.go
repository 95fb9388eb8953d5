package httpx

import (
	"net/http"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

// NavLink is one entry of the side navigation.
type NavLink struct {
	Page  string
	Title string
	Path  string
}

//nolint:gochecknoglobals // static navigation tables
var (
	userNav = []NavLink{
		{PageHome, "Home", "/home"},
		{PageDashboard, "Dashboard", "/dashboard"},
		{PageScheduler, "Scheduler", "/scheduler"},
		{PageCaptionGenerator, "Caption Generator", "/caption-generator"},
		{PageCaptionHistory, "Caption History", "/caption-history"},
		{PageAccount, "Account", "/account"},
	}
	adminNav = []NavLink{
		{PageAdminDashboard, "Admin Dashboard", "/admin/dashboard"},
		{PageAdminUsers, "Users", "/admin/users"},
	}
)

// PageData is the view model shared by every template.
type PageData struct {
	Title       string
	CurrentPage string
	// Status is the HTTP status to answer with; 0 means 200.
	Status int

	User      *domainauth.User
	Nav       []NavLink
	CSRFToken string

	LoginPath  string
	SignupPath string

	Notice string
	Error  string
	// Fields maps input names to validation messages.
	Fields map[string]string
	// Form echoes submitted non-secret values.
	Form map[string]string
	// Section names the form on a multi-form page the error belongs to.
	Section string
}

// newPageData builds the base view model for r.
func newPageData(r *http.Request, page, title string) PageData {
	data := PageData{
		Title:       title,
		CurrentPage: page,
		CSRFToken:   GetCSRFToken(r),
		Form:        map[string]string{},
		Fields:      map[string]string{},
	}
	if user := CurrentUser(r.Context()); user != nil {
		data.User = user
		data.Nav = append(data.Nav, userNav...)
		if user.IsAdmin {
			data.Nav = append(data.Nav, adminNav...)
		}
	}
	return data
}

// withError copies err's message and field errors into the view model.
// The page still answers 200 so htmx swaps the re-rendered form in.
func (d PageData) withError(err error) PageData {
	authErr := domainauth.AsError(err)
	if authErr == nil {
		return d
	}
	d.Error = authErr.Message
	for _, f := range authErr.Fields {
		d.Fields[f.Field] = f.Message
	}
	return d
}
