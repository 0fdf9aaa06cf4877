package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
	"github.com/aussiebroadwan/taskdeck/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views renders the gateway's server-side pages.
type Views struct {
	tmpl *template.Template
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Views{tmpl: tmpl}, nil
}

type loginPage struct {
	StartURL string
}

// continuePage hands the browser on to Destination from the app's origin.
type continuePage struct {
	Destination string
}

type errorPage struct {
	Title    string
	Message  string
	LoginURL string
}

type appPage struct {
	Title string
	Path  string
	User  *session.UserInfo
	State session.State
	Nav   []navLink
}

type navLink struct {
	Label  string
	Href   string
	Active bool
}

// render buffers the template so a failure can still produce a clean 500.
func (v *Views) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows message with a way back to sign-in.
func (v *Views) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	v.render(w, r, status, "error.html", errorPage{
		Title:    title,
		Message:  message,
		LoginURL: "/login",
	})
}
