package http

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/taskdeck/internal/session"
	"github.com/aussiebroadwan/taskdeck/pkg/credstore"
	"github.com/aussiebroadwan/taskdeck/pkg/httpx"
)

// appSections are the guarded pages of the task application.
var appSections = []navLink{
	{Label: "Tasks", Href: "/tasks"},
	{Label: "Calendar", Href: "/calendar"},
	{Label: "Analytics", Href: "/analytics"},
	{Label: "Profile", Href: "/profile"},
}

// PageHandler serves the guarded application pages. With Static set it
// serves the built single-page app's index.html; otherwise a server-rendered
// placeholder.
type PageHandler struct {
	Manager *session.Manager
	Views   *Views
	Static  fs.FS
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Static != nil {
		httpx.NoCache(w)
		http.ServeFileFS(w, r, h.Static, "index.html")
		return
	}

	ctx := r.Context()
	sess, ok := session.SessionFromContext(ctx)
	if !ok {
		sess = h.Manager.Session(credstore.NewCookieStore(w, r))
	}

	page := appPage{
		Path:  r.URL.Path,
		State: sess.Describe(ctx),
	}
	for _, s := range appSections {
		s.Active = r.URL.Path == s.Href || strings.HasPrefix(r.URL.Path, s.Href+"/")
		if s.Active {
			page.Title = s.Label
		}
		page.Nav = append(page.Nav, s)
	}
	if page.Title == "" {
		page.Title = "Taskdeck"
	}
	if user, ok := sess.UserInfo(ctx); ok {
		page.User = &user
	}

	h.Views.render(w, r, http.StatusOK, "app.html", page)
}
