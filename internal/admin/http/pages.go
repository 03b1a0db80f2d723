package http

import (
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/aussiebroadwan/backoffice/pkg/httpx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
)

// Page shells only. Marketing content and the admin UI are rendered
// elsewhere; these exist so the access rules have real routes to guard.
var pages = template.Must(template.New("").Parse(`
{{define "layout"}}<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body data-page="{{.Page}}">
<h1>{{.Title}}</h1>
{{if .Principal}}<p>Signed in as <span id="principal">{{.Principal}}</span></p>
<form method="post" action="/api/admin/logout"><button>Sign out</button></form>{{end}}
{{if eq .Page "login"}}<p>Sign in with a passkey or the admin password.</p>
<div id="login" data-next="{{.Next}}"></div>{{end}}
</body>
</html>{{end}}`))

type pageData struct {
	Title     string
	Page      string
	Principal string
	Next      string
}

func render(w http.ResponseWriter, r *http.Request, data pageData) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, "layout", data); err != nil {
		slogx.FromContext(r.Context()).Error("render page", "page", data.Page, "err", err)
	}
}

// LandingHandler is the public marketing placeholder.
func LandingHandler(w http.ResponseWriter, r *http.Request) {
	render(w, r, pageData{Title: "Welcome", Page: "landing"})
}

// AdminHomeHandler is the protected admin home.
func AdminHomeHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFrom[session.Principal](r.Context())
	render(w, r, pageData{Title: "Back office", Page: "admin", Principal: p.Subject})
}

// LoginPageHandler is the auth-only login page. next is echoed so the page
// script can hand it back on login.
func LoginPageHandler(homePath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, pageData{
			Title: "Sign in",
			Page:  "login",
			Next:  httpx.SafeRedirect(r.URL.Query().Get("next"), homePath),
		})
	}
}
