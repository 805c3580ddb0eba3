package views

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

// Breadcrumb represents a navigation trail entry
type Breadcrumb struct {
	Title string
	URL   string
}

// PageProps is the data every page shares
type PageProps struct {
	Title       string
	Breadcrumbs []Breadcrumb
	UserEmail   string
	UserUID     string
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Page.Title}} | Rez</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f9;color:#1f2330}
header{display:flex;justify-content:space-between;align-items:center;padding:12px 24px;background:#fff;border-bottom:1px solid #e3e4e8}
main{max-width:880px;margin:32px auto;padding:0 24px}
.card{background:#fff;border:1px solid #e3e4e8;border-radius:8px;padding:24px;margin-bottom:16px}
.muted{color:#6b7080}.ok{color:#137333}.warn{color:#a15c00}.err{color:#b3261e}
.grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(220px,1fr));gap:16px}
nav.crumbs{font-size:14px;margin-bottom:16px}
a.btn,button{display:inline-block;padding:8px 16px;border-radius:6px;background:#3b5bdb;color:#fff;border:0;text-decoration:none;cursor:pointer}
</style>
</head>
<body>
<header>
<a href="/"><strong>Rez</strong></a>
{{if .Page.UserEmail}}<span class="muted">{{.Page.UserEmail}}</span>{{else}}<a href="/login">Sign in</a>{{end}}
</header>
<main>
{{if .Page.Breadcrumbs}}<nav class="crumbs">{{range $i, $b := .Page.Breadcrumbs}}{{if $i}} / {{end}}{{if $b.URL}}<a href="{{$b.URL}}">{{$b.Title}}</a>{{else}}<span>{{$b.Title}}</span>{{end}}{{end}}</nav>{{end}}
{{template "content" .}}
</main>
</body>
</html>{{end}}`

// page parses the shared layout together with a page's "content" block
func page(name, content string, funcs template.FuncMap) *template.Template {
	t := template.New(name).Funcs(funcs)
	template.Must(t.Parse(layoutHTML))
	template.Must(t.Parse(content))
	return t
}

// render turns a parsed page into a templ component
func render(t *template.Template, page PageProps, data interface{}) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "layout", struct {
			Page PageProps
			Data interface{}
		}{Page: page, Data: data})
	})
}
