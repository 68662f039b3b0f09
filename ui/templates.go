/* Copyright 2026 Jarrah Analytics

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       https://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License. */

package ui

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jarrah-analytics/docusketch-utils/auth"
	"github.com/jarrah-analytics/docusketch-utils/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var embeddedStatic embed.FS

var staticFS, _ = fs.Sub(embeddedStatic, "static")

var funcs = template.FuncMap{
	"bytes": func(n int64) string { return humanize.Bytes(uint64(n)) },
	"ago":   humanize.Time,
	"date": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05 MST")
	},
	"day": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
}

// Every page is the layout plus one content template.
var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"login", "extract", "history", "map", "dashboard"} {
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
}

type tab struct {
	Name string
	Path string
}

type page struct {
	Title     string
	Tab       string
	Tabs      []tab
	RequestID string
	Data      interface{}
}

func render(w http.ResponseWriter, r *http.Request, m *model.Model, name, title string, data interface{}) {
	renderStatus(w, r, m, http.StatusOK, name, title, data)
}

// renderStatus executes the page into a buffer first so that a
// template error never results in half a page.
func renderStatus(w http.ResponseWriter, r *http.Request, m *model.Model, status int, name, title string, data interface{}) {
	p := &page{
		Title:     title,
		Tab:       "/" + name,
		RequestID: RequestID(r.Context()),
		Data:      data,
	}
	if auth.Verified(r) {
		p.Tabs = []tab{{"Extraction", "/extract"}, {"History", "/history"}, {"Weather Map", "/map"}}
		if m != nil && m.DashboardEnabled() {
			p.Tabs = append(p.Tabs, tab{"Dashboard", "/dashboard"})
		}
	}

	var buf bytes.Buffer
	if err := pages[name].Execute(&buf, p); err != nil {
		log.Printf("render %s: error: %v", name, err)
		http.Error(w, "This is an error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type loginView struct {
	Next    string
	Message string
}

// loginPage is the auth.LoginPage of the password gate.
func loginPage(w http.ResponseWriter, r *http.Request, status int, next, message string) {
	renderStatus(w, r, nil, status, "login", "Login", &loginView{Next: next, Message: message})
}

func contentType(name string) string {
	if path.Ext(name) == ".csv" { // not in every mime table
		return "text/csv"
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func baseName(name string) string {
	return path.Base(name)
}
