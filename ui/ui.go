/* Copyright 2019 Vox Media, Inc.
   Copyright 2026 Jarrah Analytics

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       https://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License. */

// Package UI contains the HTML pages and the JSON API.
package ui

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jarrah-analytics/docusketch-utils/auth"
	"github.com/jarrah-analytics/docusketch-utils/extract"
	"github.com/jarrah-analytics/docusketch-utils/gcs"
	"github.com/jarrah-analytics/docusketch-utils/model"
)

type Config struct {
	AppPassword   string // The one shared secret
	SessionSecret string // Signs and encrypts the session cookie
	ForceSSL      bool   // Check X-Forwarded-Proto and insist on https://
	WeatherMapURL string // iframe source of the map tab
}

// NewHandler returns the complete HTTP handler, middleware included.
func NewHandler(cfg Config, m *model.Model) (http.Handler, error) {
	pw, err := auth.NewPassword(auth.PasswordConfig{
		Password:     cfg.AppPassword,
		CookieSecret: cfg.SessionSecret,
		LoginURL:     "/login",
		SessionName:  "sess",
		Page:         loginPage,
	})
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// No login required
	r.Handle("/login", pw.Login()).Methods("GET", "POST")
	r.Handle("/healthz", healthzHandler()).Methods("GET")
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages
	r.Handle("/", pw.RequireLogin(http.RedirectHandler("/extract", http.StatusFound))).Methods("GET")
	r.Handle("/extract", pw.RequireLogin(extractGetHandler(m))).Methods("GET")
	r.Handle("/extract", pw.RequireLogin(extractPostHandler(m))).Methods("POST")
	r.Handle("/history", pw.RequireLogin(historyHandler(m))).Methods("GET")
	r.Handle("/download", pw.RequireLogin(downloadHandler(m))).Methods("GET")
	r.Handle("/map", pw.RequireLogin(mapHandler(m, cfg.WeatherMapURL))).Methods("GET")
	r.Handle("/dashboard", pw.RequireLogin(dashboardHandler(m))).Methods("GET")
	r.Handle("/dashboard/refresh", pw.RequireLogin(dashboardRefreshHandler(m))).Methods("POST")

	// Api subrouter
	ar := r.PathPrefix("/api").Subrouter()
	ar.Handle("/extract", pw.RequireLogin(apiExtractHandler(m))).Methods("POST")
	ar.Handle("/artifacts", pw.RequireLogin(apiArtifactsHandler(m))).Methods("GET")
	ar.Handle("/dashboard", pw.RequireLogin(apiDashboardHandler(m))).Methods("GET")

	var h http.Handler = r
	h = checkSSL(h, cfg.ForceSSL)
	h = recoverPanics(h)
	h = logRequests(h)
	h = requestID(h)
	return h, nil
}

// Start the HTTP service on listener. The returned server is already
// serving, stop it with Shutdown.
func Start(cfg Config, m *model.Model, listener net.Listener) (*http.Server, error) {
	h, err := NewHandler(cfg, m)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Handler:        h,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Minute, // extractions can be slow
		MaxHeaderBytes: 1 << 16}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server: %v", err)
		}
	}()
	return server, nil
}

func healthzHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok\n")
	})
}

// extractView is what the extraction page shows below the form. At
// most one of Extraction and Error is set.
type extractView struct {
	ZipCode          string
	Extraction       *model.Extraction
	Error            string
	NotFound         bool
	PermissionDenied bool
}

func extractGetHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render(w, r, m, "extract", "Data Extraction", &extractView{})
	})
}

func extractPostHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zip := r.PostFormValue("zip_code")
		view := &extractView{ZipCode: zip}

		ex, err := m.RunExtraction(r.Context(), zip)
		if err != nil {
			view.Error, view.NotFound, view.PermissionDenied = describeExtractError(err)
			renderStatus(w, r, m, extractErrorStatus(err), "extract", "Data Extraction", view)
			return
		}
		view.Extraction = ex
		render(w, r, m, "extract", "Data Extraction", view)
	})
}

// describeExtractError turns an extraction failure into the message
// for the user.
func describeExtractError(err error) (msg string, notFound, denied bool) {
	var se *extract.StatusError
	switch {
	case errors.Is(err, model.ErrEmptyZipCode):
		return "Please enter a zip code.", false, false
	case errors.Is(err, model.ErrArtifactNotFound):
		return "The extraction finished but the file was not found in the bucket.", true, false
	case errors.As(err, &se):
		return se.Error(), false, se.PermissionDenied()
	default:
		return err.Error(), false, false
	}
}

func extractErrorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrEmptyZipCode):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrArtifactNotFound):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

type historyView struct {
	Objects  []*gcs.Object
	Selected string
	Link     *model.Link
	Error    string
}

func historyHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := &historyView{Selected: r.URL.Query().Get("file")}

		objs, err := m.Artifacts(r.Context())
		if err != nil {
			log.Printf("historyHandler: error: %v", err)
			view.Error = fmt.Sprintf("Could not list files: %v", err)
			render(w, r, m, "history", "History", view)
			return
		}
		view.Objects = objs

		if view.Selected != "" {
			link, err := m.ResolveArtifact(r.Context(), view.Selected)
			if errors.Is(err, model.ErrArtifactNotFound) {
				view.Error = "File not found in bucket."
			} else if err != nil {
				log.Printf("historyHandler: error: %v", err)
				view.Error = err.Error()
			}
			view.Link = link
		}
		render(w, r, m, "history", "History", view)
	})
}

// Serve the object bytes as an attachment. The whole object is read
// into memory first.
func downloadHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("file")
		data, err := m.ReadArtifact(r.Context(), name)
		if errors.Is(err, model.ErrArtifactNotFound) {
			http.Error(w, "File not found in bucket.", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("downloadHandler: error: %v", err)
			http.Error(w, "This is an error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", contentType(name))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", baseName(name)))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	})
}

func mapHandler(m *model.Model, mapURL string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render(w, r, m, "map", "Weather Map", mapURL)
	})
}

type dashboardView struct {
	Disabled  bool
	Error     string
	Metrics   *model.Metrics
	Trends    *lineChart
	Breakdown *barChart
}

func dashboardHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := &dashboardView{}
		mt, err := m.Dashboard(r.Context(), r.URL.Query()["campaign"])
		switch {
		case errors.Is(err, model.ErrDashboardDisabled):
			view.Disabled = true
		case err != nil:
			log.Printf("dashboardHandler: error: %v", err)
			view.Error = fmt.Sprintf("Failed to load dashboard: %v", err)
		default:
			view.Metrics = mt
			view.Trends = newLineChart(mt.Trends)
			view.Breakdown = newBarChart(mt.Breakdown)
		}
		render(w, r, m, "dashboard", "Campaign Performance Dashboard", view)
	})
}

// Drop the cached result and go back to the dashboard with the same
// campaign selection.
func dashboardRefreshHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.RefreshDashboard(); err != nil {
			http.Error(w, "Dashboard not configured", http.StatusNotFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			log.Printf("dashboardRefreshHandler: error: %v", err)
		}
		target := "/dashboard"
		if cs := r.PostForm["campaign"]; len(cs) > 0 {
			target += "?" + url.Values{"campaign": cs}.Encode()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
