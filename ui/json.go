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

package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jarrah-analytics/docusketch-utils/model"
)

func decodeJson(r *http.Request, target interface{}) error {
	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()
	return decoder.Decode(target)
}

func toJsonString(obj interface{}) string {
	js, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}", err.Error())
	}
	return string(js)
}

func writeJson(w http.ResponseWriter, status int, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintln(w, toJsonString(obj))
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJson(w, status, map[string]string{"error": msg})
}

type extractRequest struct {
	ZipCode string `json:"zip_code"`
}

type extractResponse struct {
	ZipCode  string `json:"zip_code"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
	URL      string `json:"url,omitempty"`
	Warning  string `json:"warning,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

func apiExtractHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if err := decodeJson(r, &req); err != nil {
			log.Printf("apiExtractHandler: error: %v", err)
			jsonError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		ex, err := m.RunExtraction(r.Context(), req.ZipCode)
		if err != nil {
			msg, _, _ := describeExtractError(err)
			jsonError(w, extractErrorStatus(err), msg)
			return
		}

		resp := &extractResponse{ZipCode: ex.ZipCode, Filename: ex.Filename, Message: ex.Message}
		if ex.Warning() {
			resp.Warning = "no filename in response"
			resp.Raw = ex.Raw
		} else {
			resp.URL = ex.Link.URL
		}
		writeJson(w, http.StatusOK, resp)
	})
}

type artifactJson struct {
	Name    string    `json:"name"`
	Updated time.Time `json:"updated"`
	Size    int64     `json:"size"`
}

func apiArtifactsHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objs, err := m.Artifacts(r.Context())
		if err != nil {
			log.Printf("apiArtifactsHandler: error: %v", err)
			jsonError(w, http.StatusBadGateway, err.Error())
			return
		}
		result := make([]*artifactJson, 0, len(objs))
		for _, o := range objs {
			result = append(result, &artifactJson{Name: o.Name, Updated: o.Updated, Size: o.Size})
		}
		writeJson(w, http.StatusOK, result)
	})
}

type dashboardJson struct {
	Campaigns []string          `json:"campaigns"`
	Selected  []string          `json:"selected"`
	Totals    map[string]string `json:"totals"`
	Trends    []trendJson       `json:"trends"`
	Breakdown []breakdownJson   `json:"breakdown"`
	Rows      int               `json:"rows"`
	FetchedAt time.Time         `json:"fetched_at"`
}

type trendJson struct {
	Date     string  `json:"conversion_date"`
	Trials   float64 `json:"trials"`
	Upgrades float64 `json:"total_upgrades"`
}

type breakdownJson struct {
	Campaign string  `json:"campaign"`
	Upgrades float64 `json:"total_upgrades"`
}

func apiDashboardHandler(m *model.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, err := m.Dashboard(r.Context(), r.URL.Query()["campaign"])
		if errors.Is(err, model.ErrDashboardDisabled) {
			jsonError(w, http.StatusNotFound, "Dashboard not configured")
			return
		}
		if err != nil {
			log.Printf("apiDashboardHandler: error: %v", err)
			jsonError(w, http.StatusBadGateway, fmt.Sprintf("Failed to load dashboard: %v", err))
			return
		}

		resp := &dashboardJson{
			Campaigns: mt.Campaigns,
			Selected:  mt.Selected,
			Totals: map[string]string{
				"trials":   mt.Totals.TrialsString(),
				"upgrades": mt.Totals.UpgradesString(),
				"mrr":      mt.Totals.MRRString(),
			},
			Trends:    make([]trendJson, 0, len(mt.Trends)),
			Breakdown: make([]breakdownJson, 0, len(mt.Breakdown)),
			Rows:      len(mt.Data.Records),
			FetchedAt: mt.FetchedAt,
		}
		if resp.Selected == nil {
			resp.Selected = []string{}
		}
		for _, p := range mt.Trends {
			resp.Trends = append(resp.Trends, trendJson{Date: p.Date.Format("2006-01-02"), Trials: p.Trials, Upgrades: p.Upgrades})
		}
		for _, c := range mt.Breakdown {
			resp.Breakdown = append(resp.Breakdown, breakdownJson{Campaign: c.Campaign, Upgrades: c.Upgrades})
		}
		writeJson(w, http.StatusOK, resp)
	})
}
