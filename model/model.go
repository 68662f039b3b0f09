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

// Package model is the core of the service. Model interfaces with all
// the other packages and a *Model (conventionally *m) is passed to the
// ui handlers.
//
// The collaborators (bucket, extraction function, warehouse, Slack)
// are interfaces so that the flows can be exercised without Google.
package model

import (
	"context"
	"log"
	"time"

	"github.com/jarrah-analytics/docusketch-utils/bq"
	"github.com/jarrah-analytics/docusketch-utils/extract"
	"github.com/jarrah-analytics/docusketch-utils/gcs"
)

// Download modes, see Config.DownloadMode.
const (
	DownloadSigned = "signed"
	DownloadStream = "stream"
)

// ArtifactStore is where the extraction function leaves its
// files. Implemented by *gcs.GCS.
type ArtifactStore interface {
	ObjectName(name string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	SignedURL(name string, ttl time.Duration) (string, error)
	ReadAll(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]*gcs.Object, error)
}

// JobInvoker triggers one extraction. Implemented by *extract.Invoker.
type JobInvoker interface {
	Invoke(ctx context.Context, zipCode string) (*extract.Result, error)
}

// Warehouse runs a query. Implemented by *bq.BigQuery.
type Warehouse interface {
	Query(ctx context.Context, sql string) (*bq.ResultSet, error)
}

// Notifier posts a one line message somewhere people will see it.
// Implemented by *slack.Notifier.
type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

type Config struct {
	DownloadMode      string        // DownloadSigned or DownloadStream
	SignedURLTTL      time.Duration // validity of signed URLs
	DashboardTable    string        // table spec read by the dashboard
	DashboardCacheTTL time.Duration // how long a fetched result set is reused
}

// Everything the UI does is done via the Model.
type Model struct {
	store    ArtifactStore
	invoker  JobInvoker
	wh       Warehouse
	notifier Notifier
	cache    *Cache

	downloadMode string
	signedTTL    time.Duration
	table        string
}

// Create a new Model. The warehouse may be nil, in which case the
// dashboard is disabled. The notifier may be nil as well.
func New(cfg Config, store ArtifactStore, invoker JobInvoker, wh Warehouse, notifier Notifier) *Model {
	mode := cfg.DownloadMode
	if mode == "" {
		mode = DownloadSigned
	}
	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	cacheTTL := cfg.DashboardCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Model{
		store:        store,
		invoker:      invoker,
		wh:           wh,
		notifier:     notifier,
		cache:        NewCache(cacheTTL),
		downloadMode: mode,
		signedTTL:    ttl,
		table:        cfg.DashboardTable,
	}
}

// DashboardEnabled is false when no warehouse was configured.
func (m *Model) DashboardEnabled() bool {
	return m.wh != nil
}

// notify sends msg if a notifier is configured. Failures are only
// logged, they never affect the caller.
func (m *Model) notify(ctx context.Context, msg string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, msg); err != nil {
		log.Printf("notify: %v", err)
	}
}
