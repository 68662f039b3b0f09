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

// Package bq is responsible for all interactions with BigQuery.
//
// Note that it uses the low level google.golang.org/api/bigquery/v2,
// same as the rest of our tooling, which lets us create a client from
// an explicit service account key instead of relying solely on
// GOOGLE_APPLICATION_CREDENTIALS, see newBqApiClient().
package bq

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Configration parameters to instantiate a BigQuery connection.
type Config struct {
	ProjectId string        // Project the query jobs are billed to
	Email     string        // Email (for authentication, optional)
	Key       string        // Key (for authentication, optional)
	Wait      time.Duration // How long one results poll may block (defaults to 10s)
}

// BigQuery is a struct containing the information necessary to
// communicate with the BigQuery API.
type BigQuery struct {
	projectId string
	wait      time.Duration
	svc       *bigquery.Service
}

const waitDefault = 10 * time.Second

// NewBigQuery returns a BigQuery instance given a Config pointer.
func NewBigQuery(ctx context.Context, cfg *Config) (*BigQuery, error) {
	client, err := newBqApiClient(ctx, cfg.Email, cfg.Key)
	if err != nil {
		return nil, err
	}
	b, err := NewBigQueryWithOptions(ctx, cfg.ProjectId, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}
	if cfg.Wait > 0 {
		b.wait = cfg.Wait
	}
	return b, nil
}

// NewBigQueryWithOptions builds the API service from explicit client
// options, e.g. an endpoint and HTTP client pointing at a fake.
func NewBigQueryWithOptions(ctx context.Context, projectId string, opts ...option.ClientOption) (*BigQuery, error) {
	svc, err := bigquery.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery service: %w", err)
	}
	return &BigQuery{projectId: projectId, wait: waitDefault, svc: svc}, nil
}

func (b *BigQuery) ProjectId() string { return b.projectId }

// If this is a googleapi.Error, then try to extract the essential
// message, otherwise return as is
func extractSubmitError(err error) error {
	if gerr, ok := err.(*googleapi.Error); ok {
		return fmt.Errorf("%v", gerr.Message)
	}
	return err
}

// Query runs a standard SQL statement and returns the whole result
// set. The call blocks until the job is done or ctx is cancelled.
func (b *BigQuery) Query(ctx context.Context, sql string) (*ResultSet, error) {
	legacy := false
	req := &bigquery.QueryRequest{
		Query:     sql,
		TimeoutMs: b.wait.Milliseconds(),
		// Must use ForceSendFields or it won't register for standard SQL!
		UseLegacySql:    &legacy,
		ForceSendFields: []string{"UseLegacySql"},
	}

	resp, err := b.svc.Jobs.Query(b.projectId, req).Context(ctx).Do()
	if err != nil {
		return nil, extractSubmitError(err)
	}

	rs := &ResultSet{}
	if resp.JobComplete {
		rs.setSchema(resp.Schema)
		rs.appendRows(resp.Rows)
		if resp.PageToken == "" {
			return rs, nil
		}
	}
	if resp.JobReference == nil {
		return nil, fmt.Errorf("query response carries no job reference")
	}
	if err := b.fetchResults(ctx, resp.JobReference, resp.PageToken, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// Use provided credentials instead of
// GOOGLE_APPLICATION_CREDENTIALS file
func newBqApiClient(ctx context.Context, email, key string) (*http.Client, error) {
	if email == "" || key == "" {
		// Simply use Application Default Credentials
		return google.DefaultClient(ctx, bigquery.BigqueryScope)
	}
	cfg := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(key),
		Scopes:     append([]string{}, bigquery.BigqueryScope),
		TokenURL:   google.JWTTokenURL,
	}
	return oauth2.NewClient(ctx, cfg.TokenSource(ctx)), nil
}
