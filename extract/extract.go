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

// Package extract triggers the remote extraction function. The
// function is a black box: it receives a zip code, writes a CSV into
// the bucket and (usually) tells us the name of the file.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/api/idtoken"
)

type Config struct {
	URL           string        // Function endpoint
	Authenticated bool          // Send a Google-signed identity token
	Timeout       time.Duration // 0 == no timeout
}

// Invoker calls the extraction function.
type Invoker struct {
	url    string
	client *http.Client
}

// Result is what a 200 response told us. Filename is blank when the
// body did not name a file, in which case Raw holds the body verbatim.
type Result struct {
	Filename string
	Message  string
	Raw      string
}

// StatusError is returned for any response other than 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.PermissionDenied() {
		return fmt.Sprintf("permission denied (status 403): the service account "+
			"is not allowed to invoke the extraction function, it needs the "+
			"Cloud Run Invoker (or Cloud Functions Invoker) role: %s", e.Body)
	}
	return fmt.Sprintf("extraction failed with status %d: %s", e.Code, e.Body)
}

func (e *StatusError) PermissionDenied() bool {
	return e.Code == http.StatusForbidden
}

// NewInvoker returns an Invoker. In authenticated mode the HTTP client
// fetches (and refreshes) an identity token whose audience is the
// function URL, using Application Default Credentials.
func NewInvoker(ctx context.Context, cfg Config) (*Invoker, error) {
	client := &http.Client{}
	if cfg.Authenticated {
		var err error
		client, err = idtoken.NewClient(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("identity token client for %s: %w", cfg.URL, err)
		}
	}
	client.Timeout = cfg.Timeout
	return NewInvokerWithClient(cfg.URL, client), nil
}

// NewInvokerWithClient returns an Invoker using the provided client as is.
func NewInvokerWithClient(url string, client *http.Client) *Invoker {
	return &Invoker{url: url, client: client}
}

// Invoke POSTs {"zip_code": zip} to the function.
func (i *Invoker) Invoke(ctx context.Context, zip string) (*Result, error) {
	js, err := json.Marshal(map[string]string{"zip_code": zip})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.url, bytes.NewReader(js))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling extraction function: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading extraction response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	return parseResult(body), nil
}

// A 200 without a usable filename is not an error, the caller shows
// the raw body as a warning.
func parseResult(body []byte) *Result {
	var parsed struct {
		Filename string `json:"filename"`
		Message  string `json:"message"`
	}
	result := &Result{Raw: string(body)}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return result
	}
	result.Filename = parsed.Filename
	result.Message = parsed.Message
	return result
}
