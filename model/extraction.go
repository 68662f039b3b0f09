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

package model

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

var ErrEmptyZipCode = errors.New("please enter a zip code")

// Extraction is the outcome of a successful call to the extraction
// function. If the function named a file, Link is set. Otherwise the
// call is only a warning and Raw holds what the function returned.
type Extraction struct {
	ZipCode  string
	Filename string
	Message  string
	Link     *Link
	Raw      string
	Duration time.Duration
}

// Warning is true when the function succeeded without naming a file.
func (e *Extraction) Warning() bool {
	return e.Link == nil
}

// RunExtraction triggers the extraction for zipCode and, if a file
// was produced, resolves it for download. The errors returned are
// ErrEmptyZipCode, an *extract.StatusError, ErrArtifactNotFound
// (wrapped) or whatever the transport or bucket returned.
func (m *Model) RunExtraction(ctx context.Context, zipCode string) (*Extraction, error) {
	zipCode = strings.TrimSpace(zipCode)
	if zipCode == "" {
		return nil, ErrEmptyZipCode
	}

	start := time.Now()
	res, err := m.invoker.Invoke(ctx, zipCode)
	if err != nil {
		log.Printf("Extraction for %s failed: %v", zipCode, err)
		m.notify(ctx, fmt.Sprintf("Extraction for zip code %s failed: %v", zipCode, err))
		return nil, err
	}

	ex := &Extraction{
		ZipCode:  zipCode,
		Filename: res.Filename,
		Message:  res.Message,
		Raw:      res.Raw,
		Duration: time.Since(start),
	}
	if res.Filename == "" {
		log.Printf("Extraction for %s returned no filename: %q", zipCode, res.Raw)
		m.notify(ctx, fmt.Sprintf("Extraction for zip code %s finished without a file name", zipCode))
		return ex, nil
	}

	link, err := m.ResolveArtifact(ctx, res.Filename)
	if err != nil {
		log.Printf("Extraction for %s: cannot resolve %s: %v", zipCode, res.Filename, err)
		m.notify(ctx, fmt.Sprintf("Extraction for zip code %s: %v", zipCode, err))
		return nil, err
	}
	ex.Link = link

	log.Printf("Extraction for %s produced %s in %v", zipCode, link.Name, ex.Duration)
	m.notify(ctx, fmt.Sprintf("Extraction for zip code %s is ready: %s {URL_PREFIX}/history?file=%s",
		zipCode, link.Name, url.QueryEscape(link.Name)))
	return ex, nil
}
