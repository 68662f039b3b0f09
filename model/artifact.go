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
	"net/url"

	"github.com/jarrah-analytics/docusketch-utils/gcs"
)

// ErrArtifactNotFound is returned when a file is not in the bucket at
// the time it is asked for.
var ErrArtifactNotFound = errors.New("file not found in bucket")

// Link is how the browser gets at an artifact. URL is either a signed
// URL or a local /download link, depending on the download mode.
type Link struct {
	Name string
	URL  string
}

// ResolveArtifact checks that name exists and returns a Link to
// it. Existence is checked on every call.
func (m *Model) ResolveArtifact(ctx context.Context, name string) (*Link, error) {
	name, err := m.existing(ctx, name)
	if err != nil {
		return nil, err
	}
	if m.downloadMode == DownloadStream {
		return &Link{Name: name, URL: "/download?file=" + url.QueryEscape(name)}, nil
	}
	u, err := m.store.SignedURL(name, m.signedTTL)
	if err != nil {
		return nil, fmt.Errorf("signing URL for %s: %w", name, err)
	}
	return &Link{Name: name, URL: u}, nil
}

// ReadArtifact returns the whole content of name. Like
// ResolveArtifact, it first makes sure the file still exists.
func (m *Model) ReadArtifact(ctx context.Context, name string) ([]byte, error) {
	name, err := m.existing(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.store.ReadAll(ctx, name)
}

// Artifacts lists everything in the bucket, most recently updated
// first.
func (m *Model) Artifacts(ctx context.Context) ([]*gcs.Object, error) {
	objs, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	gcs.SortNewestFirst(objs)
	return objs, nil
}

func (m *Model) existing(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrArtifactNotFound
	}
	name, err := m.store.ObjectName(name)
	if err != nil {
		return "", err
	}
	ok, err := m.store.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrArtifactNotFound)
	}
	return name, nil
}
