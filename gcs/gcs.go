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

// Package GCS contains the code to interface with Google Cloud
// Storage, where the extraction function leaves its CSV files.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type Config struct {
	Bucket string // GCS bucket, "name" or "gs://name"
	Email  string // Service account email (optional)
	Key    string // PEM private key (optional)
}

type GCS struct {
	client *storage.Client
	bucket string
	email  string
	key    []byte
}

// Object describes one file in the bucket.
type Object struct {
	Name    string
	Updated time.Time
	Size    int64
}

// Create a GCS client. If Email and Key are provided they are used for
// both API access and URL signing, otherwise Application Default
// Credentials are used.
func NewGCS(ctx context.Context, cfg *Config) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.Email != "" && cfg.Key != "" {
		jcfg := &jwt.Config{
			Email:      cfg.Email,
			PrivateKey: []byte(cfg.Key),
			Scopes:     []string{storage.ScopeReadOnly},
			TokenURL:   google.JWTTokenURL,
		}
		opts = append(opts, option.WithTokenSource(jcfg.TokenSource(ctx)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCS{
		client: client,
		bucket: strings.TrimSuffix(strings.TrimPrefix(cfg.Bucket, "gs://"), "/"),
		email:  cfg.Email,
		key:    []byte(cfg.Key),
	}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) Bucket() string { return g.bucket }

// Given a file name, return a fully qualified gs:// URL
func (g *GCS) UrlForName(name string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, name)
}

// ObjectName accepts either a plain object name or a gs:// URI and
// returns the object name within our bucket.
func (g *GCS) ObjectName(name string) (string, error) {
	if !strings.HasPrefix(name, "gs://") {
		return name, nil
	}
	bucket, obj, err := ParseGcsUri(name)
	if err != nil {
		return "", err
	}
	if bucket != g.bucket {
		return "", fmt.Errorf("Wrong bucket: %v != %v", bucket, g.bucket)
	}
	return obj, nil
}

// Exists checks that the object is present right now.
func (g *GCS) Exists(ctx context.Context, name string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", g.UrlForName(name), err)
	}
	return true, nil
}

// Construct a V4 signed GET URL. The URL can be used to retrieve the
// file without any authentication until it expires.
func (g *GCS) SignedURL(name string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	if g.email != "" && len(g.key) > 0 {
		// NB: This doesn't try to access Google at all, it's pure crypto
		opts.GoogleAccessID = g.email
		opts.PrivateKey = g.key
		return storage.SignedURL(g.bucket, name, opts)
	}
	// Let the client work out the signer from its credentials, on
	// Cloud Run this goes through the IAM signBlob API.
	return g.client.Bucket(g.bucket).SignedURL(name, opts)
}

// Get a ReadCloser of a GCS file.
func (g *GCS) GetReader(ctx context.Context, name string) (io.ReadCloser, error) {
	return g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
}

// ReadAll reads an entire object into memory.
func (g *GCS) ReadAll(ctx context.Context, name string) ([]byte, error) {
	r, err := g.GetReader(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", g.UrlForName(name), err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", g.UrlForName(name), err)
	}
	return data, nil
}

// List every object in the bucket in listing (name) order.
func (g *GCS) List(ctx context.Context) ([]*Object, error) {
	result := []*Object{}
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s: %w", g.bucket, err)
		}
		if strings.HasSuffix(attrs.Name, "/") { // "directory" placeholder
			continue
		}
		result = append(result, &Object{Name: attrs.Name, Updated: attrs.Updated, Size: attrs.Size})
	}
	return result, nil
}

// SortNewestFirst orders objects by Updated descending. Ties keep the
// order in which they were listed.
func SortNewestFirst(objs []*Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].Updated.After(objs[j].Updated)
	})
}

// ParseGcsUri parses a "gs://" URI into a bucket, name pair.
// Inspired by:
// https://github.com/GoogleCloudPlatform/gifinator/blob/master/internal/gcsref/gcsref.go#L37
func ParseGcsUri(uri string) (bucket, name string, err error) {
	const prefix = "gs://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("parse GCS URI %q: scheme is not %q", uri, prefix)
	}
	uri = uri[len(prefix):]
	i := strings.IndexByte(uri, '/')
	if i == -1 {
		return "", "", fmt.Errorf("parse GCS URI %q: no object name", uri)
	}
	bucket, name = uri[:i], uri[i+1:]
	return bucket, name, nil
}
