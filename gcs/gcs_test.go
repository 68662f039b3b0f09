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

package gcs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortNewestFirst(t *testing.T) {
	t1 := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(-time.Hour)
	t3 := t2.Add(-time.Hour)

	objs := []*Object{
		{Name: "c.csv", Updated: t3},
		{Name: "a.csv", Updated: t1},
		{Name: "tie1.csv", Updated: t2},
		{Name: "tie2.csv", Updated: t2},
	}
	SortNewestFirst(objs)

	names := []string{}
	for _, o := range objs {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"a.csv", "tie1.csv", "tie2.csv", "c.csv"}, names)
}

func TestSortNewestFirst_Empty(t *testing.T) {
	objs := []*Object{}
	SortNewestFirst(objs)
	assert.Empty(t, objs)
}

func TestParseGcsUri(t *testing.T) {
	bucket, name, err := ParseGcsUri("gs://extracts/2024/94107.csv")
	require.NoError(t, err)
	assert.Equal(t, "extracts", bucket)
	assert.Equal(t, "2024/94107.csv", name)

	_, _, err = ParseGcsUri("s3://extracts/x.csv")
	assert.Error(t, err)

	_, _, err = ParseGcsUri("gs://extracts")
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	g := &GCS{bucket: "extracts"}

	name, err := g.ObjectName("94107.csv")
	require.NoError(t, err)
	assert.Equal(t, "94107.csv", name)

	name, err = g.ObjectName("gs://extracts/out/94107.csv")
	require.NoError(t, err)
	assert.Equal(t, "out/94107.csv", name)

	_, err = g.ObjectName("gs://elsewhere/94107.csv")
	assert.Error(t, err)
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func TestSignedURL_ExplicitKey(t *testing.T) {
	g := &GCS{
		bucket: "extracts",
		email:  "signer@proj.iam.gserviceaccount.com",
		key:    testKey(t),
	}

	s, err := g.SignedURL("out/94107.csv", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(s)
	require.NoError(t, err)
	assert.Contains(t, u.Path, "extracts")
	assert.Contains(t, u.Path, "out/94107.csv")
	q := u.Query()
	expires, err := strconv.Atoi(q.Get("X-Goog-Expires"))
	require.NoError(t, err)
	assert.InDelta(t, 900, expires, 1)
	assert.Equal(t, "GOOG4-RSA-SHA256", q.Get("X-Goog-Algorithm"))
	assert.Contains(t, q.Get("X-Goog-Credential"), "signer@proj.iam.gserviceaccount.com")
	assert.NotEmpty(t, q.Get("X-Goog-Signature"))
}

func TestUrlForName(t *testing.T) {
	g := &GCS{bucket: "extracts"}
	assert.Equal(t, "gs://extracts/x.csv", g.UrlForName("x.csv"))
}
