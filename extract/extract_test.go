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

package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]string) {
	t.Helper()
	got := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestInvoke_Success(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"filename":"x.csv","message":"done"}`)
	inv, err := NewInvoker(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)

	res, err := inv.Invoke(context.Background(), "94107")

	require.NoError(t, err)
	assert.Equal(t, "94107", (*got)["zip_code"])
	assert.Equal(t, "x.csv", res.Filename)
	assert.Equal(t, "done", res.Message)
}

func TestInvoke_MissingFilename(t *testing.T) {
	for _, body := range []string{`{"message":"accepted"}`, `queued`, ``} {
		srv, _ := newServer(t, http.StatusOK, body)
		inv := NewInvokerWithClient(srv.URL, srv.Client())

		res, err := inv.Invoke(context.Background(), "10001")

		require.NoError(t, err, "body %q", body)
		assert.Empty(t, res.Filename)
		assert.Equal(t, body, res.Raw)
	}
}

func TestInvoke_Forbidden(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden, "Forbidden")
	inv := NewInvokerWithClient(srv.URL, srv.Client())

	res, err := inv.Invoke(context.Background(), "10001")

	assert.Nil(t, res)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.PermissionDenied())
	assert.Contains(t, err.Error(), "permission denied")
	assert.Contains(t, err.Error(), "Invoker")
}

func TestInvoke_OtherStatus(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, "boom")
	inv := NewInvokerWithClient(srv.URL, srv.Client())

	_, err := inv.Invoke(context.Background(), "10001")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.False(t, se.PermissionDenied())
	assert.Equal(t, "extraction failed with status 500: boom", err.Error())
	assert.NotContains(t, err.Error(), "permission denied")
}

func TestInvoke_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	inv, err := NewInvoker(context.Background(), Config{URL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), "10001")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling extraction function")
}
