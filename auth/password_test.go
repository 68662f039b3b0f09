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

package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	const secret = "Open Sesame"
	cases := []struct {
		candidate string
		want      bool
	}{
		{"Open Sesame", true},
		{"open sesame", false},
		{"Open Sesame ", false},
		{" Open Sesame", false},
		{"", false},
		{"Open", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Verify(c.candidate, secret), "candidate %q", c.candidate)
	}
}

func newTestProvider(t *testing.T) Provider {
	t.Helper()
	p, err := NewPassword(PasswordConfig{
		Password:     "hunter2",
		CookieSecret: "0123456789abcdef0123456789abcdef",
		LoginURL:     "/login",
		SessionName:  "sess",
		Page: func(w http.ResponseWriter, r *http.Request, status int, next, message string) {
			w.WriteHeader(status)
			fmt.Fprintf(w, "login next=%s msg=%s", next, message)
		},
	})
	require.NoError(t, err)
	return p
}

func postLogin(h http.Handler, password, next string) *httptest.ResponseRecorder {
	form := url.Values{"password": {password}, "next": {next}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func protected() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "verified=%v", Verified(r))
	})
}

func TestRequireLogin_RedirectsWithoutSession(t *testing.T) {
	p := newTestProvider(t)

	rec := httptest.NewRecorder()
	p.RequireLogin(protected()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?x=1", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fhistory%3Fx%3D1", rec.Header().Get("Location"))
}

func TestRequireLogin_APIUnauthorized(t *testing.T) {
	p := newTestProvider(t)

	rec := httptest.NewRecorder()
	p.RequireLogin(protected()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/artifacts", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "password required")
}

func TestLogin_WrongPassword(t *testing.T) {
	p := newTestProvider(t)

	rec := postLogin(p.Login(), "Hunter2", "/extract")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "msg=Incorrect password.")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_SessionPersists(t *testing.T) {
	p := newTestProvider(t)

	rec := postLogin(p.Login(), "hunter2", "/extract")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/extract", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Subsequent requests skip the check entirely.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/extract", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec = httptest.NewRecorder()
		p.RequireLogin(protected()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "verified=true", rec.Body.String())
	}
}

func TestLogin_OffsiteNextRedirectsHome(t *testing.T) {
	p := newTestProvider(t)

	for _, next := range []string{"/\\evil.example/phish", "//evil.example", "https://evil.example"} {
		rec := postLogin(p.Login(), "hunter2", next)
		assert.Equal(t, http.StatusFound, rec.Code, next)
		assert.Equal(t, "/", rec.Header().Get("Location"), next)
	}
}

func TestLogin_GetShowsForm(t *testing.T) {
	p := newTestProvider(t)

	rec := httptest.NewRecorder()
	p.Login().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?next=/map", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login next=/map msg=", rec.Body.String())
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/", safeNext(""))
	assert.Equal(t, "/", safeNext("https://evil.example.com"))
	assert.Equal(t, "/", safeNext("//evil.example.com"))
	assert.Equal(t, "/", safeNext("/\\evil.example.com/phish"))
	assert.Equal(t, "/", safeNext("/\t/evil.example.com"))
	assert.Equal(t, "/map?x=1", safeNext("/map?x=1"))
	assert.Equal(t, "/history", safeNext("/history"))
}
