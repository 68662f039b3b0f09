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

package auth

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/sessions"
	"github.com/jarrah-analytics/docusketch-utils/crypto"
)

// LoginPage renders the password form with the given status. Message
// is blank unless the previous attempt failed.
type LoginPage func(w http.ResponseWriter, r *http.Request, status int, next, message string)

type passwordProvider struct {
	secret          string
	store           *sessions.CookieStore
	sessionName     string
	sessionVerified string
	loginURL        string
	page            LoginPage
}

type PasswordConfig struct {
	Password     string // the one shared secret
	CookieSecret string // signs and encrypts the session cookie
	LoginURL     string
	SessionName  string
	Page         LoginPage
}

// Return a Provider gating on a single shared password. The session
// is stored in an encrypted cookie using gorilla/securecookie.
func NewPassword(cfg PasswordConfig) (Provider, error) {
	hashKey, blockKey, err := crypto.SessionKeys(cfg.CookieSecret)
	if err != nil {
		return nil, fmt.Errorf("session keys: %w", err)
	}
	return &passwordProvider{
		secret:          cfg.Password,
		store:           sessions.NewCookieStore(hashKey, blockKey),
		sessionName:     cfg.SessionName,
		sessionVerified: "verified",
		loginURL:        cfg.LoginURL,
		page:            cfg.Page,
	}, nil
}

func (p *passwordProvider) Login() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next := safeNext(r.FormValue("next"))

		if r.Method != http.MethodPost {
			if p.isVerified(r) {
				http.Redirect(w, r, next, http.StatusFound)
				return
			}
			p.page(w, r, http.StatusOK, next, "")
			return
		}

		if !Verify(r.PostFormValue("password"), p.secret) {
			// NB: Resist the temptation to log the candidate!
			log.Printf("Login: incorrect password from %s", r.RemoteAddr)
			p.page(w, r, http.StatusUnauthorized, next, "Incorrect password.")
			return
		}

		session := p.store.New(p.sessionName)
		session.Values[p.sessionVerified] = true
		if err := session.Save(w); err != nil {
			log.Printf("Login: session save error: %v", err)
			http.Error(w, "This is an error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, next, http.StatusFound)
	})
}

func (p *passwordProvider) RequireLogin(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.isVerified(r) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"password required"}`))
				return
			}
			http.Redirect(w, r, p.loginURL+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		h.ServeHTTP(w, SetVerified(r))
	})
}

// isVerified returns true if the request carries a valid session
// cookie with the verified flag set.
func (p *passwordProvider) isVerified(r *http.Request) bool {
	if sess, err := p.store.Get(r, p.sessionName); err == nil {
		ok, _ := sess.Values[p.sessionVerified].(bool)
		return ok
	}
	return false
}

// safeNext only allows local redirects. Browsers read a backslash as
// a slash, so "/\\host" is treated like "//host".
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(strings.ReplaceAll(next, "\\", "/")); err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
