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

// Package auth provides the shared-password gate in front of the UI.
//
// There is exactly one secret and no notion of users. A correct
// password sets a flag in an encrypted cookie session, after which the
// gate is skipped for the life of that session.
package auth

import (
	"context"
	"net/http"
)

type verifiedType string

const verifiedKey = verifiedType("verified")

// Provider implements the handlers necessary for gating the UI.
type Provider interface {
	Login() http.Handler
	RequireLogin(h http.Handler) http.Handler
}

// Verify reports whether candidate is the configured secret. This is a
// plain, case-sensitive comparison with no trimming.
func Verify(candidate, secret string) bool {
	return candidate == secret
}

// Record in the request Context that the password was verified.
func SetVerified(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), verifiedKey, true))
}

// Verified returns true if RequireLogin let this request through.
func Verified(r *http.Request) bool {
	ok, _ := r.Context().Value(verifiedKey).(bool)
	return ok
}
