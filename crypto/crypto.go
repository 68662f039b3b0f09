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

// Key material for the session cookie.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gorilla/securecookie"
)

// Generates a 32-byte secure random token.
func GenerateToken() ([]byte, error) {
	token := securecookie.GenerateRandomKey(32)
	if token == nil {
		return nil, fmt.Errorf("unable to read random bytes")
	}
	return token, nil
}

// NewSecret returns a random hex encoded secret, used when no session
// secret is configured. Sessions then do not survive a restart.
func NewSecret() (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

// SessionKeys derives the securecookie hash (HMAC) and block (AES-256)
// keys from secret. The two keys are never equal.
func SessionKeys(secret string) (hashKey, blockKey []byte, err error) {
	if len(secret) < 8 {
		return nil, nil, fmt.Errorf("secret too short")
	}
	h := sha256.Sum256([]byte("hash:" + secret))
	b := sha256.Sum256([]byte("block:" + secret))
	return h[:], b[:], nil
}
