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

// Package slack contains code to post notifications to a Slack
// incoming web hook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Config struct {
	Url       string // Slack web hook URL
	UserName  string // Can be anything
	Channel   string // The channel we are posting to
	IconEmoji string // Emoji, e.g. ":package:"
	UrlPrefix string // The URL of this service for clickable links
}

// See https://api.slack.com/reference/messaging/payload
type Payload struct {
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Notifier sends messages according to its Config. A Notifier without
// a web hook URL silently drops everything.
type Notifier struct {
	cfg    Config
	client *http.Client
}

func NewNotifier(cfg Config, client *http.Client) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Notifier{cfg: cfg, client: client}
}

// Enabled is true if a web hook is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.cfg.Url != ""
}

// Notify posts msg. Any "{URL_PREFIX}" in msg is replaced with the
// configured prefix.
func (n *Notifier) Notify(ctx context.Context, msg string) error {
	if !n.Enabled() {
		return nil
	}
	payload := Payload{
		Text:      strings.Replace(msg, "{URL_PREFIX}", n.cfg.UrlPrefix, -1),
		Username:  n.cfg.UserName,
		Channel:   n.cfg.Channel,
		IconEmoji: n.cfg.IconEmoji,
	}
	return n.send(ctx, payload)
}

func (n *Notifier) send(ctx context.Context, payload Payload) error {
	js, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.cfg.Url, bytes.NewBuffer(js))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) // Ignore error

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Error sending slack msg. Status: %v", resp.Status)
	}
	return nil
}
