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

// Package config reads the service configuration from the process
// environment. Cloud Run (and the local docker-compose setup) pass
// everything as environment variables, so there is no config file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvAppPassword = "APP_PASSWORD"
	EnvFunctionURL = "FUNCTION_URL"
	EnvBucketName  = "BUCKET_NAME"
	EnvProjectID   = "PROJECT_ID"

	EnvPort              = "PORT"
	EnvFunctionAuth      = "FUNCTION_AUTH"
	EnvDownloadMode      = "DOWNLOAD_MODE"
	EnvSignedURLTTL      = "SIGNED_URL_TTL"
	EnvSigningEmail      = "GCS_SIGNING_EMAIL"
	EnvSigningPrivateKey = "GCS_SIGNING_PRIVATE_KEY"
	EnvDashboardTable    = "DASHBOARD_TABLE"
	EnvDashboardCacheTTL = "DASHBOARD_CACHE_TTL"
	EnvSessionSecret     = "SESSION_SECRET"
	EnvHTTPClientTimeout = "HTTP_CLIENT_TIMEOUT_SECONDS"
	EnvSlackWebhookURL   = "SLACK_WEBHOOK_URL"
	EnvSlackChannel      = "SLACK_CHANNEL"
	EnvSlackUserName     = "SLACK_USERNAME"
	EnvSlackIconEmoji    = "SLACK_ICON_EMOJI"
	EnvWeatherMapURL     = "WEATHER_MAP_URL"
	EnvForceSSL          = "FORCE_SSL"
	EnvURLPrefix         = "URL_PREFIX"
)

// Download modes.
const (
	DownloadSigned = "signed" // hand out a V4 signed URL
	DownloadStream = "stream" // read the object and serve the bytes ourselves
)

const (
	DefaultDashboardTable = "`jarrah-freshbooks.marketing_performance.campaign_performance__in_period`"
	DefaultWeatherMapURL  = "https://embed.windy.com/embed2.html?lat=39.83&lon=-98.58&zoom=4&level=surface&overlay=rain&product=ecmwf&menu=&message=&marker=&calendar=now&pressure=&type=map&location=coordinates&detail=&metricWind=mph&metricTemp=%C2%B0F&radarRange=-1"
)

// Config is everything the service needs to start.
type Config struct {
	Port string

	AppPassword string
	FunctionURL string
	BucketName  string
	ProjectID   string // blank disables the metrics dashboard

	FunctionAuth      bool          // attach an identity token when invoking FunctionURL
	HTTPClientTimeout time.Duration // 0 == no timeout

	DownloadMode      string
	SignedURLTTL      time.Duration
	SigningEmail      string
	SigningPrivateKey string

	DashboardTable    string
	DashboardCacheTTL time.Duration

	SessionSecret string
	ForceSSL      bool
	WeatherMapURL string

	SlackWebhookURL string
	SlackChannel    string
	SlackUserName   string
	SlackIconEmoji  string
	URLPrefix       string // public URL of this service, for links in Slack
}

// DashboardEnabled is true when a project to bill BigQuery jobs to is known.
func (c *Config) DashboardEnabled() bool {
	return c.ProjectID != ""
}

// MissingError lists the required variables that were unset or blank.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required env vars: %s", strings.Join(e.Keys, ", "))
}

// collectRequired reads the provided keys and returns their values
// alongside the keys that were empty or whitespace.
func collectRequired(keys []string) (map[string]string, []string) {
	missing := make([]string, 0)
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			missing = append(missing, k)
			continue
		}
		values[k] = v
	}
	return values, missing
}

// collectOptional reads optional keys, applying defaults when empty.
func collectOptional(defaults map[string]string) map[string]string {
	values := make(map[string]string, len(defaults))
	for k, def := range defaults {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			v = def
		}
		values[k] = v
	}
	return values
}

// Load reads the configuration. A *MissingError is returned when any
// of APP_PASSWORD, FUNCTION_URL or BUCKET_NAME is absent. Note that
// APP_PASSWORD is taken verbatim (no trimming) once it is known to be
// non-blank, the gate compares it exactly.
func Load() (*Config, error) {
	required, missing := collectRequired([]string{
		EnvAppPassword,
		EnvFunctionURL,
		EnvBucketName,
	})
	if len(missing) > 0 {
		return nil, &MissingError{Keys: missing}
	}

	opt := collectOptional(map[string]string{
		EnvProjectID:         "",
		EnvPort:              "8080",
		EnvFunctionAuth:      "false",
		EnvDownloadMode:      DownloadSigned,
		EnvSignedURLTTL:      "15m",
		EnvSigningEmail:      "",
		EnvDashboardTable:    DefaultDashboardTable,
		EnvDashboardCacheTTL: "1h",
		EnvSessionSecret:     "",
		EnvHTTPClientTimeout: "0",
		EnvSlackWebhookURL:   "",
		EnvSlackChannel:      "",
		EnvSlackUserName:     "extractor",
		EnvSlackIconEmoji:    ":package:",
		EnvWeatherMapURL:     DefaultWeatherMapURL,
		EnvForceSSL:          "false",
		EnvURLPrefix:         "",
	})

	functionAuth, err := strconv.ParseBool(opt[EnvFunctionAuth])
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvFunctionAuth, opt[EnvFunctionAuth], err)
	}
	forceSSL, err := strconv.ParseBool(opt[EnvForceSSL])
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvForceSSL, opt[EnvForceSSL], err)
	}

	mode := strings.ToLower(opt[EnvDownloadMode])
	if mode != DownloadSigned && mode != DownloadStream {
		return nil, fmt.Errorf("invalid %s %q: must be %q or %q", EnvDownloadMode, mode, DownloadSigned, DownloadStream)
	}

	ttl, err := parsePositiveDuration(EnvSignedURLTTL, opt[EnvSignedURLTTL])
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration(EnvDashboardCacheTTL, opt[EnvDashboardCacheTTL])
	if err != nil {
		return nil, err
	}

	if secret := opt[EnvSessionSecret]; secret != "" && len(secret) < 8 {
		return nil, fmt.Errorf("invalid %s: must be at least 8 characters", EnvSessionSecret)
	}

	timeout, err := strconv.Atoi(opt[EnvHTTPClientTimeout])
	if err != nil || timeout < 0 {
		return nil, fmt.Errorf("invalid %s %q: must be non-negative integer seconds", EnvHTTPClientTimeout, opt[EnvHTTPClientTimeout])
	}

	return &Config{
		Port:              opt[EnvPort],
		AppPassword:       os.Getenv(EnvAppPassword),
		FunctionURL:       required[EnvFunctionURL],
		BucketName:        required[EnvBucketName],
		ProjectID:         opt[EnvProjectID],
		FunctionAuth:      functionAuth,
		HTTPClientTimeout: time.Duration(timeout) * time.Second,
		DownloadMode:      mode,
		SignedURLTTL:      ttl,
		SigningEmail:      opt[EnvSigningEmail],
		// Convert literal \n sequences back into real newlines, keys
		// pasted into env vars usually arrive escaped.
		SigningPrivateKey: strings.ReplaceAll(os.Getenv(EnvSigningPrivateKey), `\n`, "\n"),
		DashboardTable:    opt[EnvDashboardTable],
		DashboardCacheTTL: cacheTTL,
		SessionSecret:     opt[EnvSessionSecret],
		ForceSSL:          forceSSL,
		WeatherMapURL:     opt[EnvWeatherMapURL],
		SlackWebhookURL:   opt[EnvSlackWebhookURL],
		SlackChannel:      opt[EnvSlackChannel],
		SlackUserName:     opt[EnvSlackUserName],
		SlackIconEmoji:    opt[EnvSlackIconEmoji],
		URLPrefix:         strings.TrimRight(opt[EnvURLPrefix], "/"),
	}, nil
}

func parsePositiveDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}
