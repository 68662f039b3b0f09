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

/*

docusketch-utils is a small password protected web service in front of
two things: the zip code extraction Cloud Function and the campaign
performance table in BigQuery.

The extraction function takes a zip code, does its work and leaves a
CSV file in a Google Cloud Storage (GCS) bucket. This service calls it,
checks that the file it named is actually in the bucket and hands the
user a download link. Every file ever produced stays listed on the
History page, newest first.

The Dashboard page runs one fixed query against the campaign
performance table and shows total trials, total upgrades and total
upgrade MRR, a trend chart, a per campaign chart and the raw rows. The
result of the query is reused for an hour, so refreshing the page is
cheap. Campaigns can be filtered with a multi-select.

There is also a Weather Map page which is nothing more than an
embedded third party map.

Access

There are no users. Anyone who knows APP_PASSWORD gets in, and stays
in for as long as their session cookie lives. The cookie is signed and
encrypted with SESSION_SECRET. If SESSION_SECRET is not set, a random
one is generated at startup, which means everyone has to log in again
after a restart.

Configuration

Configuration is entirely via environment variables, which is what
Cloud Run gives you. APP_PASSWORD, FUNCTION_URL and BUCKET_NAME are
required, the service will refuse to start (and will not talk to
Google at all) if any of them is missing. The rest are optional:

  PROJECT_ID                   GCP project, the dashboard is disabled without it
  PORT                         listen port (8080)
  FUNCTION_AUTH                true to send an identity token to FUNCTION_URL
  HTTP_CLIENT_TIMEOUT_SECONDS  timeout for the function call, 0 == none
  DOWNLOAD_MODE                "signed" (default) or "stream"
  SIGNED_URL_TTL               validity of signed URLs (15m)
  GCS_SIGNING_EMAIL            service account used for signing and API access
  GCS_SIGNING_PRIVATE_KEY      its PEM key, "\n" escapes are fine
  DASHBOARD_TABLE              table read by the dashboard
  DASHBOARD_CACHE_TTL          how long a query result is reused (1h)
  SESSION_SECRET               see above
  FORCE_SSL                    redirect to https based on X-Forwarded-Proto
  WEATHER_MAP_URL              iframe source of the map page
  SLACK_WEBHOOK_URL            post a line to Slack after every extraction
  SLACK_CHANNEL, SLACK_USERNAME, SLACK_ICON_EMOJI
  URL_PREFIX                   public URL of the service, for Slack links

In "signed" mode downloads go straight to GCS via a V4 signed URL.
Without GCS_SIGNING_EMAIL and GCS_SIGNING_PRIVATE_KEY the URL is
signed via the IAM signBlob API, so the runtime service account needs
the Service Account Token Creator role on itself. In "stream" mode the
file is read by the service and sent to the browser, which only
requires read access to the bucket.

When FUNCTION_AUTH is true the runtime service account needs the Cloud
Run Invoker (or Cloud Functions Invoker) role on the function. A 403
from the function is reported as exactly that.

Running

  go build
  APP_PASSWORD=... FUNCTION_URL=... BUCKET_NAME=... ./docusketch-utils

The -listen flag overrides PORT, -logpath sends the log to a file and
-logcycle archives that file periodically.

API

The pages have JSON equivalents, useful for scripts (log in first and
keep the cookie):

  POST /api/extract     {"zip_code": "90210"}
  GET  /api/artifacts
  GET  /api/dashboard?campaign=a&campaign=b

*/
package main
