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

// Package daemon is responsible for all aspects of running as a
// service. The correct start and stop sequence, initiation and take
// down of all components/packages, as well as logging.
package daemon

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jarrah-analytics/docusketch-utils/bq"
	"github.com/jarrah-analytics/docusketch-utils/config"
	"github.com/jarrah-analytics/docusketch-utils/crypto"
	"github.com/jarrah-analytics/docusketch-utils/extract"
	"github.com/jarrah-analytics/docusketch-utils/gcs"
	"github.com/jarrah-analytics/docusketch-utils/model"
	"github.com/jarrah-analytics/docusketch-utils/slack"
	"github.com/jarrah-analytics/docusketch-utils/ui"
)

type Config struct {
	ListenSpec      string
	LogPath         string // log location
	LogCycleSeconds int    // logs rotated every, 0 == never

	App *config.Config
}

const shutdownTimeout = 30 * time.Second

func Run(cfg *Config) error {

	lw := setLog(cfg.LogPath, time.Duration(cfg.LogCycleSeconds)*time.Second)
	defer lw.Close()

	app := cfg.App
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gc, err := gcs.NewGCS(ctx, &gcs.Config{
		Bucket: app.BucketName,
		Email:  app.SigningEmail,
		Key:    app.SigningPrivateKey,
	})
	if err != nil {
		log.Printf("Error: %v", err)
		return err
	}
	defer gc.Close()

	// A nil *bq.BigQuery must not end up in a non-nil interface.
	var wh model.Warehouse
	if app.DashboardEnabled() {
		b, err := bq.NewBigQuery(ctx, &bq.Config{
			ProjectId: app.ProjectID,
			Email:     app.SigningEmail,
			Key:       app.SigningPrivateKey,
		})
		if err != nil {
			log.Printf("Error: %v", err)
			return err
		}
		wh = b
		log.Printf("Dashboard queries run in project %s.", b.ProjectId())
	} else {
		log.Printf("No %s set, dashboard disabled.", config.EnvProjectID)
	}

	inv, err := extract.NewInvoker(ctx, extract.Config{
		URL:           app.FunctionURL,
		Authenticated: app.FunctionAuth,
		Timeout:       app.HTTPClientTimeout,
	})
	if err != nil {
		log.Printf("Error: %v", err)
		return err
	}

	var notifier model.Notifier
	if app.SlackWebhookURL != "" {
		notifier = slack.NewNotifier(slack.Config{
			Url:       app.SlackWebhookURL,
			UserName:  app.SlackUserName,
			Channel:   app.SlackChannel,
			IconEmoji: app.SlackIconEmoji,
			UrlPrefix: app.URLPrefix,
		}, nil)
	} else {
		log.Printf("No Slack web hook configured, notifications disabled.")
	}

	secret := app.SessionSecret
	if secret == "" {
		if secret, err = crypto.NewSecret(); err != nil {
			log.Printf("Error: %v", err)
			return err
		}
		log.Printf("No %s set, sessions will not survive a restart.", config.EnvSessionSecret)
	}

	m := model.New(model.Config{
		DownloadMode:      app.DownloadMode,
		SignedURLTTL:      app.SignedURLTTL,
		DashboardTable:    app.DashboardTable,
		DashboardCacheTTL: app.DashboardCacheTTL,
	}, gc, inv, wh, notifier) // It does stuff

	log.Printf("Starting, HTTP on: %s (bucket gs://%s, download mode %s)", cfg.ListenSpec, gc.Bucket(), app.DownloadMode)
	l, err := net.Listen("tcp", cfg.ListenSpec)
	if err != nil {
		log.Printf("Error: %v", err)
		return err
	}

	server, err := ui.Start(ui.Config{
		AppPassword:   app.AppPassword,
		SessionSecret: secret,
		ForceSSL:      app.ForceSSL,
		WeatherMapURL: app.WeatherMapURL,
	}, m, l)
	if err != nil {
		l.Close()
		log.Printf("Error: %v", err)
		return err
	}

	waitForSignal()

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	log.Printf("Waiting for pending requests to finish...")
	if err := server.Shutdown(sctx); err != nil {
		log.Printf("Shutdown: %v", err)
		return err
	}
	log.Printf("HTTP server stopped.")
	return nil
}

func waitForSignal() {
	// Wait for a SIGINT or SIGTERM.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Printf("Got signal: %v", s)
}
