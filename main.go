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

package main

import (
	"flag"
	"log"
	"net"
	"os"

	"github.com/jarrah-analytics/docusketch-utils/config"
	"github.com/jarrah-analytics/docusketch-utils/daemon"
)

func processFlags() *daemon.Config {
	cfg := &daemon.Config{}

	flag.StringVar(&cfg.ListenSpec, "listen", "", "HTTP listen spec, default is :$PORT")

	flag.StringVar(&cfg.LogPath, "logpath", "", "Log path, empty = stderr")
	flag.IntVar(&cfg.LogCycleSeconds, "logcycle", 0, "Cycle log file interval in seconds, 0 == never")

	flag.Parse()

	return cfg
}

func main() {
	cfg := processFlags()

	// Nothing is started, and nothing goes over the network, unless
	// the environment is complete.
	app, err := config.Load()
	if err != nil {
		log.Printf("Configuration error: %v", err)
		os.Exit(1)
	}
	cfg.App = app

	if cfg.ListenSpec == "" {
		cfg.ListenSpec = net.JoinHostPort("", app.Port)
	}

	if err := daemon.Run(cfg); err != nil {
		log.Printf("Error in main(): %v", err)
		os.Exit(1)
	}
}
