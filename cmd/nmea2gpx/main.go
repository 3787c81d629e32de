// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/nmea_depth/internal/app"
	"github.com/relabs-tech/nmea_depth/internal/config"
)

func main() {
	configPath := flag.String("config", "./nmea_depth.yaml", "path to configuration file")
	flag.Parse()

	log.Println("starting nmea2gpx (NMEA logs → daily GPX tracks)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunTrackGenerator(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
