// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/nmea_depth/internal/app"
	"github.com/relabs-tech/nmea_depth/internal/config"
)

func main() {
	configPath := flag.String("config", "./nmea_depth.yaml", "path to configuration file")
	flag.Parse()

	log.Println("starting NMEA logger (serial → log file, MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunNMEALogger(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
