// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/inertial_ahrs/internal/app"
	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/logging"
)

func main() {
	configPath := flag.String("config", "inertial.yaml", "path to the configuration file")
	flag.Parse()

	boot := logging.Must("")
	if err := config.InitGlobal(*configPath); err != nil {
		boot.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	log := logging.Must(cfg.LogLevel)
	defer log.Sync()

	log.Infof("starting inertial AHRS producer (IMU source %s, %.0f Hz)", cfg.IMU.Source, cfg.Filter.SampleRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunProducer(ctx, cfg, log); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
