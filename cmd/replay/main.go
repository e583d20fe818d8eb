// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command replay runs the filter offline over a CSV recording and writes the
// resulting history export.
package main

import (
	"flag"
	"os"

	"github.com/relabs-tech/inertial_ahrs/internal/app"
	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/logging"
	"github.com/relabs-tech/inertial_ahrs/internal/sensors"
)

func main() {
	configPath := flag.String("config", "", "optional configuration file for filter tunables")
	in := flag.String("in", "", "CSV recording with gx,gy,gz,ax,ay,az columns")
	out := flag.String("out", "ahrs_history.csv", "history CSV to write")
	rate := flag.Float64("rate", 0, "sample rate in Hz, overrides the configuration")
	flag.Parse()

	log := logging.Must("info")
	defer log.Sync()

	if *in == "" {
		log.Fatal("-in is required")
	}

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *rate > 0 {
		cfg.Filter.SampleRate = *rate
	}

	src, err := sensors.NewReplaySource(*in, false)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	defer src.Close()

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	defer f.Close()

	samples, rejected, err := app.RunReplay(cfg.Filter, src, f, log)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Infof("replayed %d samples (%d rejected) into %s", samples, rejected, *out)
}
