// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/imu"
)

// RunReplay feeds every sample from src through a fresh filter as fast as
// possible and writes the retained history to out as CSV.
func RunReplay(cfg config.FilterConfig, src imu.Source, out io.Writer, log *zap.SugaredLogger) (int, int, error) {
	est, err := NewEstimator(cfg, log)
	if err != nil {
		return 0, 0, err
	}

	var samples, rejected int
	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return samples, rejected, fmt.Errorf("replay: sample %d: %w", samples+1, err)
		}
		samples++
		if _, err := est.Step(s); err != nil {
			rejected++
			log.Debugf("replay: sample %d rejected: %v", samples, err)
		}
	}

	st, _, _ := est.Board().Snapshot()
	log.Infow("replay: done",
		"samples", samples,
		"rejected", rejected,
		"bias_updates", st.Gyro.BiasUpdates,
		"bias", st.Gyro.Bias,
		"history_rows", est.History().Len(),
	)

	if err := est.History().WriteCSV(out); err != nil {
		return samples, rejected, err
	}
	return samples, rejected, nil
}
