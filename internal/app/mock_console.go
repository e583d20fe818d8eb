// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/imu"
	"github.com/relabs-tech/inertial_ahrs/internal/orientation"
	"github.com/relabs-tech/inertial_ahrs/internal/sensors"
)

// RunMockConsole runs the filter locally on the mock source and prints poses
// without a broker.
func RunMockConsole(ctx context.Context, cfg *config.Config, out io.Writer, log *zap.SugaredLogger) error {
	est, err := NewEstimator(cfg.Filter, log)
	if err != nil {
		return err
	}
	src := sensors.NewMockSource(cfg.Filter.SampleRate, sensors.MockBias)
	defer src.Close()

	return sampleLoop(ctx, cfg, src, est, func(_ imu.Sample, st ahrs.Stats) {
		fmt.Fprintln(out, formatPose(orientation.PoseFromEuler(st.Euler)))
	}, log)
}
