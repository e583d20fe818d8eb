// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/imu"
)

// MockBias is the gyro offset injected by the mock source, rad/s.
var MockBias = [3]float64{0.01, -0.02, 0.005}

// Open returns the IMU source selected by cfg.IMU.Source.
func Open(cfg *config.Config, log *zap.SugaredLogger) (imu.Source, error) {
	switch cfg.IMU.Source {
	case config.SourceMPU9250:
		return NewMPU9250Source(cfg.IMU, log)
	case config.SourceSerial:
		return OpenSerialSource(cfg.IMU, log)
	case config.SourceReplay:
		return NewReplaySource(cfg.IMU.ReplayPath, cfg.IMU.ReplayLoop)
	case config.SourceMock:
		log.Info("using mock IMU source")
		return NewMockSource(cfg.Filter.SampleRate, MockBias), nil
	default:
		return nil, fmt.Errorf("unknown IMU source %q", cfg.IMU.Source)
	}
}
