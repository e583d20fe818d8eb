// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/imu"
)

type mpuSource struct {
	name  string
	dev   *mpu9250.MPU9250
	scale imu.Scale
	log   *zap.SugaredLogger
}

// NewMPU9250Source initializes an MPU9250 over SPI and returns a source
// reporting gyro in rad/s and accel in g.
func NewMPU9250Source(cfg config.IMUConfig, log *zap.SugaredLogger) (imu.Source, error) {
	name := cfg.SPIDevice

	scale, err := imu.NewScale(cfg.AccelRange, cfg.GyroRange)
	if err != nil {
		return nil, fmt.Errorf("IMU %s: %w", name, err)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU %s: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU %s: CS pin %q not found", name, cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU %s: SPI transport: %w", name, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU %s: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU %s: initialization: %w", name, err)
	}

	if cfg.SelfTest {
		res, err := dev.SelfTest()
		if err != nil {
			log.Warnf("IMU %s: self-test failed: %v", name, err)
		} else {
			log.Infof("IMU %s: self-test accel deviation X=%.2f%% Y=%.2f%% Z=%.2f%%, gyro deviation X=%.2f%% Y=%.2f%% Z=%.2f%%",
				name,
				res.AccelDeviation.X, res.AccelDeviation.Y, res.AccelDeviation.Z,
				res.GyroDeviation.X, res.GyroDeviation.Y, res.GyroDeviation.Z)
		}
	}

	// Calibrate resets the range registers, so ranges go after it.
	if err := dev.Calibrate(); err != nil {
		log.Warnf("IMU %s: calibration failed: %v", name, err)
	} else {
		log.Infof("IMU %s: calibration complete", name)
	}

	if err := dev.SetAccelRange(cfg.AccelRange); err != nil {
		return nil, fmt.Errorf("IMU %s: set accel range: %w", name, err)
	}
	log.Infof("IMU %s: accelerometer range set to %d (±%dg)", name, cfg.AccelRange, []int{2, 4, 8, 16}[cfg.AccelRange])

	if err := dev.SetGyroRange(cfg.GyroRange); err != nil {
		return nil, fmt.Errorf("IMU %s: set gyro range: %w", name, err)
	}
	log.Infof("IMU %s: gyroscope range set to %d (±%d°/s)", name, cfg.GyroRange, []int{250, 500, 1000, 2000}[cfg.GyroRange])

	return &mpuSource{name: name, dev: dev, scale: scale, log: log}, nil
}

// ReadRaw reads accelerometer and gyroscope counts.
func (s *mpuSource) ReadRaw() (imu.IMURaw, error) {
	ax, err := s.dev.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU %s accel X: %w", s.name, err)
	}
	ay, err := s.dev.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU %s accel Y: %w", s.name, err)
	}
	az, err := s.dev.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU %s accel Z: %w", s.name, err)
	}

	gx, err := s.dev.GetRotationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU %s gyro X: %w", s.name, err)
	}
	gy, err := s.dev.GetRotationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU %s gyro Y: %w", s.name, err)
	}
	gz, err := s.dev.GetRotationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU %s gyro Z: %w", s.name, err)
	}

	return imu.IMURaw{
		Source: "mpu9250",
		Ax:     ax,
		Ay:     ay,
		Az:     az,
		Gx:     gx,
		Gy:     gy,
		Gz:     gz,
	}, nil
}

func (s *mpuSource) Next() (imu.Sample, error) {
	raw, err := s.ReadRaw()
	if err != nil {
		return imu.Sample{}, err
	}
	return s.scale.Sample(raw, time.Now()), nil
}

func (s *mpuSource) Close() error { return nil }
