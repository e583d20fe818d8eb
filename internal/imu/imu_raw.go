// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"math"
	"time"
)

// IMURaw represents a single raw 6-axis sample in sensor counts.
type IMURaw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Sample is a 6-axis reading in physical units: gyro in rad/s, accel in g.
type Sample struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`

	Gx float64 `json:"gx"`
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`

	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`
}

// Source is anything that yields samples over time: hardware, a serial
// stream, a recording or a generator.
type Source interface {
	Next() (Sample, error)
	Close() error
}

// Full-scale sensitivities of MPU-class sensors indexed by range setting.
var (
	accelLSBPerG   = [4]float64{16384, 8192, 4096, 2048}
	gyroLSBPerDegS = [4]float64{131, 65.5, 32.8, 16.4}
)

// Scale converts counts to physical units for one range setting.
type Scale struct {
	AccelLSB float64 // counts per g
	GyroLSB  float64 // counts per °/s
}

// NewScale returns the scale for accel range 0-3 (±2g..±16g) and gyro
// range 0-3 (±250..±2000 °/s).
func NewScale(accelRange, gyroRange byte) (Scale, error) {
	if accelRange > 3 {
		return Scale{}, fmt.Errorf("accel range %d out of 0-3", accelRange)
	}
	if gyroRange > 3 {
		return Scale{}, fmt.Errorf("gyro range %d out of 0-3", gyroRange)
	}
	return Scale{
		AccelLSB: accelLSBPerG[accelRange],
		GyroLSB:  gyroLSBPerDegS[gyroRange],
	}, nil
}

// Sample converts r using s.
func (s Scale) Sample(r IMURaw, t time.Time) Sample {
	g := math.Pi / 180 / s.GyroLSB
	return Sample{
		Source: r.Source,
		Time:   t,
		Gx:     float64(r.Gx) * g,
		Gy:     float64(r.Gy) * g,
		Gz:     float64(r.Gz) * g,
		Ax:     float64(r.Ax) / s.AccelLSB,
		Ay:     float64(r.Ay) / s.AccelLSB,
		Az:     float64(r.Az) / s.AccelLSB,
	}
}
