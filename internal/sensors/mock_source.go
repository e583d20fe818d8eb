// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/inertial_ahrs/internal/imu"
)

const (
	mockCycle    = 20.0 // seconds, first half still, second half moving
	mockRollAmp  = 20 * math.Pi / 180
	mockPitchAmp = 15 * math.Pi / 180
	mockYawRate  = 30 * math.Pi / 180
)

type mockSource struct {
	fs   float64
	n    int
	bias [3]float64
}

// NewMockSource creates a synthetic source that alternates ten seconds at
// rest with ten seconds of smooth rolling, pitching and yawing. The gyro
// carries a constant bias (rad/s) so the offset estimator has work to do.
func NewMockSource(sampleRate float64, bias [3]float64) imu.Source {
	return &mockSource{fs: sampleRate, bias: bias}
}

func (m *mockSource) Next() (imu.Sample, error) {
	t := float64(m.n) / m.fs
	m.n++

	var roll, pitch, dRoll, dPitch, dYaw float64
	if c := math.Mod(t, mockCycle); c >= mockCycle/2 {
		w := 2 * math.Pi / (mockCycle / 2)
		p := c - mockCycle/2
		roll = mockRollAmp * math.Sin(w*p)
		pitch = mockPitchAmp * math.Sin(2*w*p)
		dRoll = mockRollAmp * w * math.Cos(w*p)
		dPitch = mockPitchAmp * 2 * w * math.Cos(2*w*p)
		dYaw = mockYawRate * math.Sin(w*p/2)
	}

	// Euler rates stand in for body rates; close enough at these angles.
	return imu.Sample{
		Source: "mock",
		Time:   time.Now(),
		Gx:     dRoll + m.bias[0],
		Gy:     dPitch + m.bias[1],
		Gz:     dYaw + m.bias[2],
		Ax:     -math.Sin(pitch),
		Ay:     math.Sin(roll) * math.Cos(pitch),
		Az:     math.Cos(roll) * math.Cos(pitch),
	}, nil
}

func (m *mockSource) Close() error { return nil }
