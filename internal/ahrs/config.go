// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"fmt"
	"math"
)

// Defaults for the filter tunables. The stillness thresholds were tuned for a
// 100 Hz MPU-class sensor and need re-tuning for other hardware.
const (
	DefaultSampleRate          = 100.0
	DefaultGyroScale           = 1.0
	DefaultBiasWindowSeconds   = 7.5
	DefaultBiasHistory         = 5
	DefaultStillAccelThreshold = 0.3
	DefaultStillGyroThreshold  = 0.2
)

// Config holds the fixed parameters of a Filter.
type Config struct {
	// SampleRate is the fixed update rate in Hz.
	SampleRate float64
	// GyroScale converts raw gyro readings into rad/s.
	GyroScale float64
	// BiasWindowSeconds is the length of the stillness window.
	BiasWindowSeconds float64
	// BiasHistory is how many accepted bias observations are averaged.
	BiasHistory int
	// StillAccelThreshold bounds the accumulated deviation of |a| over the window.
	StillAccelThreshold float64
	// StillGyroThreshold bounds the accumulated absolute per-tick rate over the window.
	StillGyroThreshold float64
}

// DefaultConfig returns the default tuning at the given sample rate.
func DefaultConfig(sampleRate float64) Config {
	return Config{
		SampleRate:          sampleRate,
		GyroScale:           DefaultGyroScale,
		BiasWindowSeconds:   DefaultBiasWindowSeconds,
		BiasHistory:         DefaultBiasHistory,
		StillAccelThreshold: DefaultStillAccelThreshold,
		StillGyroThreshold:  DefaultStillGyroThreshold,
	}
}

// withDefaults fills zero-valued fields. A zero threshold would never detect
// stillness, so it is treated as unset too.
func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.GyroScale == 0 {
		c.GyroScale = DefaultGyroScale
	}
	if c.BiasWindowSeconds == 0 {
		c.BiasWindowSeconds = DefaultBiasWindowSeconds
	}
	if c.BiasHistory == 0 {
		c.BiasHistory = DefaultBiasHistory
	}
	if c.StillAccelThreshold == 0 {
		c.StillAccelThreshold = DefaultStillAccelThreshold
	}
	if c.StillGyroThreshold == 0 {
		c.StillGyroThreshold = DefaultStillGyroThreshold
	}
	return c
}

func (c Config) validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidConfig, c.SampleRate)
	}
	if c.BiasWindowSeconds < 0 {
		return fmt.Errorf("%w: bias window must be positive, got %v", ErrInvalidConfig, c.BiasWindowSeconds)
	}
	if c.WindowSize() < 1 {
		return fmt.Errorf("%w: bias window of %vs at %v Hz holds no samples", ErrInvalidConfig, c.BiasWindowSeconds, c.SampleRate)
	}
	if c.BiasHistory < 1 {
		return fmt.Errorf("%w: bias history must be at least 1, got %d", ErrInvalidConfig, c.BiasHistory)
	}
	if c.StillAccelThreshold < 0 || c.StillGyroThreshold < 0 {
		return fmt.Errorf("%w: stillness thresholds must not be negative", ErrInvalidConfig)
	}
	return nil
}

// WindowSize is the stillness window capacity in samples.
func (c Config) WindowSize() int {
	return int(math.Round(c.SampleRate * c.BiasWindowSeconds))
}
