// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ahrs fuses gyroscope and accelerometer samples into an orientation
// quaternion, tracks gyro bias from stillness windows and manages the home
// (mounting tilt) and zero (user re-center) reference frames.
//
// A Filter is driven by one Update call per sample at a fixed rate. It is not
// safe for concurrent use; hosts must confine it to one goroutine or guard it
// with a single mutex.
package ahrs

import "errors"

var (
	// ErrDegenerateInput is returned when an input cannot be used without
	// producing NaN: non-finite samples, zero-length vectors or quaternions.
	// The filter state is left unchanged.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrEmptyWindow is returned by window queries with no samples.
	ErrEmptyWindow = errors.New("empty window")

	// ErrInvalidConfig is returned by New for unusable parameters.
	ErrInvalidConfig = errors.New("invalid config")
)
