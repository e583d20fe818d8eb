// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation defines the messages exchanged between the producer
// and its subscribers.
package orientation

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
)

// Pose is the canonical representation of orientation for your app, in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// PoseFromEuler converts roll, pitch, yaw in radians.
func PoseFromEuler(e r3.Vector) Pose {
	return Pose{
		Roll:  e.X * 180 / math.Pi,
		Pitch: e.Y * 180 / math.Pi,
		Yaw:   e.Z * 180 / math.Pi,
	}
}

// Quat is a wire-friendly quaternion.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func quatFrom(q quat.Number) Quat {
	return Quat{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// Vec is a wire-friendly 3-vector.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func vecFrom(v r3.Vector) Vec { return Vec{X: v.X, Y: v.Y, Z: v.Z} }

// Vector returns v as an r3.Vector.
func (v Vec) Vector() r3.Vector { return r3.Vector{X: v.X, Y: v.Y, Z: v.Z} }

// State is the full filter output published every tick.
type State struct {
	Time         time.Time `json:"time"`
	Pose         Pose      `json:"pose"`
	Orientation  Quat      `json:"orientation"`
	Acceleration Vec       `json:"acceleration"` // reference frame, g
	Bias         Vec       `json:"bias"`         // rad/s
	FrameReady   bool      `json:"frame_ready"`
	Ticks        uint64    `json:"ticks"`
}

// StateFrom builds a State from a filter snapshot.
func StateFrom(t time.Time, s ahrs.Stats) State {
	return State{
		Time:         t,
		Pose:         PoseFromEuler(s.Euler),
		Orientation:  quatFrom(s.Orientation),
		Acceleration: vecFrom(s.Acceleration),
		Bias:         vecFrom(s.Gyro.Bias),
		FrameReady:   s.FrameReady,
		Ticks:        s.Ticks,
	}
}

// Command actions.
const (
	ActionReposition = "reposition"
	ActionSetBias    = "set_bias"
	ActionExport     = "export"
)

// Command is a control request sent to the producer.
type Command struct {
	Action string `json:"action"`
	// Bias is the explicit gyro offset in rad/s for set_bias. When nil the
	// current window mean is used.
	Bias *Vec `json:"bias,omitempty"`
}

// Validate checks the action name.
func (c Command) Validate() error {
	switch c.Action {
	case ActionReposition, ActionSetBias, ActionExport:
		return nil
	default:
		return fmt.Errorf("unknown command %q", c.Action)
	}
}
