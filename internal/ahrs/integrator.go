// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Integrator propagates the orientation quaternion from angular rate.
type Integrator struct {
	q quat.Number
}

// NewIntegrator starts at the identity orientation.
func NewIntegrator() *Integrator {
	return &Integrator{q: Identity()}
}

// Next returns the result of one explicit Euler step q + 0.5 q (0,w),
// renormalized, without applying it. w is in radians per tick, so the time
// step is implicitly one tick.
func (in *Integrator) Next(w r3.Vector) (quat.Number, error) {
	if !finite(w) {
		return in.q, ErrDegenerateInput
	}
	qDot := quat.Mul(in.q, pure(w))
	return Normalize(quat.Add(in.q, quat.Scale(0.5, qDot)))
}

// Set replaces the orientation with q, normally a value returned by Next.
func (in *Integrator) Set(q quat.Number) { in.q = q }

// Quaternion returns the integrated orientation relative to home.
func (in *Integrator) Quaternion() quat.Number { return in.q }
