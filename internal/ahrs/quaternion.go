// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// minNorm is the smallest vector or quaternion length we will divide by.
const minNorm = 1e-12

// up is the canonical gravity reference axis.
var up = r3.Vector{X: 0, Y: 0, Z: 1}

// Identity returns the no-rotation quaternion.
func Identity() quat.Number {
	return quat.Number{Real: 1}
}

func pure(v r3.Vector) quat.Number {
	return quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
}

func vector(q quat.Number) r3.Vector {
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// Rotate returns v rotated by q, computed as q (0,v) q*.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	return vector(quat.Mul(quat.Mul(q, pure(v)), quat.Conj(q)))
}

// Normalize scales q to unit norm. A zero or non-finite q is rejected.
func Normalize(q quat.Number) (quat.Number, error) {
	n := quat.Abs(q)
	if !(n > minNorm) || math.IsInf(n, 0) {
		return q, ErrDegenerateInput
	}
	return quat.Scale(1/n, q), nil
}

func finite(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func unit(v r3.Vector) (r3.Vector, error) {
	n := v.Norm()
	if !(n > minNorm) || math.IsInf(n, 0) {
		return v, ErrDegenerateInput
	}
	return v.Mul(1 / n), nil
}

// ToEuler converts q to roll, pitch, yaw (X, Y, Z) in radians using the
// Z->Y->X rotation order. Pitch is clamped at +/-90 degrees where roll and
// yaw become coupled.
func ToEuler(q quat.Number) r3.Vector {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	s := 2 * (w*y - x*z)
	s = math.Max(-1, math.Min(1, s))
	return r3.Vector{
		X: math.Atan2(2*(w*x+y*z), 2*(w*w+z*z)-1),
		Y: math.Asin(s),
		Z: math.Atan2(2*(w*z+x*y), 2*(w*w+x*x)-1),
	}
}

// FromEuler builds the quaternion for roll, pitch, yaw (X, Y, Z) applied in
// Z->Y->X order. It inverts ToEuler away from the pitch singularity.
func FromEuler(e r3.Vector) quat.Number {
	cr, sr := math.Cos(e.X/2), math.Sin(e.X/2)
	cp, sp := math.Cos(e.Y/2), math.Sin(e.Y/2)
	cy, sy := math.Cos(e.Z/2), math.Sin(e.Z/2)
	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// FromGravity returns the minimal rotation taking the measured gravity
// direction onto +Z.
//
// When gravity already points along +Z the result is the identity. When it
// points along -Z the rotation axis is undefined and a half turn about +X is
// used instead.
func FromGravity(g r3.Vector) (quat.Number, error) {
	if !finite(g) {
		return quat.Number{}, ErrDegenerateInput
	}
	m, err := unit(g)
	if err != nil {
		return quat.Number{}, err
	}

	cos := math.Max(-1, math.Min(1, m.Dot(up)))
	axis, err := unit(m.Cross(up))
	if err != nil {
		if cos > 0 {
			return Identity(), nil
		}
		return quat.Number{Imag: 1}, nil
	}

	half := math.Acos(cos) / 2
	s := math.Sin(half)
	return quat.Number{
		Real: math.Cos(half),
		Imag: axis.X * s,
		Jmag: axis.Y * s,
		Kmag: axis.Z * s,
	}, nil
}
