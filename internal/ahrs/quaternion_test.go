// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

const tol = 1e-9

func randomUnit(t *testing.T, rng *rand.Rand) quat.Number {
	t.Helper()
	q, err := Normalize(quat.Number{
		Real: rng.NormFloat64(),
		Imag: rng.NormFloat64(),
		Jmag: rng.NormFloat64(),
		Kmag: rng.NormFloat64(),
	})
	require.NoError(t, err)
	return q
}

func assertQuatInDelta(t *testing.T, want, got quat.Number, delta float64) {
	t.Helper()
	assert.InDelta(t, want.Real, got.Real, delta, "w")
	assert.InDelta(t, want.Imag, got.Imag, delta, "x")
	assert.InDelta(t, want.Jmag, got.Jmag, delta, "y")
	assert.InDelta(t, want.Kmag, got.Kmag, delta, "z")
}

func assertVecInDelta(t *testing.T, want, got r3.Vector, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

// sameRotation compares up to the q / -q ambiguity.
func sameRotation(t *testing.T, want, got quat.Number, delta float64) {
	t.Helper()
	dot := want.Real*got.Real + want.Imag*got.Imag + want.Jmag*got.Jmag + want.Kmag*got.Kmag
	if dot < 0 {
		got = quat.Scale(-1, got)
	}
	assertQuatInDelta(t, want, got, delta)
}

func TestProductAssociativeNotCommutative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		q, p, r := randomUnit(t, rng), randomUnit(t, rng), randomUnit(t, rng)
		assertQuatInDelta(t, quat.Mul(quat.Mul(q, p), r), quat.Mul(q, quat.Mul(p, r)), tol)
	}

	q := FromEuler(r3.Vector{X: 0.3})
	p := FromEuler(r3.Vector{Y: 0.4})
	qp, pq := quat.Mul(q, p), quat.Mul(p, q)
	diff := quat.Abs(quat.Sub(qp, pq))
	assert.Greater(t, diff, 1e-3)
}

func TestRotateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		q := randomUnit(t, rng)
		v := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		back := Rotate(quat.Conj(q), Rotate(q, v))
		assertVecInDelta(t, v, back, 1e-9)
	}
}

func TestNormalizeRejectsZero(t *testing.T) {
	_, err := Normalize(quat.Number{})
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Normalize(quat.Number{Real: math.NaN()})
	assert.ErrorIs(t, err, ErrDegenerateInput)

	q, err := Normalize(quat.Number{Real: 2})
	require.NoError(t, err)
	assertQuatInDelta(t, Identity(), q, tol)
}

func TestEulerRoundTrip(t *testing.T) {
	angles := []float64{-2.8, -1.2, -0.4, 0, 0.5, 1.3, 3.0}
	pitches := []float64{-1.3, -0.6, 0, 0.2, 1.1}
	for _, roll := range angles {
		for _, pitch := range pitches {
			for _, yaw := range angles {
				e := r3.Vector{X: roll, Y: pitch, Z: yaw}
				q := FromEuler(e)
				assert.InDelta(t, 1, quat.Abs(q), tol)
				assertVecInDelta(t, e, ToEuler(q), 1e-9)
				sameRotation(t, q, FromEuler(ToEuler(q)), 1e-9)
			}
		}
	}
}

func TestEulerSingleAxis(t *testing.T) {
	// Half-angle quaternion about +Z.
	yaw := math.Pi / 3
	q := quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
	assertVecInDelta(t, r3.Vector{Z: yaw}, ToEuler(q), tol)
}

func TestFromGravity(t *testing.T) {
	tests := []struct {
		name string
		g    r3.Vector
	}{
		{name: "level", g: r3.Vector{Z: 1}},
		{name: "scaled level", g: r3.Vector{Z: 9.81}},
		{name: "on side", g: r3.Vector{Y: 1}},
		{name: "tilted", g: r3.Vector{X: 0.3, Y: -0.2, Z: 0.9}},
		{name: "upside down", g: r3.Vector{Z: -1}},
		{name: "nearly upside down", g: r3.Vector{X: 1e-3, Z: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := FromGravity(tt.g)
			require.NoError(t, err)
			assert.InDelta(t, 1, quat.Abs(q), tol)
			assertVecInDelta(t, up, Rotate(q, tt.g.Normalize()), 1e-9)
		})
	}
}

func TestFromGravityParallelIsIdentity(t *testing.T) {
	q, err := FromGravity(r3.Vector{Z: 1})
	require.NoError(t, err)
	assertQuatInDelta(t, Identity(), q, tol)
}

func TestFromGravityRejectsDegenerate(t *testing.T) {
	for _, g := range []r3.Vector{{}, {X: math.NaN(), Z: 1}, {Z: math.Inf(1)}} {
		_, err := FromGravity(g)
		assert.ErrorIs(t, err, ErrDegenerateInput, "g=%v", g)
	}
}
