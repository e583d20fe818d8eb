// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

const fs = 100.0

func newFilter(t *testing.T, opts ...Option) *Filter {
	t.Helper()
	f, err := New(DefaultConfig(fs), opts...)
	require.NoError(t, err)
	return f
}

func feed(t *testing.T, f *Filter, n int, g, a r3.Vector) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, f.Update(g.X, g.Y, g.Z, a.X, a.Y, a.Z))
	}
}

var level = r3.Vector{Z: 1}

type recorderFunc func(Record)

func (fn recorderFunc) Record(r Record) { fn(r) }

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "negative rate", cfg: Config{SampleRate: -1}},
		{name: "window too short", cfg: Config{SampleRate: 100, BiasWindowSeconds: 0.001}},
		{name: "negative history", cfg: Config{SampleRate: 100, BiasHistory: -2}},
		{name: "negative threshold", cfg: Config{SampleRate: 100, StillGyroThreshold: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	f, err := New(Config{})
	require.NoError(t, err)
	cfg := f.Config()
	assert.Equal(t, DefaultSampleRate, cfg.SampleRate)
	assert.Equal(t, DefaultBiasHistory, cfg.BiasHistory)
	assert.Equal(t, 750, cfg.WindowSize())
}

func TestQuaternionNormStaysUnit(t *testing.T) {
	f := newFilter(t)
	for i := 0; i < 200000; i++ {
		require.NoError(t, f.Update(0, 0, 0, 0, 0, 1))
	}
	assert.InDelta(t, 1, quat.Abs(f.Orientation()), tol)

	f = newFilter(t)
	for i := 0; i < 100000; i++ {
		require.NoError(t, f.Update(0.5, -0.3, 1.2, 0.1, 0, 1))
		if i%1000 == 0 {
			require.InDelta(t, 1, quat.Abs(f.Orientation()), tol, "tick %d", i)
		}
	}
}

func TestStillnessKeepsZeroBias(t *testing.T) {
	f := newFilter(t)
	feed(t, f, 20*fs, r3.Vector{}, level)

	assertVecInDelta(t, r3.Vector{}, f.Bias(), tol)
	st := f.Stats()
	assert.Equal(t, 2, st.Gyro.BiasUpdates)
	assert.True(t, st.Gyro.Evaluated)
	assertQuatInDelta(t, Identity(), f.Orientation(), tol)
}

func TestStillnessEstimatesConstantBias(t *testing.T) {
	bias := r3.Vector{X: 0.005, Y: -0.01, Z: 0.002}
	f := newFilter(t)
	feed(t, f, 20*fs, bias, level)

	assertVecInDelta(t, bias, f.Bias(), tol)
	assert.Equal(t, 2, f.Stats().Gyro.History)

	// With the bias removed the orientation stops drifting.
	before := f.Orientation()
	feed(t, f, 5*fs, bias, level)
	assertQuatInDelta(t, before, f.Orientation(), 1e-9)
}

func TestMotionDoesNotUpdateBias(t *testing.T) {
	t.Run("rotating", func(t *testing.T) {
		f := newFilter(t)
		feed(t, f, 20*fs, r3.Vector{X: 1}, level)
		assertVecInDelta(t, r3.Vector{}, f.Bias(), 0)
		assert.Zero(t, f.Stats().Gyro.BiasUpdates)
	})

	t.Run("shaking", func(t *testing.T) {
		f := newFilter(t)
		for i := 0; i < 20*fs; i++ {
			az := 1.0
			if i%2 == 0 {
				az = 1.01
			}
			require.NoError(t, f.Update(0.001, 0, 0, 0, 0, az))
		}
		assert.Zero(t, f.Stats().Gyro.BiasUpdates)
		assert.Greater(t, f.Stats().Gyro.AccelMove, DefaultStillAccelThreshold)
	})
}

func TestRepositionLevelGivesIdentityFrames(t *testing.T) {
	f := newFilter(t)
	f.Reposition()
	require.NoError(t, f.Update(0, 0, 0, 0, 0, 1))

	home, ok := f.Home()
	require.True(t, ok)
	assertQuatInDelta(t, Identity(), home, tol)
	zero, ok := f.Zero()
	require.True(t, ok)
	assertQuatInDelta(t, Identity(), zero, tol)

	// Output equals pure integration with no frame offset.
	rate := r3.Vector{Z: math.Pi / 2}
	ref := NewIntegrator()
	for i := 0; i < fs; i++ {
		require.NoError(t, f.Update(rate.X, rate.Y, rate.Z, 0, 0, 1))
		next, err := ref.Next(rate.Mul(1 / fs))
		require.NoError(t, err)
		ref.Set(next)
	}
	assertQuatInDelta(t, ref.Quaternion(), f.Orientation(), 1e-12)
	assert.InDelta(t, math.Pi/2, f.EulerAngles().Z, 1e-3)
}

func TestRepositionRecentersCurrentPose(t *testing.T) {
	f := newFilter(t)
	feed(t, f, 50, r3.Vector{X: 0.4, Z: 1.1}, level)
	require.Greater(t, quat.Abs(quat.Sub(f.Orientation(), Identity())), 1e-3)

	f.Reposition()
	_, ok := f.Home()
	assert.False(t, ok)

	require.NoError(t, f.Update(0, 0, 0, 0, 0, 1))
	sameRotation(t, Identity(), f.Orientation(), 1e-12)
	assertVecInDelta(t, r3.Vector{}, f.EulerAngles(), 1e-9)
}

func TestRepositionCapturesMountingTilt(t *testing.T) {
	f := newFilter(t)
	// Mounted on its side: gravity along +Y.
	require.NoError(t, f.Update(0, 0, 0, 0, 2, 0))

	assertVecInDelta(t, r3.Vector{Z: 2}, f.Acceleration(), 1e-12)

	home, ok := f.Home()
	require.True(t, ok)
	assertVecInDelta(t, up, Rotate(home, r3.Vector{Y: 1}), 1e-12)

	// A device-frame rate about +Y is a rate about +Z after leveling.
	feed(t, f, fs, r3.Vector{Y: math.Pi / 4}, r3.Vector{Y: 1})
	assert.InDelta(t, math.Pi/4, f.EulerAngles().Z, 1e-3)
}

func TestDegenerateInputLeavesStateUnchanged(t *testing.T) {
	f := newFilter(t)

	err := f.Update(0, 0, 0, 0, 0, 0)
	require.ErrorIs(t, err, ErrDegenerateInput)
	st := f.Stats()
	assert.Zero(t, st.Ticks)
	assert.False(t, st.FrameReady)
	assert.Equal(t, uint64(1), st.Rejected)
	assert.Zero(t, st.Gyro.WindowLen)

	require.NoError(t, f.Update(0.1, 0, 0, 0, 0, 1))
	before := f.Orientation()
	beforeAccel := f.Acceleration()

	for _, s := range [][6]float64{
		{math.NaN(), 0, 0, 0, 0, 1},
		{0, math.Inf(-1), 0, 0, 0, 1},
		{0, 0, 0, 0, math.NaN(), 1},
	} {
		err := f.Update(s[0], s[1], s[2], s[3], s[4], s[5])
		assert.ErrorIs(t, err, ErrDegenerateInput)
	}
	assertQuatInDelta(t, before, f.Orientation(), 0)
	assertVecInDelta(t, beforeAccel, f.Acceleration(), 0)
	assert.Equal(t, uint64(1), f.Stats().Ticks)
	assert.Equal(t, uint64(4), f.Stats().Rejected)

	// A zero accel is fine once the frame is captured.
	require.NoError(t, f.Update(0, 0, 0, 0, 0, 0))
	assert.InDelta(t, 1, quat.Abs(f.Orientation()), tol)
}

func TestOverflowingSampleIsRejectedBeforeAnyChange(t *testing.T) {
	cfg := DefaultConfig(fs)
	cfg.GyroScale = 1000
	f, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, f.Update(0.01, 0, 0, 0, 0, 1))
	before := f.Stats()

	for _, s := range [][6]float64{
		{0, 0, 0, 0, 0, 1e200},
		{0, 0, 0, 1e200, 1e200, 0},
		{math.MaxFloat64, 0, 0, 0, 0, 1},
	} {
		err := f.Update(s[0], s[1], s[2], s[3], s[4], s[5])
		assert.ErrorIs(t, err, ErrDegenerateInput)
	}

	after := f.Stats()
	assert.Equal(t, before.Ticks, after.Ticks)
	assert.Equal(t, before.Rejected+3, after.Rejected)
	assert.Equal(t, before.Gyro.WindowLen, after.Gyro.WindowLen)
	assertQuatInDelta(t, before.Orientation, after.Orientation, 0)
	assertVecInDelta(t, before.Acceleration, after.Acceleration, 0)
}

func TestIntegratorNextDoesNotApply(t *testing.T) {
	in := NewIntegrator()
	q := quat.Number{Real: 0.5, Imag: 0.5, Jmag: 0.5, Kmag: 0.5}
	in.Set(q)

	next, err := in.Next(r3.Vector{Z: 0.01})
	require.NoError(t, err)
	assert.InDelta(t, 1, quat.Abs(next), tol)
	assertQuatInDelta(t, q, in.Quaternion(), 0)

	huge := r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	_, err = in.Next(huge)
	assert.ErrorIs(t, err, ErrDegenerateInput)
	assertQuatInDelta(t, q, in.Quaternion(), 0)
}

func TestSetBias(t *testing.T) {
	f := newFilter(t)
	explicit := r3.Vector{X: 0.02, Y: -0.01, Z: 0.3}
	require.NoError(t, f.SetBias(&explicit))
	assertVecInDelta(t, explicit, f.Bias(), tol)

	assert.ErrorIs(t, f.SetBias(&r3.Vector{X: math.NaN()}), ErrDegenerateInput)
	assertVecInDelta(t, explicit, f.Bias(), tol)

	f = newFilter(t)
	drift := r3.Vector{Z: 0.001}
	feed(t, f, 100, drift, level)
	require.NoError(t, f.SetBias(nil))
	assertVecInDelta(t, drift, f.Bias(), tol)
	assert.Zero(t, f.Stats().Gyro.History)
	assert.Zero(t, f.Stats().Gyro.WindowLen)

	before := f.Orientation()
	feed(t, f, 100, drift, level)
	assertQuatInDelta(t, before, f.Orientation(), 1e-12)
}

func TestSetBiasNilOnEmptyWindowKeepsBias(t *testing.T) {
	f := newFilter(t)
	require.NoError(t, f.SetBias(nil))
	assertVecInDelta(t, r3.Vector{}, f.Bias(), 0)
}

func TestRecorderReceivesEveryAcceptedTick(t *testing.T) {
	var got []Record
	f := newFilter(t, WithRecorder(recorderFunc(func(r Record) { got = append(got, r) })))

	require.Error(t, f.Update(0, 0, 0, 0, 0, 0))
	feed(t, f, 3, r3.Vector{X: 0.5}, level)

	require.Len(t, got, 3)
	last := got[2]
	assertVecInDelta(t, r3.Vector{X: 0.5}, last.Gyro, 0)
	assertVecInDelta(t, level, last.Accel, 0)
	assertQuatInDelta(t, Identity(), last.Home, tol)
	assertQuatInDelta(t, Identity(), last.Zero, tol)
	assertQuatInDelta(t, f.Orientation(), last.Quat, tol)
	assert.Greater(t, last.Euler.X, 0.0)
}
