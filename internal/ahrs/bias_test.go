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
)

func TestBiasEstimatorThresholdsAreConfigurable(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.BiasWindowSeconds = 1
	cfg.StillGyroThreshold = 100

	b, err := NewBiasEstimator(cfg, nil)
	require.NoError(t, err)

	var updated bool
	for i := 0; i < 10; i++ {
		_, updated = b.Update(r3.Vector{Y: 2}, level)
	}
	require.True(t, updated, "a full window under the threshold must update the bias")
	assertVecInDelta(t, r3.Vector{Y: 2}, b.Bias(), tol)
}

func TestBiasEstimatorHistoryIsBounded(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.BiasWindowSeconds = 1
	cfg.BiasHistory = 2

	b, err := NewBiasEstimator(cfg, nil)
	require.NoError(t, err)

	// Each window sees a different residual so the history mean moves.
	for _, g := range []float64{0.1, 0.2, 0.25} {
		for i := 0; i < 10; i++ {
			b.Update(r3.Vector{X: g}, level)
		}
	}
	st := b.Stats()
	assert.Equal(t, 3, st.BiasUpdates)
	assert.Equal(t, 2, st.History)
	assert.Zero(t, st.WindowLen)
	assert.Equal(t, 10, st.WindowCap)
}

func TestBiasEstimatorCorrectedRate(t *testing.T) {
	cfg := DefaultConfig(50)
	cfg.GyroScale = 2
	b, err := NewBiasEstimator(cfg, nil)
	require.NoError(t, err)

	explicit := r3.Vector{X: 1}
	require.NoError(t, b.SetBias(&explicit))

	rate, updated := b.Update(r3.Vector{X: 1, Z: 5}, level)
	assert.False(t, updated)
	// (raw * scale - bias) / fs
	assertVecInDelta(t, r3.Vector{X: 1.0 / 50, Z: 10.0 / 50}, rate, tol)
	assertVecInDelta(t, rate, b.Rate(), 0)
	assertVecInDelta(t, level, b.Accel(), 0)

	st := b.Stats()
	assert.False(t, st.Evaluated)
	assertVecInDelta(t, r3.Vector{X: 1, Z: 10}, st.MeanRate, tol)
}

func TestBiasEstimatorUnusableScoreIsNotStill(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.BiasWindowSeconds = 1

	b, err := NewBiasEstimator(cfg, nil)
	require.NoError(t, err)

	gyro := r3.Vector{X: 0.05}
	for i := 0; i < 9; i++ {
		_, updated := b.Update(gyro, level)
		require.False(t, updated)
	}
	// |a| overflows to +Inf, which turns a_move into NaN.
	_, updated := b.Update(gyro, r3.Vector{Z: 1e200})
	assert.False(t, updated)

	st := b.Stats()
	assert.True(t, st.Evaluated)
	assert.True(t, math.IsNaN(st.AccelMove))
	assert.Zero(t, st.BiasUpdates)
	assert.Equal(t, 10, st.WindowLen)
	assertVecInDelta(t, r3.Vector{}, b.Bias(), 0)
}
