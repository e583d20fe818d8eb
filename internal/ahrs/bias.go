// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"math"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/ring"
)

// BiasEstimator removes gyro bias and re-estimates it whenever a full window
// of samples looks like the device was at rest.
//
// Rates are handled internally in radians per tick (rad/s divided by the
// sample rate); Bias and SetBias use rad/s.
type BiasEstimator struct {
	fs    float64
	scale float64

	accelThreshold float64
	gyroThreshold  float64

	rate    *vecWindow
	mag     *scalarWindow
	history *ring.Buffer[r3.Vector]

	bias  r3.Vector // rad per tick
	rateT r3.Vector // latest corrected rate, rad per tick
	accel r3.Vector // latest raw accel

	aMove     float64
	gMove     float64
	evaluated bool
	updates   int

	log *zap.SugaredLogger
}

// NewBiasEstimator builds an estimator from cfg. Zero-valued fields take defaults.
func NewBiasEstimator(cfg Config, log *zap.SugaredLogger) (*BiasEstimator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	n := cfg.WindowSize()
	return &BiasEstimator{
		fs:             cfg.SampleRate,
		scale:          cfg.GyroScale,
		accelThreshold: cfg.StillAccelThreshold,
		gyroThreshold:  cfg.StillGyroThreshold,
		rate:           newVecWindow(n),
		mag:            newScalarWindow(n),
		history:        ring.New[r3.Vector](cfg.BiasHistory),
		log:            log,
	}, nil
}

// Update consumes one raw sample and returns the bias-corrected rate in
// radians per tick. updated reports whether the bias estimate changed.
func (b *BiasEstimator) Update(gyro, accel r3.Vector) (rate r3.Vector, updated bool) {
	rate = b.corrected(gyro)
	b.rateT = rate
	b.accel = accel

	b.rate.Push(rate)
	b.mag.Push(accel.Norm())

	if !b.rate.Full() {
		return rate, false
	}

	aMove, err := b.mag.MeanAbsDeviation()
	if err != nil {
		return rate, false
	}
	b.aMove = aMove
	b.gMove = b.rate.AbsSum()
	b.evaluated = true

	if !(b.aMove < b.accelThreshold && b.gMove < b.gyroThreshold) {
		return rate, false
	}

	mean, err := b.rate.Mean()
	if err != nil {
		return rate, false
	}
	b.history.Push(b.bias.Add(mean))
	b.bias = b.historyMean()
	b.rate.Reset()
	b.updates++

	b.log.Infow("ahrs: gyro offset updated",
		"bias_rad_s", b.Bias(),
		"a_move", b.aMove,
		"g_move", b.gMove,
	)
	return rate, true
}

func (b *BiasEstimator) corrected(gyro r3.Vector) r3.Vector {
	return gyro.Mul(b.scale / b.fs).Sub(b.bias)
}

// check rejects a raw sample that would put Inf or NaN into the windows.
func (b *BiasEstimator) check(gyro, accel r3.Vector) error {
	if !finite(gyro) || !finite(accel) || math.IsInf(accel.Norm(), 0) {
		return ErrDegenerateInput
	}
	if !finite(b.corrected(gyro)) {
		return ErrDegenerateInput
	}
	return nil
}

func (b *BiasEstimator) historyMean() r3.Vector {
	var sum r3.Vector
	b.history.Do(func(v r3.Vector) { sum = sum.Add(v) })
	return sum.Mul(1 / float64(b.history.Len()))
}

// SetBias replaces the bias estimate. With a nil explicit value the mean of
// the current window is folded into the existing bias, which zeroes the gyro
// at its present reading. The bias history and the rate window are cleared
// in both cases.
func (b *BiasEstimator) SetBias(explicit *r3.Vector) error {
	if explicit != nil {
		if !finite(*explicit) {
			return ErrDegenerateInput
		}
		b.bias = explicit.Mul(1 / b.fs)
	} else if mean, err := b.rate.Mean(); err == nil {
		b.bias = b.bias.Add(mean)
	}
	b.history.Reset()
	b.rate.Reset()
	b.log.Infow("ahrs: gyro offset set", "bias_rad_s", b.Bias(), "explicit", explicit != nil)
	return nil
}

// Bias returns the current estimate in rad/s.
func (b *BiasEstimator) Bias() r3.Vector {
	return b.bias.Mul(b.fs)
}

// Rate returns the latest bias-corrected rate in radians per tick.
func (b *BiasEstimator) Rate() r3.Vector { return b.rateT }

// Accel returns the latest raw acceleration.
func (b *BiasEstimator) Accel() r3.Vector { return b.accel }

// BiasStats is a copy of the stillness bookkeeping.
type BiasStats struct {
	Bias        r3.Vector `json:"bias"`      // rad/s
	MeanRate    r3.Vector `json:"mean_rate"` // rad/s over the current window
	AccelMove   float64   `json:"a_move"`
	GyroMove    float64   `json:"g_move"`
	Evaluated   bool      `json:"evaluated"`
	WindowLen   int       `json:"window_len"`
	WindowCap   int       `json:"window_cap"`
	History     int       `json:"history"`
	BiasUpdates int       `json:"bias_updates"`
}

// Stats returns the estimator bookkeeping. AccelMove and GyroMove are from
// the last evaluated full window and stay zero until Evaluated is set.
func (b *BiasEstimator) Stats() BiasStats {
	s := BiasStats{
		Bias:        b.Bias(),
		AccelMove:   b.aMove,
		GyroMove:    b.gMove,
		Evaluated:   b.evaluated,
		WindowLen:   b.rate.Len(),
		WindowCap:   b.rate.Cap(),
		History:     b.history.Len(),
		BiasUpdates: b.updates,
	}
	if mean, err := b.rate.Mean(); err == nil {
		s.MeanRate = mean.Mul(b.fs)
	}
	return s
}
