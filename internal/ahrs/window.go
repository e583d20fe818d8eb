// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"

	"github.com/relabs-tech/inertial_ahrs/internal/ring"
)

// vecWindow is a sliding window of vectors with running totals.
// The totals are rebuilt from the contents once per capacity pushes so that
// add/subtract rounding cannot accumulate without bound.
type vecWindow struct {
	buf    *ring.Buffer[r3.Vector]
	sum    r3.Vector
	absSum float64
	pushes int
}

func newVecWindow(capacity int) *vecWindow {
	return &vecWindow{buf: ring.New[r3.Vector](capacity)}
}

// Push adds v and reports whether the oldest sample was evicted.
func (w *vecWindow) Push(v r3.Vector) bool {
	old, evicted := w.buf.Push(v)
	w.sum = w.sum.Add(v)
	w.absSum += absSum(v)
	if evicted {
		w.sum = w.sum.Sub(old)
		w.absSum -= absSum(old)
	}
	w.pushes++
	if w.pushes >= w.buf.Cap() {
		w.resync()
	}
	return evicted
}

func (w *vecWindow) resync() {
	w.pushes = 0
	w.sum = r3.Vector{}
	w.absSum = 0
	w.buf.Do(func(v r3.Vector) {
		w.sum = w.sum.Add(v)
		w.absSum += absSum(v)
	})
}

func (w *vecWindow) Len() int   { return w.buf.Len() }
func (w *vecWindow) Cap() int   { return w.buf.Cap() }
func (w *vecWindow) Full() bool { return w.buf.Full() }

func (w *vecWindow) Reset() {
	w.buf.Reset()
	w.resync()
}

func (w *vecWindow) Mean() (r3.Vector, error) {
	if w.buf.Len() == 0 {
		return r3.Vector{}, ErrEmptyWindow
	}
	return w.sum.Mul(1 / float64(w.buf.Len())), nil
}

// AbsSum is the sum of |x|+|y|+|z| over the window.
func (w *vecWindow) AbsSum() float64 {
	return math.Max(0, w.absSum)
}

// MeanAbsDeviation is the per-axis sum of |v - mean| over the window.
func (w *vecWindow) MeanAbsDeviation() (r3.Vector, error) {
	mean, err := w.Mean()
	if err != nil {
		return r3.Vector{}, err
	}
	var dev r3.Vector
	w.buf.Do(func(v r3.Vector) {
		dev = dev.Add(v.Sub(mean).Abs())
	})
	return dev, nil
}

func absSum(v r3.Vector) float64 {
	return math.Abs(v.X) + math.Abs(v.Y) + math.Abs(v.Z)
}

// scalarWindow is the float64 counterpart of vecWindow.
type scalarWindow struct {
	buf    *ring.Buffer[float64]
	sum    float64
	pushes int
}

func newScalarWindow(capacity int) *scalarWindow {
	return &scalarWindow{buf: ring.New[float64](capacity)}
}

func (w *scalarWindow) Push(v float64) bool {
	old, evicted := w.buf.Push(v)
	w.sum += v
	if evicted {
		w.sum -= old
	}
	w.pushes++
	if w.pushes >= w.buf.Cap() {
		w.pushes = 0
		w.sum = floats.Sum(w.buf.Slice())
	}
	return evicted
}

func (w *scalarWindow) Len() int   { return w.buf.Len() }
func (w *scalarWindow) Cap() int   { return w.buf.Cap() }
func (w *scalarWindow) Full() bool { return w.buf.Full() }

func (w *scalarWindow) Reset() {
	w.buf.Reset()
	w.sum = 0
	w.pushes = 0
}

func (w *scalarWindow) Mean() (float64, error) {
	if w.buf.Len() == 0 {
		return 0, ErrEmptyWindow
	}
	return w.sum / float64(w.buf.Len()), nil
}

// MeanAbsDeviation is the sum of |x - mean| over the window.
func (w *scalarWindow) MeanAbsDeviation() (float64, error) {
	mean, err := w.Mean()
	if err != nil {
		return 0, err
	}
	var dev float64
	w.buf.Do(func(v float64) {
		dev += math.Abs(v - mean)
	})
	return dev, nil
}
