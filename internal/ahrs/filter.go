// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"fmt"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
)

// Record is the per-tick tuple handed to a Recorder.
type Record struct {
	Gyro         r3.Vector   // raw gyro
	Accel        r3.Vector   // raw accel
	Acceleration r3.Vector   // accel in the reference frame
	Euler        r3.Vector   // roll, pitch, yaw of home*q, radians
	Quat         quat.Number // integrated orientation
	Home         quat.Number
	Zero         quat.Number
}

// Recorder receives one Record per accepted tick.
type Recorder interface {
	Record(Record)
}

// Option configures a Filter.
type Option func(*Filter)

// WithRecorder attaches a per-tick history collaborator.
func WithRecorder(r Recorder) Option {
	return func(f *Filter) { f.rec = r }
}

// WithLogger sets the logger used for calibration events.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}

// Filter is the attitude estimator state.
type Filter struct {
	cfg Config

	bias  *BiasEstimator
	integ *Integrator
	frame ReferenceFrame
	accel r3.Vector

	ticks    uint64
	rejected uint64

	rec Recorder
	log *zap.SugaredLogger
}

// New creates a Filter. Zero-valued Config fields take their defaults.
func New(cfg Config, opts ...Option) (*Filter, error) {
	f := &Filter{log: zap.NewNop().Sugar()}
	for _, o := range opts {
		o(f)
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ahrs: %w", err)
	}
	f.cfg = cfg

	bias, err := NewBiasEstimator(cfg, f.log)
	if err != nil {
		return nil, fmt.Errorf("ahrs: %w", err)
	}
	f.bias = bias
	f.integ = NewIntegrator()
	f.accel = up
	return f, nil
}

// Config returns the effective configuration.
func (f *Filter) Config() Config { return f.cfg }

// Update runs one tick with raw gyro (gx, gy, gz) and accel (ax, ay, az).
//
// The tick is checked in full before anything is committed: non-finite or
// overflowing samples, a zero accel while the reference frame still has to
// be captured, and an orientation that cannot be renormalized are rejected
// with ErrDegenerateInput and leave the filter unchanged apart from the
// rejected count.
func (f *Filter) Update(gx, gy, gz, ax, ay, az float64) error {
	g := r3.Vector{X: gx, Y: gy, Z: gz}
	a := r3.Vector{X: ax, Y: ay, Z: az}

	if err := f.bias.check(g, a); err != nil {
		f.rejected++
		return fmt.Errorf("ahrs: update: sample: %w", err)
	}

	frame := f.frame
	captured, err := frame.Ensure(f.integ.Quaternion(), a)
	if err != nil {
		f.rejected++
		return fmt.Errorf("ahrs: update: gravity reference: %w", err)
	}

	next, err := f.integ.Next(frame.ToReference(f.bias.corrected(g)))
	if err != nil {
		f.rejected++
		return fmt.Errorf("ahrs: update: integrate: %w", err)
	}

	f.bias.Update(g, a)
	f.frame = frame
	f.integ.Set(next)
	if captured {
		home, _ := f.frame.Home()
		f.log.Infow("ahrs: reference frame captured",
			"gravity", a,
			"home", home,
		)
	}

	q := f.integ.Quaternion()
	f.accel = Rotate(q, f.frame.ToReference(a))
	f.ticks++

	if f.rec != nil {
		f.rec.Record(Record{
			Gyro:         g,
			Accel:        a,
			Acceleration: f.accel,
			Euler:        ToEuler(quat.Mul(f.frame.homeOrIdentity(), q)),
			Quat:         q,
			Home:         f.frame.homeOrIdentity(),
			Zero:         f.frame.zeroOrIdentity(),
		})
	}
	return nil
}

// Orientation returns the integrated orientation composed with the zero frame.
func (f *Filter) Orientation() quat.Number {
	return quat.Mul(f.integ.Quaternion(), f.frame.zeroOrIdentity())
}

// EulerAngles returns roll, pitch, yaw in radians of the zero-relative
// orientation.
func (f *Filter) EulerAngles() r3.Vector {
	return ToEuler(quat.Mul(f.frame.zeroOrIdentity(), f.integ.Quaternion()))
}

// Acceleration returns the last acceleration rotated into the reference frame.
func (f *Filter) Acceleration() r3.Vector { return f.accel }

// Reposition schedules a new home and zero capture on the next tick. The
// device should be still and level at that moment.
func (f *Filter) Reposition() {
	f.frame.Reposition()
	f.log.Infow("ahrs: reposition requested")
}

// SetBias sets the gyro bias in rad/s, or with nil zeroes the gyro at its
// current window average.
func (f *Filter) SetBias(explicit *r3.Vector) error {
	if err := f.bias.SetBias(explicit); err != nil {
		return fmt.Errorf("ahrs: set bias: %w", err)
	}
	return nil
}

// Bias returns the gyro bias estimate in rad/s.
func (f *Filter) Bias() r3.Vector { return f.bias.Bias() }

// Home returns the home reference, if captured.
func (f *Filter) Home() (quat.Number, bool) { return f.frame.Home() }

// Zero returns the zero reference, if captured.
func (f *Filter) Zero() (quat.Number, bool) { return f.frame.Zero() }

// Stats is an immutable snapshot of the filter for diagnostics.
type Stats struct {
	Ticks        uint64      `json:"ticks"`
	Rejected     uint64      `json:"rejected"`
	FrameReady   bool        `json:"frame_ready"`
	Orientation  quat.Number `json:"orientation"`
	Euler        r3.Vector   `json:"euler"`
	Acceleration r3.Vector   `json:"acceleration"`
	Gyro         BiasStats   `json:"gyro"`
}

// Stats copies the current state.
func (f *Filter) Stats() Stats {
	return Stats{
		Ticks:        f.ticks,
		Rejected:     f.rejected,
		FrameReady:   f.frame.Ready(),
		Orientation:  f.Orientation(),
		Euler:        f.EulerAngles(),
		Acceleration: f.accel,
		Gyro:         f.bias.Stats(),
	}
}
