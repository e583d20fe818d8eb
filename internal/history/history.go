// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package history keeps the most recent filter ticks for export and plotting.
package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
	"github.com/relabs-tech/inertial_ahrs/internal/ring"
)

// DefaultSeconds is how much history is retained by default.
const DefaultSeconds = 100.0

// Header names the exported columns.
var Header = []string{
	"IMU Gx", "IMU Gy", "IMU Gz",
	"IMU Ax", "IMU Ay", "IMU Az",
	"Acc X", "Acc Y", "Acc Z",
	"Euler X", "Euler Y", "Euler Z",
	"Quat W", "Quat X", "Quat Y", "Quat Z",
	"qHome W", "qHome X", "qHome Y", "qHome Z",
	"qZero W", "qZero X", "qZero Y", "qZero Z",
}

type row [24]float64

// Log is a fixed-capacity FIFO of per-tick records. It implements
// ahrs.Recorder and is safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	rows *ring.Buffer[row]
}

// New returns a Log holding round(sampleRate * seconds) ticks.
func New(sampleRate, seconds float64) *Log {
	n := int(math.Round(sampleRate * seconds))
	return &Log{rows: ring.New[row](n)}
}

// Record appends one tick, evicting the oldest when full.
func (l *Log) Record(r ahrs.Record) {
	v := row{
		r.Gyro.X, r.Gyro.Y, r.Gyro.Z,
		r.Accel.X, r.Accel.Y, r.Accel.Z,
		r.Acceleration.X, r.Acceleration.Y, r.Acceleration.Z,
		r.Euler.X, r.Euler.Y, r.Euler.Z,
		r.Quat.Real, r.Quat.Imag, r.Quat.Jmag, r.Quat.Kmag,
		r.Home.Real, r.Home.Imag, r.Home.Jmag, r.Home.Kmag,
		r.Zero.Real, r.Zero.Imag, r.Zero.Jmag, r.Zero.Kmag,
	}
	l.mu.Lock()
	l.rows.Push(v)
	l.mu.Unlock()
}

// Len returns the number of retained ticks.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows.Len()
}

// Cap returns the maximum number of retained ticks.
func (l *Log) Cap() int { return l.rows.Cap() }

// Export returns the header followed by one row per retained tick, oldest first.
func (l *Log) Export() [][]string {
	l.mu.Lock()
	rows := l.rows.Slice()
	l.mu.Unlock()

	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string(nil), Header...))
	for _, r := range rows {
		rec := make([]string, len(r))
		for i, v := range r {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		out = append(out, rec)
	}
	return out
}

// WriteCSV writes Export as CSV.
func (l *Log) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(l.Export()); err != nil {
		return fmt.Errorf("history: write csv: %w", err)
	}
	return nil
}
