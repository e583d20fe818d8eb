// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package diag runs the periodic diagnostic report over filter snapshots.
package diag

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
)

// DefaultInterval is the report period used when none is configured.
const DefaultInterval = 2 * time.Second

// Board holds the latest filter snapshot. The update loop publishes to it
// and readers never touch the filter itself.
type Board struct {
	mu    sync.RWMutex
	stats ahrs.Stats
	at    time.Time
	set   bool
}

// NewBoard returns an empty Board.
func NewBoard() *Board { return &Board{} }

// Publish stores s as the latest snapshot.
func (b *Board) Publish(s ahrs.Stats) {
	b.mu.Lock()
	b.stats = s
	b.at = time.Now()
	b.set = true
	b.mu.Unlock()
}

// Snapshot returns the latest snapshot and whether one was published.
func (b *Board) Snapshot() (ahrs.Stats, time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats, b.at, b.set
}

// Report is one diagnostic observation.
type Report struct {
	Time      time.Time `json:"time"`
	Ticks     uint64    `json:"ticks"`
	Rejected  uint64    `json:"rejected"`
	TickRate  float64   `json:"tick_rate"` // ticks per second since the previous report
	MeanRateX float64   `json:"mean_rate_x"`
	MeanRateY float64   `json:"mean_rate_y"`
	MeanRateZ float64   `json:"mean_rate_z"`
	BiasX     float64   `json:"bias_x"`
	BiasY     float64   `json:"bias_y"`
	BiasZ     float64   `json:"bias_z"`
	AccelMove float64   `json:"a_move"`
	GyroMove  float64   `json:"g_move"`
	Evaluated bool      `json:"evaluated"`
	Updates   int       `json:"bias_updates"`
}

// Sink consumes reports.
type Sink func(Report)

// NewReport builds a Report from a snapshot. prev is the previous report, if
// any, and is used for the tick rate.
func NewReport(now time.Time, s ahrs.Stats, prev *Report) Report {
	r := Report{
		Time:      now,
		Ticks:     s.Ticks,
		Rejected:  s.Rejected,
		MeanRateX: s.Gyro.MeanRate.X,
		MeanRateY: s.Gyro.MeanRate.Y,
		MeanRateZ: s.Gyro.MeanRate.Z,
		BiasX:     s.Gyro.Bias.X,
		BiasY:     s.Gyro.Bias.Y,
		BiasZ:     s.Gyro.Bias.Z,
		AccelMove: s.Gyro.AccelMove,
		GyroMove:  s.Gyro.GyroMove,
		Evaluated: s.Gyro.Evaluated,
		Updates:   s.Gyro.BiasUpdates,
	}
	if prev != nil && s.Ticks >= prev.Ticks {
		if dt := now.Sub(prev.Time).Seconds(); dt > 0 {
			r.TickRate = float64(s.Ticks-prev.Ticks) / dt
		}
	}
	return r
}

// Run reports every interval until ctx is done. Ticks before the first
// snapshot is published are skipped.
func Run(ctx context.Context, board *Board, interval time.Duration, sinks ...Sink) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	var prev *Report
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s, _, ok := board.Snapshot()
			if !ok {
				continue
			}
			r := NewReport(now, s, prev)
			for _, sink := range sinks {
				sink(r)
			}
			prev = &r
		}
	}
}

// LogSink writes reports to log.
func LogSink(log *zap.SugaredLogger) Sink {
	return func(r Report) {
		log.Infow("diag: filter",
			"ticks", r.Ticks,
			"tick_rate", r.TickRate,
			"mean_rate", []float64{r.MeanRateX, r.MeanRateY, r.MeanRateZ},
			"bias", []float64{r.BiasX, r.BiasY, r.BiasZ},
			"a_move", r.AccelMove,
			"g_move", r.GyroMove,
			"rejected", r.Rejected,
		)
	}
}
