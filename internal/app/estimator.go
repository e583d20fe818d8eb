// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/diag"
	"github.com/relabs-tech/inertial_ahrs/internal/history"
	"github.com/relabs-tech/inertial_ahrs/internal/imu"
	"github.com/relabs-tech/inertial_ahrs/internal/orientation"
)

// Estimator serializes access to the filter. The sample loop and command
// handlers share one mutex; readers go through the diag board instead.
type Estimator struct {
	mu     sync.Mutex
	filter *ahrs.Filter
	hist   *history.Log
	board  *diag.Board
	log    *zap.SugaredLogger
}

// NewEstimator builds the filter with its history log attached.
func NewEstimator(cfg config.FilterConfig, log *zap.SugaredLogger) (*Estimator, error) {
	ac := cfg.AHRS()
	hist := history.New(cfg.SampleRate, cfg.HistorySeconds)
	f, err := ahrs.New(ac, ahrs.WithRecorder(hist), ahrs.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &Estimator{
		filter: f,
		hist:   hist,
		board:  diag.NewBoard(),
		log:    log,
	}, nil
}

// Step feeds one sample and publishes the resulting snapshot.
func (e *Estimator) Step(s imu.Sample) (ahrs.Stats, error) {
	e.mu.Lock()
	err := e.filter.Update(s.Gx, s.Gy, s.Gz, s.Ax, s.Ay, s.Az)
	st := e.filter.Stats()
	e.mu.Unlock()

	e.board.Publish(st)
	return st, err
}

// Handle applies a command. For export it returns the history as CSV.
func (e *Estimator) Handle(cmd orientation.Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	switch cmd.Action {
	case orientation.ActionReposition:
		e.mu.Lock()
		e.filter.Reposition()
		e.mu.Unlock()
		e.log.Info("producer: reference frame reset")

	case orientation.ActionSetBias:
		var err error
		e.mu.Lock()
		if cmd.Bias != nil {
			v := cmd.Bias.Vector()
			err = e.filter.SetBias(&v)
		} else {
			err = e.filter.SetBias(nil)
		}
		e.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("set bias: %w", err)
		}

	case orientation.ActionExport:
		var buf bytes.Buffer
		if err := e.hist.WriteCSV(&buf); err != nil {
			return nil, err
		}
		e.log.Infof("producer: exported %d history rows", e.hist.Len())
		return buf.Bytes(), nil
	}
	return nil, nil
}

// Board returns the snapshot board fed by Step.
func (e *Estimator) Board() *diag.Board { return e.board }

// History returns the per-tick log.
func (e *Estimator) History() *history.Log { return e.hist }
