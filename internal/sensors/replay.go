// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/inertial_ahrs/internal/imu"
)

// Column names accepted for replay. The history export header and a plain
// lower-case header both work.
var replayColumns = [6][]string{
	{"IMU Gx", "gx"},
	{"IMU Gy", "gy"},
	{"IMU Gz", "gz"},
	{"IMU Ax", "ax"},
	{"IMU Ay", "ay"},
	{"IMU Az", "az"},
}

// ReplaySource plays back a CSV recording, one row per Next call.
type ReplaySource struct {
	file *os.File
	r    *csv.Reader
	idx  [6]int
	loop bool
	row  int
}

// NewReplaySource opens path. With loop set, playback restarts at the first
// row after the last one instead of returning io.EOF.
func NewReplaySource(path string, loop bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	s := &ReplaySource{file: f, loop: loop}
	if err := s.rewind(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *ReplaySource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("replay: rewind: %w", err)
	}
	s.r = csv.NewReader(s.file)
	s.r.FieldsPerRecord = -1
	s.row = 1

	header, err := s.r.Read()
	if err != nil {
		return fmt.Errorf("replay: header: %w", err)
	}
	for i, names := range replayColumns {
		s.idx[i] = columnIndex(header, names)
		if s.idx[i] < 0 {
			return fmt.Errorf("replay: missing column %q", names[0])
		}
	}
	return nil
}

func columnIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

// Next returns the next row, or io.EOF at the end of a non-looping recording.
func (s *ReplaySource) Next() (imu.Sample, error) {
	rec, err := s.r.Read()
	if errors.Is(err, io.EOF) && s.loop {
		if err := s.rewind(); err != nil {
			return imu.Sample{}, err
		}
		rec, err = s.r.Read()
	}
	if err != nil {
		return imu.Sample{}, err
	}
	s.row++

	var v [6]float64
	for i, col := range s.idx {
		if col >= len(rec) {
			return imu.Sample{}, fmt.Errorf("replay: row %d: short record", s.row)
		}
		v[i], err = strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if err != nil {
			return imu.Sample{}, fmt.Errorf("replay: row %d column %q: %w", s.row, replayColumns[i][0], err)
		}
	}
	return imu.Sample{
		Source: "replay",
		Time:   time.Now(),
		Gx:     v[0],
		Gy:     v[1],
		Gz:     v[2],
		Ax:     v[3],
		Ay:     v[4],
		Az:     v[5],
	}, nil
}

func (s *ReplaySource) Close() error { return s.file.Close() }
