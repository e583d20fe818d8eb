// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
)

func TestLogCapacityFollowsSampleRate(t *testing.T) {
	assert.Equal(t, 10000, New(100, DefaultSeconds).Cap())
	assert.Equal(t, 3, New(1.5, 2).Cap())
}

func TestLogEvictsOldest(t *testing.T) {
	l := New(1, 3)
	for i := 1; i <= 5; i++ {
		l.Record(ahrs.Record{Gyro: r3.Vector{X: float64(i)}})
	}

	out := l.Export()
	require.Len(t, out, 4)
	assert.Equal(t, Header, out[0])
	assert.Equal(t, "3", out[1][0])
	assert.Equal(t, "5", out[3][0])
	assert.Equal(t, 3, l.Len())
}

func TestLogColumnOrder(t *testing.T) {
	l := New(10, 1)
	l.Record(ahrs.Record{
		Gyro:         r3.Vector{X: 1, Y: 2, Z: 3},
		Accel:        r3.Vector{X: 4, Y: 5, Z: 6},
		Acceleration: r3.Vector{X: 7, Y: 8, Z: 9},
		Euler:        r3.Vector{X: 10, Y: 11, Z: 12},
		Quat:         quat.Number{Real: 13, Imag: 14, Jmag: 15, Kmag: 16},
		Home:         quat.Number{Real: 17, Imag: 18, Jmag: 19, Kmag: 20},
		Zero:         quat.Number{Real: 21, Imag: 22, Jmag: 23, Kmag: 24},
	})

	out := l.Export()
	require.Len(t, out, 2)
	require.Len(t, out[1], len(Header))
	for i, v := range out[1] {
		assert.Equal(t, i+1, mustAtoi(t, v), "column %s", Header[i])
	}
}

func TestWriteCSV(t *testing.T) {
	l := New(100, 1)
	f, err := ahrs.New(ahrs.DefaultConfig(100), ahrs.WithRecorder(l))
	require.NoError(t, err)

	for i := 0; i < 150; i++ {
		require.NoError(t, f.Update(0, 0, 0.1, 0, 0, 1))
	}

	var buf bytes.Buffer
	require.NoError(t, l.WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 101)
	assert.Equal(t, "qZero Z", records[0][23])
	assert.Equal(t, "0.1", records[100][2])
	assert.Equal(t, "1", records[100][5])
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
