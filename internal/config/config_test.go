// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
mqtt:
  broker: tcp://localhost:1883
imu:
  source: mock
`))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "inertial/pose", cfg.Topics.Pose)
	assert.Equal(t, "inertial/cmd", cfg.Topics.Command)
	assert.Equal(t, ahrs.DefaultSampleRate, cfg.Filter.SampleRate)
	assert.Equal(t, 100.0, cfg.Filter.HistorySeconds)
	assert.Equal(t, 10*time.Millisecond, cfg.Filter.SampleInterval())
	assert.Equal(t, 2*time.Second, cfg.Diag.Interval)
	assert.Equal(t, "attitude", cfg.Display.Content)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.MQTT.PublishInterval)
}

func TestParseFilterTunables(t *testing.T) {
	cfg, err := Parse([]byte(`
mqtt:
  broker: tcp://localhost:1883
imu:
  source: serial
  serial_port: /dev/ttyUSB0
  baud_rate: 57600
filter:
  sample_rate: 200
  gyro_scale: 0.0174533
  bias_window_seconds: 5
  bias_history: 3
  still_accel_threshold: 0.5
  still_gyro_threshold: 0.1
diag:
  interval: 500ms
`))
	require.NoError(t, err)

	a := cfg.Filter.AHRS()
	assert.Equal(t, 200.0, a.SampleRate)
	assert.Equal(t, 3, a.BiasHistory)
	assert.Equal(t, 0.5, a.StillAccelThreshold)
	assert.Equal(t, 1000, a.WindowSize())
	assert.Equal(t, uint(57600), cfg.IMU.BaudRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Diag.Interval)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing broker", "imu:\n  source: mock\n"},
		{"unknown source", "mqtt:\n  broker: x\nimu:\n  source: can\n"},
		{"spi without device", "mqtt:\n  broker: x\n"},
		{"serial without port", "mqtt:\n  broker: x\nimu:\n  source: serial\n"},
		{"replay without path", "mqtt:\n  broker: x\nimu:\n  source: replay\n"},
		{"accel range", "mqtt:\n  broker: x\nimu:\n  source: mock\n  accel_range: 4\n"},
		{"negative history", "mqtt:\n  broker: x\nimu:\n  source: mock\nfilter:\n  bias_history: -1\n"},
		{"bad content", "mqtt:\n  broker: x\nimu:\n  source: mock\ndisplay:\n  content: gps\n"},
		{"bad yaml", "mqtt: [\n"},
		{"log level", "log_level: loud\nmqtt:\n  broker: x\nimu:\n  source: mock\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFilterValidationWrapsSentinel(t *testing.T) {
	_, err := Parse([]byte("mqtt:\n  broker: x\nimu:\n  source: mock\nfilter:\n  bias_window_seconds: -2\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ahrs.ErrInvalidConfig))
}

func TestLoadAndGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inertial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  broker: tcp://b:1883\nimu:\n  source: mock\n"), 0o644))

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, "tcp://b:1883", Get().MQTT.Broker)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, SourceMock, cfg.IMU.Source)
	assert.Equal(t, ahrs.DefaultSampleRate, cfg.Filter.SampleRate)
	assert.Equal(t, "inertial/state", cfg.Topics.State)
}
