// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
	"github.com/relabs-tech/inertial_ahrs/internal/history"
)

// IMU source types.
const (
	SourceMPU9250 = "mpu9250"
	SourceSerial  = "serial"
	SourceReplay  = "replay"
	SourceMock    = "mock"
)

// Config holds all application configuration values.
type Config struct {
	LogLevel string `yaml:"log_level"`

	MQTT    MQTTConfig    `yaml:"mqtt"`
	Topics  TopicsConfig  `yaml:"topics"`
	Filter  FilterConfig  `yaml:"filter"`
	IMU     IMUConfig     `yaml:"imu"`
	Web     WebConfig     `yaml:"web"`
	Display DisplayConfig `yaml:"display"`
	Diag    DiagConfig    `yaml:"diag"`
}

type MQTTConfig struct {
	Broker           string `yaml:"broker"`
	ClientIDProducer string `yaml:"client_id_producer"`
	ClientIDConsole  string `yaml:"client_id_console"`
	ClientIDWeb      string `yaml:"client_id_web"`
	ClientIDDisplay  string `yaml:"client_id_display"`

	// PublishInterval throttles pose, state and raw IMU messages.
	PublishInterval time.Duration `yaml:"publish_interval"`
}

type TopicsConfig struct {
	Pose    string `yaml:"pose"`    // roll/pitch/yaw in degrees
	State   string `yaml:"state"`   // quaternion, acceleration, bias
	IMU     string `yaml:"imu"`     // raw sample as read
	Diag    string `yaml:"diag"`    // periodic diagnostic report
	Command string `yaml:"command"` // reposition, set_bias, export
	Export  string `yaml:"export"`  // history CSV published on request
}

// FilterConfig carries the estimator tunables. Zero values take defaults.
type FilterConfig struct {
	SampleRate          float64 `yaml:"sample_rate"` // Hz
	GyroScale           float64 `yaml:"gyro_scale"`  // native gyro unit to rad/s
	BiasWindowSeconds   float64 `yaml:"bias_window_seconds"`
	BiasHistory         int     `yaml:"bias_history"`
	StillAccelThreshold float64 `yaml:"still_accel_threshold"`
	StillGyroThreshold  float64 `yaml:"still_gyro_threshold"`
	HistorySeconds      float64 `yaml:"history_seconds"`
}

type IMUConfig struct {
	Source string `yaml:"source"` // mpu9250, serial, replay or mock

	// MPU9250 over SPI
	SPIDevice string `yaml:"spi_device"`
	CSPin     string `yaml:"cs_pin"`
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	AccelRange byte `yaml:"accel_range"`
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	GyroRange byte `yaml:"gyro_range"`
	SelfTest  bool `yaml:"self_test"`

	// $IIIMU sentences over a serial line
	SerialPort string `yaml:"serial_port"`
	BaudRate   uint   `yaml:"baud_rate"`

	// CSV recording
	ReplayPath string `yaml:"replay_path"`
	ReplayLoop bool   `yaml:"replay_loop"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type DisplayConfig struct {
	I2CBus         string        `yaml:"i2c_bus"` // empty picks the first bus
	UpdateInterval time.Duration `yaml:"update_interval"`
	Content        string        `yaml:"content"` // attitude or diag
}

type DiagConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables /metrics
}

// AHRS returns the estimator configuration.
func (f FilterConfig) AHRS() ahrs.Config {
	return ahrs.Config{
		SampleRate:          f.SampleRate,
		GyroScale:           f.GyroScale,
		BiasWindowSeconds:   f.BiasWindowSeconds,
		BiasHistory:         f.BiasHistory,
		StillAccelThreshold: f.StillAccelThreshold,
		StillGyroThreshold:  f.StillGyroThreshold,
	}
}

// SampleInterval is the tick period derived from the sample rate.
func (f FilterConfig) SampleInterval() time.Duration {
	return time.Duration(float64(time.Second) / f.SampleRate)
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal run once.
//   - configMu lets Get readers proceed concurrently.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a configuration with every default filled in and the
// mock IMU selected. It is not validated and has no broker.
func Defaults() *Config {
	c := &Config{IMU: IMUConfig{Source: SourceMock}}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.MQTT.ClientIDProducer == "" {
		c.MQTT.ClientIDProducer = "inertial-producer"
	}
	if c.MQTT.ClientIDConsole == "" {
		c.MQTT.ClientIDConsole = "inertial-console"
	}
	if c.MQTT.ClientIDWeb == "" {
		c.MQTT.ClientIDWeb = "inertial-web"
	}
	if c.MQTT.ClientIDDisplay == "" {
		c.MQTT.ClientIDDisplay = "inertial-display"
	}

	if c.MQTT.PublishInterval <= 0 {
		c.MQTT.PublishInterval = 100 * time.Millisecond
	}

	if c.Topics.Pose == "" {
		c.Topics.Pose = "inertial/pose"
	}
	if c.Topics.State == "" {
		c.Topics.State = "inertial/state"
	}
	if c.Topics.IMU == "" {
		c.Topics.IMU = "inertial/imu"
	}
	if c.Topics.Diag == "" {
		c.Topics.Diag = "inertial/diag"
	}
	if c.Topics.Command == "" {
		c.Topics.Command = "inertial/cmd"
	}
	if c.Topics.Export == "" {
		c.Topics.Export = "inertial/export"
	}

	if c.Filter.SampleRate <= 0 {
		c.Filter.SampleRate = ahrs.DefaultSampleRate
	}
	if c.Filter.HistorySeconds <= 0 {
		c.Filter.HistorySeconds = history.DefaultSeconds
	}

	if c.IMU.Source == "" {
		c.IMU.Source = SourceMPU9250
	}
	if c.IMU.BaudRate == 0 {
		c.IMU.BaudRate = 115200
	}

	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}

	if c.Display.UpdateInterval <= 0 {
		c.Display.UpdateInterval = 200 * time.Millisecond
	}
	if c.Display.Content == "" {
		c.Display.Content = "attitude"
	}

	if c.Diag.Interval <= 0 {
		c.Diag.Interval = 2 * time.Second
	}
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch c.IMU.Source {
	case SourceMPU9250:
		if c.IMU.SPIDevice == "" {
			return fmt.Errorf("imu.spi_device is required for source %q", c.IMU.Source)
		}
		if c.IMU.CSPin == "" {
			return fmt.Errorf("imu.cs_pin is required for source %q", c.IMU.Source)
		}
	case SourceSerial:
		if c.IMU.SerialPort == "" {
			return fmt.Errorf("imu.serial_port is required for source %q", c.IMU.Source)
		}
	case SourceReplay:
		if c.IMU.ReplayPath == "" {
			return fmt.Errorf("imu.replay_path is required for source %q", c.IMU.Source)
		}
	case SourceMock:
	default:
		return fmt.Errorf("imu.source must be one of %s, %s, %s, %s, got %q",
			SourceMPU9250, SourceSerial, SourceReplay, SourceMock, c.IMU.Source)
	}

	if c.IMU.AccelRange > 3 {
		return fmt.Errorf("imu.accel_range must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", c.IMU.AccelRange)
	}
	if c.IMU.GyroRange > 3 {
		return fmt.Errorf("imu.gyro_range must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", c.IMU.GyroRange)
	}

	if _, err := ahrs.New(c.Filter.AHRS()); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be 0-65535, got %d", c.Web.Port)
	}
	if c.Display.Content != "attitude" && c.Display.Content != "diag" {
		return fmt.Errorf("display.content must be attitude or diag, got %q", c.Display.Content)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
