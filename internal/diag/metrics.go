// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package diag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes reports as Prometheus gauges.
type Metrics struct {
	meanRate  *prometheus.GaugeVec
	bias      *prometheus.GaugeVec
	accelMove prometheus.Gauge
	gyroMove  prometheus.Gauge
	tickRate  prometheus.Gauge
	ticks     prometheus.Gauge
	rejected  prometheus.Gauge
	updates   prometheus.Gauge
}

// NewMetrics creates the gauges and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		meanRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ahrs_gyro_mean_rate_rad_s",
			Help: "Mean bias-corrected gyro rate over the stillness window.",
		}, []string{"axis"}),
		bias: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ahrs_gyro_bias_rad_s",
			Help: "Current gyro bias estimate.",
		}, []string{"axis"}),
		accelMove: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ahrs_accel_move",
			Help: "Accumulated accel magnitude deviation of the last full window.",
		}),
		gyroMove: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ahrs_gyro_move",
			Help: "Accumulated absolute gyro rate of the last full window.",
		}),
		tickRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ahrs_tick_rate_hz",
			Help: "Observed filter ticks per second.",
		}),
		ticks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ahrs_ticks",
			Help: "Accepted filter ticks.",
		}),
		rejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ahrs_rejected_ticks",
			Help: "Rejected degenerate samples.",
		}),
		updates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ahrs_bias_updates",
			Help: "Automatic gyro bias updates.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.meanRate, m.bias, m.accelMove, m.gyroMove,
		m.tickRate, m.ticks, m.rejected, m.updates,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe updates the gauges from r.
func (m *Metrics) Observe(r Report) {
	m.meanRate.WithLabelValues("x").Set(r.MeanRateX)
	m.meanRate.WithLabelValues("y").Set(r.MeanRateY)
	m.meanRate.WithLabelValues("z").Set(r.MeanRateZ)
	m.bias.WithLabelValues("x").Set(r.BiasX)
	m.bias.WithLabelValues("y").Set(r.BiasY)
	m.bias.WithLabelValues("z").Set(r.BiasZ)
	m.accelMove.Set(r.AccelMove)
	m.gyroMove.Set(r.GyroMove)
	m.tickRate.Set(r.TickRate)
	m.ticks.Set(float64(r.Ticks))
	m.rejected.Set(float64(r.Rejected))
	m.updates.Set(float64(r.Updates))
}

// Sink returns Observe as a Sink.
func (m *Metrics) Sink() Sink { return m.Observe }
