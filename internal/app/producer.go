// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/ahrs"
	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/diag"
	"github.com/relabs-tech/inertial_ahrs/internal/imu"
	"github.com/relabs-tech/inertial_ahrs/internal/orientation"
	"github.com/relabs-tech/inertial_ahrs/internal/sensors"
)

// RunProducer reads the configured IMU at the filter sample rate, runs the
// estimator and publishes its output until ctx is done or the source ends.
func RunProducer(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	log.Info("producer: starting inertial AHRS producer")

	est, err := NewEstimator(cfg.Filter, log)
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}

	src, err := sensors.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("producer: open IMU: %w", err)
	}
	defer src.Close()

	// --- connect to MQTT ---
	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDProducer)
	if err != nil {
		return fmt.Errorf("producer: MQTT connect: %w", err)
	}
	defer client.Disconnect(250)
	log.Infof("producer: connected to MQTT broker at %s", cfg.MQTT.Broker)

	token := client.Subscribe(cfg.Topics.Command, 1, func(c mqtt.Client, msg mqtt.Message) {
		handleCommand(c, cfg, est, msg.Payload(), log)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("producer: subscribe %s: %w", cfg.Topics.Command, token.Error())
	}
	log.Infof("producer: listening for commands on %s", cfg.Topics.Command)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sinks := []diag.Sink{diag.LogSink(log), func(r diag.Report) {
		if err := publishJSON(client, cfg.Topics.Diag, false, r); err != nil {
			log.Warnf("producer: MQTT publish error (diag): %v", err)
		}
	}}
	if cfg.Diag.MetricsAddr != "" {
		m, err := diag.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("producer: metrics: %w", err)
		}
		sinks = append(sinks, m.Sink())
		srv := serveMetrics(cfg.Diag.MetricsAddr, log)
		defer srv.Close()
	}
	go diag.Run(ctx, est.Board(), cfg.Diag.Interval, sinks...)

	return sampleLoop(ctx, cfg, src, est, func(s imu.Sample, st ahrs.Stats) {
		publishTick(client, cfg, s, st, log)
	}, log)
}

// sampleLoop drives est from src at the configured rate. publish is called
// at most once per publish interval.
func sampleLoop(
	ctx context.Context,
	cfg *config.Config,
	src imu.Source,
	est *Estimator,
	publish func(imu.Sample, ahrs.Stats),
	log *zap.SugaredLogger,
) error {
	ticker := time.NewTicker(cfg.Filter.SampleInterval())
	defer ticker.Stop()

	var lastPublish time.Time
	for {
		select {
		case <-ctx.Done():
			log.Info("producer: shutting down")
			return nil
		case t := <-ticker.C:
			s, err := src.Next()
			if errors.Is(err, io.EOF) {
				log.Info("producer: IMU source exhausted")
				return nil
			}
			if err != nil {
				log.Warnf("producer: error reading IMU: %v", err)
				continue
			}

			st, err := est.Step(s)
			if err != nil {
				log.Debugf("producer: sample rejected: %v", err)
				continue
			}

			if t.Sub(lastPublish) >= cfg.MQTT.PublishInterval {
				lastPublish = t
				publish(s, st)
			}
		}
	}
}

func publishTick(client mqtt.Client, cfg *config.Config, s imu.Sample, st ahrs.Stats, log *zap.SugaredLogger) {
	state := orientation.StateFrom(s.Time, st)
	if err := publishJSON(client, cfg.Topics.Pose, true, state.Pose); err != nil {
		log.Warnf("producer: MQTT publish error (pose): %v", err)
		return
	}
	if err := publishJSON(client, cfg.Topics.State, true, state); err != nil {
		log.Warnf("producer: MQTT publish error (state): %v", err)
		return
	}
	if err := publishJSON(client, cfg.Topics.IMU, true, s); err != nil {
		log.Warnf("producer: MQTT publish error (imu): %v", err)
	}
}

func handleCommand(client mqtt.Client, cfg *config.Config, est *Estimator, payload []byte, log *zap.SugaredLogger) {
	var cmd orientation.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		log.Warnf("producer: command unmarshal error: %v", err)
		return
	}

	out, err := est.Handle(cmd)
	if err != nil {
		log.Warnf("producer: command %q failed: %v", cmd.Action, err)
		return
	}
	log.Infof("producer: command %q applied", cmd.Action)

	if cmd.Action == orientation.ActionExport {
		if token := client.Publish(cfg.Topics.Export, 1, false, out); token.Wait() && token.Error() != nil {
			log.Warnf("producer: MQTT publish error (export): %v", token.Error())
		}
	}
}

func serveMetrics(addr string, log *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("producer: metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("producer: metrics server: %v", err)
		}
	}()
	return srv
}
