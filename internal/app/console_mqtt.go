// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/diag"
	"github.com/relabs-tech/inertial_ahrs/internal/orientation"
)

// RunConsoleMQTT prints poses, filter state and diagnostics to out until ctx
// is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, log *zap.SugaredLogger) error {
	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDConsole)
	if err != nil {
		return err
	}
	log.Infof("console: connected to MQTT broker at %s", cfg.MQTT.Broker)

	onErr := func(err error) { log.Warnf("console: %v", err) }

	if err := subscribeJSON(client, cfg.Topics.Pose, func(p orientation.Pose) {
		fmt.Fprintln(out, formatPose(p))
	}, onErr); err != nil {
		return err
	}
	log.Infof("console: subscribed to %s", cfg.Topics.Pose)

	if err := subscribeJSON(client, cfg.Topics.State, func(s orientation.State) {
		fmt.Fprintln(out, formatState(s))
	}, onErr); err != nil {
		return err
	}
	log.Infof("console: subscribed to %s", cfg.Topics.State)

	if err := subscribeJSON(client, cfg.Topics.Diag, func(r diag.Report) {
		fmt.Fprintln(out, formatReport(r))
	}, onErr); err != nil {
		return err
	}
	log.Infof("console: subscribed to %s", cfg.Topics.Diag)

	<-ctx.Done()

	log.Info("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatPose(p orientation.Pose) string {
	return fmt.Sprintf("[POSE]  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f", p.Roll, p.Pitch, p.Yaw)
}

func formatState(s orientation.State) string {
	ready := "zeroing"
	if s.FrameReady {
		ready = "ready"
	}
	return fmt.Sprintf("[STATE] q=(%+.4f %+.4f %+.4f %+.4f)  acc=(%+.3f %+.3f %+.3f)  bias=(%+.4f %+.4f %+.4f)  %s",
		s.Orientation.W, s.Orientation.X, s.Orientation.Y, s.Orientation.Z,
		s.Acceleration.X, s.Acceleration.Y, s.Acceleration.Z,
		s.Bias.X, s.Bias.Y, s.Bias.Z,
		ready,
	)
}

func formatReport(r diag.Report) string {
	if !r.Evaluated {
		return fmt.Sprintf("[DIAG]  ticks=%d rate=%.1fHz  mean=(%+.4f %+.4f %+.4f)  filling window",
			r.Ticks, r.TickRate, r.MeanRateX, r.MeanRateY, r.MeanRateZ)
	}
	return fmt.Sprintf("[DIAG]  ticks=%d rate=%.1fHz  mean=(%+.4f %+.4f %+.4f)  a_move=%.3f g_move=%.3f  updates=%d",
		r.Ticks, r.TickRate, r.MeanRateX, r.MeanRateY, r.MeanRateZ, r.AccelMove, r.GyroMove, r.Updates)
}
