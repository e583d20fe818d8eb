// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/diag"
	"github.com/relabs-tech/inertial_ahrs/internal/orientation"
)

const (
	displayW = 128
	displayH = 64
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	state     orientation.State
	haveState bool

	report   diag.Report
	haveDiag bool
}

func (d *DisplayData) setState(s orientation.State) {
	d.mu.Lock()
	d.state = s
	d.haveState = true
	d.mu.Unlock()
}

func (d *DisplayData) setDiag(r diag.Report) {
	d.mu.Lock()
	d.report = r
	d.haveDiag = true
	d.mu.Unlock()
}

func RunDisplay(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.Display.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Infof("display: initialized on I2C bus %q", cfg.Display.I2CBus)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Warnf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Infof("display: connected to MQTT broker at %s", cfg.MQTT.Broker)

	onErr := func(err error) { log.Warnf("display: %v", err) }
	switch cfg.Display.Content {
	case "attitude":
		err = subscribeJSON(client, cfg.Topics.State, data.setState, onErr)
	case "diag":
		err = subscribeJSON(client, cfg.Topics.Diag, data.setDiag, onErr)
	default:
		err = fmt.Errorf("unknown display content type: %s", cfg.Display.Content)
	}
	if err != nil {
		return fmt.Errorf("failed to subscribe for display: %w", err)
	}

	ticker := time.NewTicker(cfg.Display.UpdateInterval)
	defer ticker.Stop()

	log.Info("display: starting update loop")

	for {
		select {
		case <-ctx.Done():
			log.Info("display: shutting down")
			return nil
		case <-ticker.C:
		}

		data.mu.RLock()
		var img *image1bit.VerticalLSB
		if cfg.Display.Content == "diag" {
			img = renderDiag(data.report, data.haveDiag)
		} else {
			img = renderAttitude(data.state, data.haveState)
		}
		data.mu.RUnlock()

		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Warnf("display: error updating display: %v", err)
		}
	}
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderAttitude draws roll, pitch and yaw on the left and an artificial
// horizon on the right.
func renderAttitude(s orientation.State, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !haveData {
		drawLine(drawer, 0, 26, "Attitude")
		drawLine(drawer, 0, 39, "Waiting...")
		return img
	}

	drawLine(drawer, 0, 13, fmt.Sprintf("R:%6.1f", s.Pose.Roll))
	drawLine(drawer, 0, 26, fmt.Sprintf("P:%6.1f", s.Pose.Pitch))
	drawLine(drawer, 0, 39, fmt.Sprintf("Y:%6.1f", s.Pose.Yaw))
	if !s.FrameReady {
		drawLine(drawer, 0, 56, "zeroing")
	}

	drawHorizon(img, image.Rect(72, 0, displayW, displayH), s.Pose.Roll, s.Pose.Pitch)
	return img
}

// drawHorizon draws a horizon line through the box centre, tilted by roll
// and shifted by pitch (one pixel per degree), plus a fixed aircraft mark.
func drawHorizon(img *image1bit.VerticalLSB, box image.Rectangle, rollDeg, pitchDeg float64) {
	cx := float64(box.Min.X+box.Max.X) / 2
	cy := float64(box.Min.Y+box.Max.Y)/2 + pitchDeg
	r := rollDeg * math.Pi / 180
	dx, dy := math.Cos(r), -math.Sin(r)

	half := float64(box.Dx())
	for t := -half; t <= half; t += 0.5 {
		p := image.Pt(int(math.Round(cx+t*dx)), int(math.Round(cy+t*dy)))
		if p.In(box) {
			img.SetBit(p.X, p.Y, image1bit.On)
		}
	}

	mx, my := int(cx), (box.Min.Y+box.Max.Y)/2
	for x := mx - 6; x <= mx+6; x++ {
		if x < mx-2 || x > mx+2 {
			img.SetBit(x, my, image1bit.On)
		}
	}
	img.SetBit(mx, my, image1bit.On)
}

func renderDiag(r diag.Report, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !haveData {
		drawLine(drawer, 0, 26, "Diagnostics")
		drawLine(drawer, 0, 39, "Waiting...")
		return img
	}

	drawLine(drawer, 0, 13, fmt.Sprintf("%.0fHz  upd:%d", r.TickRate, r.Updates))
	if r.Evaluated {
		drawLine(drawer, 0, 26, fmt.Sprintf("a:%.3f g:%.3f", r.AccelMove, r.GyroMove))
	} else {
		drawLine(drawer, 0, 26, "filling window")
	}
	drawLine(drawer, 0, 39, fmt.Sprintf("bx:%+.4f", r.BiasX))
	drawLine(drawer, 0, 52, fmt.Sprintf("by:%+.4f", r.BiasY))
	drawLine(drawer, 0, 64, fmt.Sprintf("bz:%+.4f", r.BiasZ))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()
	drawLine(drawer, 10, 26, "Inertial Pi")
	drawLine(drawer, 30, 43, "AHRS")
	return img
}
