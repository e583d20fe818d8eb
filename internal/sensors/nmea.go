// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/imu"
)

// TypeIMU is the sentence type of a 6-axis sample:
//
//	$IIIMU,gx,gy,gz,ax,ay,az*CS
//
// with gyro in rad/s and accel in g.
const TypeIMU = "IMU"

// IMUSentence is a parsed $--IMU sentence.
type IMUSentence struct {
	nmea.BaseSentence
	Gx, Gy, Gz float64
	Ax, Ay, Az float64
}

func parseIMU(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	m := IMUSentence{
		BaseSentence: s,
		Gx:           p.Float64(0, "gx"),
		Gy:           p.Float64(1, "gy"),
		Gz:           p.Float64(2, "gz"),
		Ax:           p.Float64(3, "ax"),
		Ay:           p.Float64(4, "ay"),
		Az:           p.Float64(5, "az"),
	}
	return m, p.Err()
}

var sentenceParser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeIMU: parseIMU,
	},
}

// ParseIMU parses one $--IMU line.
func ParseIMU(line string) (IMUSentence, error) {
	s, err := sentenceParser.Parse(strings.TrimSpace(line))
	if err != nil {
		return IMUSentence{}, err
	}
	m, ok := s.(IMUSentence)
	if !ok {
		return IMUSentence{}, fmt.Errorf("nmea: unexpected sentence type %q", s.DataType())
	}
	return m, nil
}

// FormatIMU renders s as a $IIIMU sentence with checksum.
func FormatIMU(s imu.Sample) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	body := strings.Join([]string{
		"IIIMU",
		f(s.Gx), f(s.Gy), f(s.Gz),
		f(s.Ax), f(s.Ay), f(s.Az),
	}, ",")
	return "$" + body + "*" + nmea.Checksum(body)
}

type nmeaSource struct {
	name   string
	port   io.ReadCloser
	reader *bufio.Reader
	log    *zap.SugaredLogger
}

// NewNMEASource reads $--IMU sentences from r. Other sentences and
// malformed lines are skipped.
func NewNMEASource(name string, r io.ReadCloser, log *zap.SugaredLogger) imu.Source {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &nmeaSource{name: name, port: r, reader: bufio.NewReader(r), log: log}
}

// OpenSerialSource opens the configured serial port.
func OpenSerialSource(cfg config.IMUConfig, log *zap.SugaredLogger) (imu.Source, error) {
	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              cfg.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("IMU serial %s: %w", cfg.SerialPort, err)
	}
	log.Infof("IMU serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)
	return NewNMEASource(cfg.SerialPort, port, log), nil
}

func (s *nmeaSource) Next() (imu.Sample, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return imu.Sample{}, err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			if err != nil {
				return imu.Sample{}, err
			}
			continue
		}

		m, perr := ParseIMU(line)
		if perr != nil {
			s.log.Debugf("IMU serial %s: skipping %q: %v", s.name, line, perr)
			if err != nil {
				return imu.Sample{}, err
			}
			continue
		}

		return imu.Sample{
			Source: "serial",
			Time:   time.Now(),
			Gx:     m.Gx,
			Gy:     m.Gy,
			Gz:     m.Gz,
			Ax:     m.Ax,
			Ay:     m.Ay,
			Az:     m.Az,
		}, nil
	}
}

func (s *nmeaSource) Close() error { return s.port.Close() }
