// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spectroapp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spectrobench/spectro/as7343"
)

// Mode selects what happens to a measurement once acquired.
type Mode int

const (
	// ModeDataLog prints the sorted channels as one line per cycle.
	ModeDataLog Mode = iota
	// ModeInferLocal runs the on-device model. Currently a stub that echoes
	// its inputs; the framing is stable so a model can slot in later.
	ModeInferLocal
	// ModeInferPC streams MEAS records to the host PC and relays at most one
	// pending response line per cycle.
	ModeInferPC
)

func (m Mode) String() string {
	switch m {
	case ModeDataLog:
		return "data-log"
	case ModeInferLocal:
		return "infer-local"
	case ModeInferPC:
		return "infer-pc"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Precision selects one of three fixed integration presets. Longer
// integration raises the signal-to-noise ratio at the cost of cycle time.
type Precision int

const (
	PrecisionLow Precision = iota
	PrecisionMedium
	PrecisionHigh
)

func (p Precision) String() string {
	switch p {
	case PrecisionLow:
		return "low"
	case PrecisionMedium:
		return "medium"
	case PrecisionHigh:
		return "high"
	}
	return fmt.Sprintf("Precision(%d)", int(p))
}

// integrationPreset is the device configuration a precision level maps to.
type integrationPreset struct {
	atime   uint8
	astep   uint16
	timeout time.Duration
}

// The preset table. These triples are load-bearing: collection scripts and
// trained models assume readings taken with exactly these timings.
var presets = map[Precision]integrationPreset{
	PrecisionLow:    {atime: 0x00, astep: 999, timeout: 50 * time.Millisecond},
	PrecisionMedium: {atime: 0x01, astep: 20000, timeout: 500 * time.Millisecond},
	PrecisionHigh:   {atime: 0x00, astep: 65534, timeout: 800 * time.Millisecond},
}

// Sensor is the slice of the as7343 driver the application needs. *as7343.Dev
// implements it; tests substitute a fake.
type Sensor interface {
	ReadAllChannels() ([as7343.NumChannels]uint16, error)
	SetIntegrationTime(atime uint8, astep uint16) error
	SetDataReadyTimeout(timeout time.Duration)
}

// Link is the serial connection to the host PC. ReadLine must not block:
// it returns a pending newline-terminated line if one is buffered, and
// (_, false) otherwise.
type Link interface {
	io.Writer
	ReadLine() (string, bool)
}

// Measurement is one acquisition cycle's worth of data: the raw 18-channel
// reading and the 12-channel wavelength-sorted view derived from it. It is
// filled once, consumed by one mode handler and discarded.
type Measurement struct {
	Raw    [as7343.NumChannels]uint16
	Sorted [as7343.NumSortedChannels]uint16
}

// App owns the operating mode, the precision preset and the dispatch loop.
// Mode and precision are orthogonal; any combination is valid.
type App struct {
	sensor    Sensor
	link      Link
	mode      Mode
	precision Precision

	// OnMeasurement, when set, observes every successful acquisition after
	// dispatch. Displays hook in here.
	OnMeasurement func(Measurement)
}

// New returns an App in data-log mode with the medium precision preset
// already programmed into the sensor.
func New(sensor Sensor, link Link) (*App, error) {
	a := &App{sensor: sensor, link: link, mode: ModeDataLog}
	if err := a.SetPrecision(PrecisionMedium); err != nil {
		return nil, err
	}
	return a, nil
}

// SetMode switches the dispatch target for subsequent cycles.
func (a *App) SetMode(m Mode) {
	a.mode = m
}

// Mode returns the current operating mode.
func (a *App) Mode() Mode {
	return a.mode
}

// SetPrecision programs the preset's (ATIME, ASTEP, timeout) triple into the
// sensor immediately. Nothing else on the device is touched.
func (a *App) SetPrecision(p Precision) error {
	cfg, ok := presets[p]
	if !ok {
		return fmt.Errorf("spectroapp: unknown precision %d", int(p))
	}
	if err := a.sensor.SetIntegrationTime(cfg.atime, cfg.astep); err != nil {
		return fmt.Errorf("spectroapp: programming precision %s: %w", p, err)
	}
	a.sensor.SetDataReadyTimeout(cfg.timeout)
	a.precision = p
	return nil
}

// Precision returns the current precision preset.
func (a *App) Precision() Precision {
	return a.precision
}

// Acquire reads the 18 raw channels once and derives the sorted view from
// that single reading.
func (a *App) Acquire() (Measurement, error) {
	raw, err := a.sensor.ReadAllChannels()
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{Raw: raw, Sorted: as7343.SortChannels(raw)}, nil
}

// RunOnce performs one acquisition cycle. On acquisition failure it emits a
// diagnostic on the link and skips the cycle; nothing else changes and the
// next cycle starts fresh. On success exactly one mode handler consumes the
// measurement.
func (a *App) RunOnce() {
	m, err := a.Acquire()
	if err != nil {
		fmt.Fprintln(a.link, "[spectro_app] ERROR: Failed to acquire measurement.")
		return
	}
	switch a.mode {
	case ModeInferLocal:
		a.handleInferLocal(&m)
	case ModeInferPC:
		a.handleInferPC(&m)
	default:
		a.handleDataLog(&m)
	}
	if a.OnMeasurement != nil {
		a.OnMeasurement(m)
	}
}

func (a *App) handleDataLog(m *Measurement) {
	fmt.Fprintf(a.link, "SORTED(405-855nm): %s\n", joinChannels(m.Sorted))
}

func (a *App) handleInferLocal(m *Measurement) {
	fmt.Fprintf(a.link, "[spectro_app] Local inference stub. Inputs: %s\n", joinChannels(m.Sorted))
}

func (a *App) handleInferPC(m *Measurement) {
	fmt.Fprintf(a.link, "MEAS,%s\n", joinChannels(m.Sorted))
	// At most one pending response per cycle; no input is not an error.
	if line, ok := a.link.ReadLine(); ok {
		line = strings.TrimSpace(line)
		if line != "" {
			fmt.Fprintf(a.link, "[spectro_app] PC response: %s\n", line)
		}
	}
}

func joinChannels(ch [as7343.NumSortedChannels]uint16) string {
	var b strings.Builder
	for i, v := range ch {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}

var _ Sensor = &as7343.Dev{}
