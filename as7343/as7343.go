// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package as7343

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

var (
	// ErrDataNotReady is returned when STATUS2.AVALID does not set within
	// the configured data-ready timeout.
	ErrDataNotReady = errors.New("as7343: timeout waiting for data ready")

	// ErrInvalidGain is returned for a gain code outside the 13 documented
	// steps.
	ErrInvalidGain = errors.New("as7343: invalid gain code")

	// ErrInvalidChannel is returned for a channel index outside 0..17.
	ErrInvalidChannel = errors.New("as7343: invalid channel")
)

// bank selects one of the two register address spaces. The select bit lives
// in CFG0 which is itself a bank 0 resident register, so every bank switch is
// a read-modify-write that must succeed on its own.
type bank uint8

const (
	bank0 bank = 0 // 0x80+ power, config and data registers
	bank1 bank = 1 // 0x58..0x66 identity registers
)

// Opts holds the configuration options for the device.
type Opts struct {
	// Gain is the analog gain programmed during initialization.
	Gain Gain
	// DataReadyTimeout bounds the AVALID poll loop. It can be changed later
	// with SetDataReadyTimeout; the application layer reprograms it together
	// with the integration time.
	DataReadyTimeout time.Duration
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Gain:             Gain16x,
	DataReadyTimeout: 500 * time.Millisecond,
}

// Dev is a handle to an AS7343 spectral sensor.
//
// All methods leave the device in bank 0 on success, so callers never have
// to think about the register banking.
type Dev struct {
	c       conn.Conn
	timeout time.Duration

	// now is the monotonic clock used by the data-ready poll loop.
	// Replaceable in tests.
	now func() time.Time
}

// NewI2C returns an object that communicates over I²C to an AS7343 spectral
// sensor and powers it up: PON, a 3ms oscillator settle, automatic
// 18-channel cycling, the configured gain, and finally SP_EN. The Opts can
// be nil.
//
// The power-up writes are a straight-line sequence with no rollback. If a
// transaction fails mid-sequence the device is left partially configured;
// power-cycle it before retrying.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	timeout := opts.DataReadyTimeout
	if timeout <= 0 {
		timeout = DefaultOpts.DataReadyTimeout
	}
	d := &Dev{
		c:       &i2c.Dev{Bus: b, Addr: SensorAddress},
		timeout: timeout,
		now:     time.Now,
	}
	if err := d.init(opts.Gain); err != nil {
		return nil, fmt.Errorf("as7343: initialization failed: %w", err)
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("AS7343{%s}", d.c)
}

func (d *Dev) init(g Gain) error {
	if err := d.setBank(bank0); err != nil {
		return err
	}
	enable, err := d.readReg(regEnable)
	if err != nil {
		return err
	}
	if err := d.writeReg(regEnable, enable|enablePON); err != nil {
		return err
	}
	// Internal oscillator settle time after PON, per datasheet.
	time.Sleep(3 * time.Millisecond)

	cfg20, err := d.readReg(regCfg20)
	if err != nil {
		return err
	}
	cfg20 &^= cfg20AutoSMUXMask
	cfg20 |= cfg20AutoSMUX18
	if err := d.writeReg(regCfg20, cfg20); err != nil {
		return err
	}

	if err := d.SetGain(g); err != nil {
		return err
	}

	// SP_EN last, once everything else is configured.
	enable, err = d.readReg(regEnable)
	if err != nil {
		return err
	}
	return d.writeReg(regEnable, enable|enableSP)
}

// IsConnected reads the ID register in bank 1 and reports whether it matches
// DeviceID.
//
// Bank 0 is restored unconditionally, even when the ID read fails or
// mismatches, so callers never observe bank 1 side effects. A failed bank
// restore is an error in its own right.
func (d *Dev) IsConnected() (bool, error) {
	if err := d.setBank(bank1); err != nil {
		return false, err
	}
	id, idErr := d.readReg(regID)
	if err := d.setBank(bank0); err != nil {
		return false, err
	}
	if idErr != nil {
		return false, idErr
	}
	return id == DeviceID, nil
}

// SetGain programs one of the 13 analog gain steps (0.5x to 2048x) into the
// low 5 bits of CFG1. The other CFG1 bits are preserved.
func (d *Dev) SetGain(g Gain) error {
	if g > Gain2048x {
		return ErrInvalidGain
	}
	if err := d.setBank(bank0); err != nil {
		return err
	}
	cfg1, err := d.readReg(regCfg1)
	if err != nil {
		return err
	}
	cfg1 &^= cfg1GainMask
	cfg1 |= byte(g) & cfg1GainMask
	return d.writeReg(regCfg1, cfg1)
}

// SetIntegrationTime programs the ATIME register and the 16-bit ASTEP pair.
// The integration duration per sample is (atime+1)*(astep+1)*2.78µs; no
// range validation happens here, callers own the device timing constraints.
func (d *Dev) SetIntegrationTime(atime uint8, astep uint16) error {
	if err := d.setBank(bank0); err != nil {
		return err
	}
	if err := d.writeReg(regATime, atime); err != nil {
		return err
	}
	if err := d.writeReg(regAStepL, byte(astep)); err != nil {
		return err
	}
	return d.writeReg(regAStepH, byte(astep>>8))
}

// SetDataReadyTimeout bounds the AVALID poll loop for subsequent reads.
func (d *Dev) SetDataReadyTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// DataReadyTimeout returns the current AVALID poll window.
func (d *Dev) DataReadyTimeout() time.Duration {
	return d.timeout
}

// waitDataReady polls STATUS2.AVALID until it sets or the timeout elapses.
// The status register is polled at least once, and the loop returns as soon
// as the bit is observed. time.Time subtraction uses the monotonic clock so
// wall-clock adjustments cannot shorten or extend the window.
func (d *Dev) waitDataReady() error {
	if err := d.setBank(bank0); err != nil {
		return err
	}
	start := d.now()
	for {
		status, err := d.readReg(regStatus2)
		if err != nil {
			return err
		}
		if status&status2AValid != 0 {
			return nil
		}
		if d.now().Sub(start) >= d.timeout {
			return ErrDataNotReady
		}
	}
}

// ReadAllChannels waits for a complete acquisition cycle and reads the 18
// data registers in ascending order, assembling each little-endian pair into
// one unsigned 16-bit value. The reading is returned by value: on error no
// partial data is exposed.
func (d *Dev) ReadAllChannels() ([NumChannels]uint16, error) {
	var data [NumChannels]uint16
	if err := d.setBank(bank0); err != nil {
		return data, err
	}
	if err := d.waitDataReady(); err != nil {
		return data, err
	}
	var raw [2]byte
	for i := 0; i < NumChannels; i++ {
		if err := d.readBurst(regData0L+byte(2*i), raw[:]); err != nil {
			return data, fmt.Errorf("as7343: reading channel %d: %w", i, err)
		}
		data[i] = binary.LittleEndian.Uint16(raw[:])
	}
	return data, nil
}

// ReadSingleChannel waits for data ready and reads one channel's data
// register pair.
func (d *Dev) ReadSingleChannel(ch Channel) (uint16, error) {
	if ch >= NumChannels {
		return 0, ErrInvalidChannel
	}
	if err := d.setBank(bank0); err != nil {
		return 0, err
	}
	if err := d.waitDataReady(); err != nil {
		return 0, err
	}
	var raw [2]byte
	if err := d.readBurst(regData0L+byte(2*ch), raw[:]); err != nil {
		return 0, fmt.Errorf("as7343: reading channel %d: %w", ch, err)
	}
	return binary.LittleEndian.Uint16(raw[:]), nil
}

// SortedChannels reads all 18 channels and returns the 12 spectral channels
// ordered by ascending center wavelength, 405nm to 855nm.
func (d *Dev) SortedChannels() ([NumSortedChannels]uint16, error) {
	raw, err := d.ReadAllChannels()
	if err != nil {
		return [NumSortedChannels]uint16{}, err
	}
	return SortChannels(raw), nil
}

// SortChannels applies the fixed wavelength-ascending permutation to a raw
// reading. The clear and flicker-detect channels are dropped. It is a pure
// function so a frozen raw snapshot always re-derives the same view.
func SortChannels(raw [NumChannels]uint16) [NumSortedChannels]uint16 {
	var sorted [NumSortedChannels]uint16
	for i, ch := range sortedOrder {
		sorted[i] = raw[ch]
	}
	return sorted
}

// Halt implements conn.Resource. It clears SP_EN and PON, stopping spectral
// acquisition and powering the analog front end down.
func (d *Dev) Halt() error {
	if err := d.setBank(bank0); err != nil {
		return err
	}
	enable, err := d.readReg(regEnable)
	if err != nil {
		return err
	}
	return d.writeReg(regEnable, enable&^(enableSP|enablePON))
}

// setBank switches the active register bank by rewriting CFG0.REG_BANK.
func (d *Dev) setBank(b bank) error {
	cfg0, err := d.readReg(regCfg0)
	if err != nil {
		return err
	}
	if b == bank1 {
		cfg0 |= cfg0RegBank
	} else {
		cfg0 &^= cfg0RegBank
	}
	return d.writeReg(regCfg0, cfg0)
}

// readReg writes the register pointer then reads one byte back.
func (d *Dev) readReg(reg byte) (byte, error) {
	var b [1]byte
	if err := d.c.Tx([]byte{reg}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// writeReg writes one byte to a register.
func (d *Dev) writeReg(reg, value byte) error {
	return d.c.Tx([]byte{reg, value}, nil)
}

// readBurst writes the register pointer then burst-reads len(buf) bytes.
func (d *Dev) readBurst(reg byte, buf []byte) error {
	return d.c.Tx([]byte{reg}, buf)
}

var _ conn.Resource = &Dev{}
