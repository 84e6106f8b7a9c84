// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package as7343

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

var errInjected = errors.New("injected bus failure")

// fakeBus models the AS7343 register file well enough for driver tests:
// single-byte register writes, pointer-then-burst reads, and an injectable
// failure on a chosen register.
type fakeBus struct {
	regs map[byte]byte
	// failReg makes any transaction touching that register fail. 0 disables.
	failReg byte
	// readyAfter makes STATUS2.AVALID read as set starting with the Nth
	// status read. 0 leaves STATUS2 at its stored value.
	readyAfter   int
	status2Reads int
}

func newFakeBus(regs map[byte]byte) *fakeBus {
	if regs == nil {
		regs = map[byte]byte{}
	}
	return &fakeBus{regs: regs}
}

func (f *fakeBus) String() string { return "fakebus" }

func (f *fakeBus) SetSpeed(physic.Frequency) error { return nil }

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if addr != SensorAddress {
		return errors.New("unexpected device address")
	}
	if len(w) == 0 {
		return errors.New("missing register pointer")
	}
	reg := w[0]
	if f.failReg != 0 && reg == f.failReg {
		return errInjected
	}
	if len(r) == 0 {
		// Register write.
		for i, v := range w[1:] {
			f.regs[reg+byte(i)] = v
		}
		return nil
	}
	// Pointer write followed by a burst read.
	for i := range r {
		r[i] = f.regs[reg+byte(i)]
	}
	if reg == regStatus2 {
		f.status2Reads++
		if f.readyAfter > 0 {
			if f.status2Reads >= f.readyAfter {
				r[0] |= status2AValid
			} else {
				r[0] &^= status2AValid
			}
		}
	}
	return nil
}

func newTestDev(bus i2c.Bus, timeout time.Duration) *Dev {
	return &Dev{
		c:       &i2c.Dev{Bus: bus, Addr: SensorAddress},
		timeout: timeout,
		now:     time.Now,
	}
}

// fakeClock advances by a fixed step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (f *fakeClock) Now() time.Time {
	f.t = f.t.Add(f.step)
	return f.t
}

func TestNewI2C(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			// Bank 0; the device powers up with REG_BANK set here to prove
			// the bit gets cleared.
			{Addr: SensorAddress, W: []byte{regCfg0}, R: []byte{0x10}},
			{Addr: SensorAddress, W: []byte{regCfg0, 0x00}},
			// PON.
			{Addr: SensorAddress, W: []byte{regEnable}, R: []byte{0x00}},
			{Addr: SensorAddress, W: []byte{regEnable, 0x01}},
			// auto_smux = 3.
			{Addr: SensorAddress, W: []byte{regCfg20}, R: []byte{0x00}},
			{Addr: SensorAddress, W: []byte{regCfg20, 0x60}},
			// Default gain 16x.
			{Addr: SensorAddress, W: []byte{regCfg0}, R: []byte{0x00}},
			{Addr: SensorAddress, W: []byte{regCfg0, 0x00}},
			{Addr: SensorAddress, W: []byte{regCfg1}, R: []byte{0x00}},
			{Addr: SensorAddress, W: []byte{regCfg1, 0x05}},
			// SP_EN.
			{Addr: SensorAddress, W: []byte{regEnable}, R: []byte{0x01}},
			{Addr: SensorAddress, W: []byte{regEnable, 0x03}},
		},
	}
	if _, err := NewI2C(&bus, nil); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewI2C_busFailure(t *testing.T) {
	bus := newFakeBus(nil)
	bus.failReg = regCfg20
	if _, err := NewI2C(bus, nil); err == nil {
		t.Fatal("expected initialization to fail")
	}
}

func TestSetIntegrationTime(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: SensorAddress, W: []byte{regCfg0}, R: []byte{0x00}},
			{Addr: SensorAddress, W: []byte{regCfg0, 0x00}},
			{Addr: SensorAddress, W: []byte{regATime, 0x01}},
			// ASTEP 20000 = 0x4E20, little-endian across the two registers.
			{Addr: SensorAddress, W: []byte{regAStepL, 0x20}},
			{Addr: SensorAddress, W: []byte{regAStepH, 0x4E}},
		},
	}
	d := newTestDev(&bus, time.Second)
	if err := d.SetIntegrationTime(0x01, 20000); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetGain(t *testing.T) {
	for g := GainHalf; g <= Gain2048x; g++ {
		bus := newFakeBus(map[byte]byte{
			regCfg0: 0x10, // start in bank 1
			regCfg1: 0xE0, // upper bits must survive the RMW
		})
		d := newTestDev(bus, time.Second)
		if err := d.SetGain(g); err != nil {
			t.Fatalf("gain %d: %v", g, err)
		}
		if got, want := bus.regs[regCfg1], 0xE0|byte(g); got != want {
			t.Errorf("gain %d: CFG1 = %#02x, want %#02x", g, got, want)
		}
		if bus.regs[regCfg0]&cfg0RegBank != 0 {
			t.Errorf("gain %d: left device in bank 1", g)
		}
	}
}

func TestSetGain_invalid(t *testing.T) {
	d := newTestDev(newFakeBus(nil), time.Second)
	if err := d.SetGain(Gain2048x + 1); err != ErrInvalidGain {
		t.Fatalf("err = %v, want ErrInvalidGain", err)
	}
}

func TestIsConnected(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		bus := newFakeBus(map[byte]byte{regID: DeviceID})
		d := newTestDev(bus, time.Second)
		ok, err := d.IsConnected()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Error("expected a match")
		}
		if bus.regs[regCfg0]&cfg0RegBank != 0 {
			t.Error("left device in bank 1")
		}
	})
	t.Run("mismatch", func(t *testing.T) {
		bus := newFakeBus(map[byte]byte{regID: 0x42})
		d := newTestDev(bus, time.Second)
		ok, err := d.IsConnected()
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("expected a mismatch")
		}
		if bus.regs[regCfg0]&cfg0RegBank != 0 {
			t.Error("left device in bank 1")
		}
	})
	t.Run("read failure", func(t *testing.T) {
		bus := newFakeBus(nil)
		bus.failReg = regID
		d := newTestDev(bus, time.Second)
		ok, err := d.IsConnected()
		if err == nil || ok {
			t.Errorf("got (%t, %v), want a failure", ok, err)
		}
		// The bank restore still ran.
		if bus.regs[regCfg0]&cfg0RegBank != 0 {
			t.Error("left device in bank 1")
		}
	})
}

func TestWaitDataReady_timeout(t *testing.T) {
	bus := newFakeBus(nil) // STATUS2 stays 0
	d := newTestDev(bus, 50*time.Millisecond)
	clock := &fakeClock{step: 10 * time.Millisecond}
	d.now = clock.Now
	if err := d.waitDataReady(); err != ErrDataNotReady {
		t.Fatalf("err = %v, want ErrDataNotReady", err)
	}
	// One elapsed-time check per poll: the loop must stop within one poll
	// interval of the 50ms window, which at 10ms per reading is 5 polls.
	if bus.status2Reads != 5 {
		t.Errorf("polled %d times, want 5", bus.status2Reads)
	}
}

func TestWaitDataReady_ready(t *testing.T) {
	bus := newFakeBus(nil)
	bus.readyAfter = 3
	d := newTestDev(bus, time.Second)
	clock := &fakeClock{step: time.Millisecond}
	d.now = clock.Now
	if err := d.waitDataReady(); err != nil {
		t.Fatal(err)
	}
	// Returns as soon as the bit is observed, well before the timeout.
	if bus.status2Reads != 3 {
		t.Errorf("polled %d times, want 3", bus.status2Reads)
	}
}

func TestReadAllChannels(t *testing.T) {
	regs := map[byte]byte{regStatus2: status2AValid}
	var want [NumChannels]uint16
	for i := 0; i < NumChannels; i++ {
		v := uint16(1000 + 517*i)
		want[i] = v
		regs[regData0L+byte(2*i)] = byte(v)
		regs[regData0L+byte(2*i)+1] = byte(v >> 8)
	}
	d := newTestDev(newFakeBus(regs), time.Second)
	got, err := d.ReadAllChannels()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("channel mismatch (-want +got):\n%s", diff)
	}
}

func TestReadAllChannels_burstFailure(t *testing.T) {
	bus := newFakeBus(map[byte]byte{regStatus2: status2AValid})
	// Fail the 10th of the 18 bursts.
	bus.failReg = regData0L + byte(2*9)
	d := newTestDev(bus, time.Second)
	if _, err := d.ReadAllChannels(); !errors.Is(err, errInjected) {
		t.Fatalf("err = %v, want the injected failure", err)
	}
}

func TestSortChannels(t *testing.T) {
	var raw [NumChannels]uint16
	for i := range raw {
		raw[i] = uint16(i)
	}
	want := [NumSortedChannels]uint16{12, 6, 0, 7, 8, 15, 1, 2, 9, 13, 14, 3}
	got := SortChannels(raw)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("permutation mismatch (-want +got):\n%s", diff)
	}
	// Re-deriving from the frozen snapshot yields the same view.
	if again := SortChannels(raw); again != got {
		t.Errorf("second derivation differs: %v != %v", again, got)
	}
}

func TestSortedChannels(t *testing.T) {
	regs := map[byte]byte{regStatus2: status2AValid}
	for i := 0; i < NumChannels; i++ {
		regs[regData0L+byte(2*i)] = byte(i)
	}
	d := newTestDev(newFakeBus(regs), time.Second)
	got, err := d.SortedChannels()
	if err != nil {
		t.Fatal(err)
	}
	want := [NumSortedChannels]uint16{12, 6, 0, 7, 8, 15, 1, 2, 9, 13, 14, 3}
	if got != want {
		t.Errorf("SortedChannels() = %v, want %v", got, want)
	}
}

func TestReadSingleChannel(t *testing.T) {
	regs := map[byte]byte{
		regStatus2:                         status2AValid,
		regData0L + byte(2*ChannelNIR):     0x34,
		regData0L + byte(2*ChannelNIR) + 1: 0x12,
	}
	d := newTestDev(newFakeBus(regs), time.Second)
	v, err := d.ReadSingleChannel(ChannelNIR)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1234 {
		t.Errorf("value = %#04x, want 0x1234", v)
	}
	if _, err := d.ReadSingleChannel(Channel(NumChannels)); err != ErrInvalidChannel {
		t.Errorf("err = %v, want ErrInvalidChannel", err)
	}
}

func TestHalt(t *testing.T) {
	bus := newFakeBus(map[byte]byte{regEnable: enablePON | enableSP})
	d := newTestDev(bus, time.Second)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if bus.regs[regEnable]&(enablePON|enableSP) != 0 {
		t.Errorf("ENABLE = %#02x, want PON and SP_EN cleared", bus.regs[regEnable])
	}
}
