// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// SSD1306 command set, the subset this display uses.
const (
	_CHARGEPUMP          = 0x8D
	_COLUMNADDR          = 0x21
	_COMSCANDEC          = 0xC8
	_COMSCANINC          = 0xC0
	_DEACTIVATE_SCROLL   = 0x2E
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_INVERTDISPLAY       = 0xA7
	_MEMORYMODE          = 0x20
	_NORMALDISPLAY       = 0xA6
	_PAGEADDR            = 0x22
	_PAGESTARTADDRESS    = 0xB0
	_SEGREMAP            = 0xA0
	_SETCOMPINS          = 0xDA
	_SETCONTRAST         = 0x81
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETDISPLAYOFFSET    = 0xD3
	_SETHIGHCOLUMN       = 0x10
	_SETLOWCOLUMN        = 0x00
	_SETMULTIPLEX        = 0xA8
	_SETPRECHARGE        = 0xD9
	_SETSEGMENTREMAP     = 0xA1
	_SETSTARTLINE        = 0x40
	_SETVCOMDETECT       = 0xDB
)

// DefaultOpts matches the 0.96" 128x64 module on the handheld.
var DefaultOpts = Opts{
	W: 128,
	H: 64,
}

// Opts defines the options for the display.
type Opts struct {
	W int
	H int
	// Rotated flips the panel by 180° for upside-down mounting.
	Rotated bool
}

// Dev is an open handle to a 4-wire SPI SSD1306.
//
// Unlike the generic periph driver this one always pushes full pages; the
// status screens repaint rarely enough that differential updates buy
// nothing at 8MHz.
type Dev struct {
	c    spi.Conn
	dc   gpio.PinOut
	rect image.Rectangle

	// GDDRAM shadow, 8-pixel-high horizontal bands, one byte per column.
	buffer []byte
	next   *image1bit.VerticalLSB
	halted bool
}

// NewSPI returns a Dev that drives an SSD1306 display over 4-wire SPI.
//
// The display bus is unidirectional: 8MHz, mode 0, MSB first, with the dc
// pin selecting between command and data bytes. Chip select is handled by
// the port.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.W < 8 || opts.W > 128 || opts.W&7 != 0 {
		return nil, fmt.Errorf("oled: invalid width %d", opts.W)
	}
	if opts.H < 8 || opts.H > 64 || opts.H&7 != 0 {
		return nil, fmt.Errorf("oled: invalid height %d", opts.H)
	}
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("oled: a data/command pin is required")
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	c, err := p.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		c:      c,
		dc:     dc,
		rect:   image.Rect(0, 0, opts.W, opts.H),
		buffer: make([]byte, opts.W*opts.H/8),
	}
	if err := d.sendCommand(initCmd(opts)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("oled.Dev{%s, %s, %s}", d.c, d.dc, d.rect.Max)
}

// ColorModel implements display.Drawer. It is the one bit color model of
// image1bit.Bit.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer. It draws synchronously; once it returns
// the panel shows the new frame.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	var next []byte
	if img, ok := src.(*image1bit.VerticalLSB); ok && r == d.rect && img.Rect == d.rect && sp.X == 0 && sp.Y == 0 {
		// Exact size, full frame, image1bit encoding: fast path.
		next = img.Pix
	} else {
		if d.next == nil {
			d.next = image1bit.NewVerticalLSB(d.rect)
		}
		next = d.next.Pix
		draw.Src.Draw(d.next, r, src, sp)
	}
	return d.writeFrame(next)
}

// Write writes a full frame of image1bit.VerticalLSB pixels to the display.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != len(d.buffer) {
		return 0, fmt.Errorf("oled: invalid pixel stream length; expected %d bytes, got %d bytes", len(d.buffer), len(pixels))
	}
	if err := d.writeFrame(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// SetContrast changes the panel contrast.
func (d *Dev) SetContrast(level byte) error {
	return d.sendCommand([]byte{_SETCONTRAST, level})
}

// Invert the display (black on white vs white on black).
func (d *Dev) Invert(blackOnWhite bool) error {
	b := []byte{_NORMALDISPLAY}
	if blackOnWhite {
		b[0] = _INVERTDISPLAY
	}
	return d.sendCommand(b)
}

// Halt turns off the display. Any subsequent command reenables it.
func (d *Dev) Halt() error {
	d.halted = false
	err := d.sendCommand([]byte{_DISPLAYOFF})
	if err == nil {
		d.halted = true
	}
	return err
}

func initCmd(opts *Opts) []byte {
	comScan := byte(_COMSCANDEC)
	columnAddr := byte(_SETSEGMENTREMAP)
	if opts.Rotated {
		comScan = _COMSCANINC
		columnAddr = _SEGREMAP
	}
	return []byte{
		_DISPLAYOFF,
		_SETDISPLAYOFFSET, 0x00,
		_SETSTARTLINE,
		columnAddr,
		comScan,
		_SETCOMPINS, 0x12,
		_SETCONTRAST, 0xFF,
		_DISPLAYALLON_RESUME,
		_NORMALDISPLAY,
		_SETDISPLAYCLOCKDIV, 0xF0,
		_CHARGEPUMP, 0x14,
		_SETPRECHARGE, 0xF1,
		_SETVCOMDETECT, 0x40,
		_DEACTIVATE_SCROLL,
		_SETMULTIPLEX, byte(opts.H - 1),
		_MEMORYMODE, 0x00,
		_COLUMNADDR, 0, byte(opts.W - 1),
		_PAGEADDR, 0, byte(opts.H/8 - 1),
		_DISPLAYON,
	}
}

// writeFrame pushes the whole frame, page by page.
func (d *Dev) writeFrame(next []byte) error {
	copy(d.buffer, next)
	pageSize := d.rect.Dx()
	for page := 0; page < d.rect.Dy()/8; page++ {
		err := d.sendCommand([]byte{
			_PAGESTARTADDRESS | byte(page),
			_SETLOWCOLUMN,
			_SETHIGHCOLUMN,
		})
		if err != nil {
			return err
		}
		if err := d.sendData(d.buffer[page*pageSize : (page+1)*pageSize]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) sendData(c []byte) error {
	if d.halted {
		// Transparently enable the display.
		if err := d.sendCommand(nil); err != nil {
			return err
		}
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(c, nil)
}

func (d *Dev) sendCommand(c []byte) error {
	if d.halted {
		c = append([]byte{_DISPLAYON}, c...)
		d.halted = false
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx(c, nil)
}

var _ display.Drawer = &Dev{}
