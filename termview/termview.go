// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a 1D display.Drawer that previews the 12
// sorted spectral bands on the terminal (stdout) using ANSI color codes.
//
// Useful while bringing the handheld up on a desk, before the OLED is
// wired.
package termview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Wavelengths lists the center wavelength in nanometers of each sorted
// band, low to high.
var Wavelengths = [12]int{405, 425, 450, 475, 515, 550, 555, 600, 640, 690, 745, 855}

// Opts represents the options available for this display.
type Opts struct {
	Palette *ansi256.Palette

	_ struct{}
}

// Dev renders one terminal cell per spectral band, colored by the band's
// wavelength and scaled in brightness by its reading.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette

	pixels []byte
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := ansi256.Default
	if opts != nil && opts.Palette != nil {
		p = opts.Palette
	}
	return &Dev{
		w:       colorable.NewColorableStdout(),
		palette: *p,
		pixels:  make([]byte, 3*len(Wavelengths)),
	}
}

func (d *Dev) String() string {
	return "termview"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the shell is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// RenderSpectrum draws one colored cell per band, brightness scaled to the
// strongest channel.
func (d *Dev) RenderSpectrum(sorted [12]uint16) error {
	max := uint16(1)
	for _, v := range sorted {
		if v > max {
			max = v
		}
	}
	for i, v := range sorted {
		c := waveColor(Wavelengths[i])
		d.pixels[3*i] = byte(int(c.R) * int(v) / int(max))
		d.pixels[3*i+1] = byte(int(c.G) * int(v) / int(max))
		d.pixels[3*i+2] = byte(int(c.B) * int(v) / int(max))
	}
	_, err := d.refresh()
	return err
}

// Write accepts a stream of raw RGB pixels and writes it to the console.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != len(d.pixels) {
		return 0, errors.New("invalid RGB stream length")
	}
	copy(d.pixels, pixels)
	return d.refresh()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: len(Wavelengths), Y: 1}}
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX3 := 3 * (r.Min.X - srcR.Min.X)
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		dX3 := 3*sX + deltaX3
		d.pixels[dX3] = byte(r16 >> 8)
		d.pixels[dX3+1] = byte(g16 >> 8)
		d.pixels[dX3+2] = byte(b16 >> 8)
	}
	_, err := d.refresh()
	return err
}

func (d *Dev) refresh() (int, error) {
	// Minimize per-call allocations; this runs once per measurement cycle.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < len(d.pixels)/3; i++ {
		c := color.NRGBA{d.pixels[3*i], d.pixels[3*i+1], d.pixels[3*i+2], 255}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, err := d.buf.WriteTo(d.w)
	return len(d.pixels), err
}

// waveColor approximates the perceived color of a wavelength in nanometers.
// Bands past the visible range (745 and 855nm) are shown gray.
func waveColor(nm int) color.NRGBA {
	w := float64(nm)
	var r, g, b float64
	switch {
	case w < 380:
	case w < 440:
		r = (440 - w) / (440 - 380)
		b = 1
	case w < 490:
		g = (w - 440) / (490 - 440)
		b = 1
	case w < 510:
		g = 1
		b = (510 - w) / (510 - 490)
	case w < 580:
		r = (w - 510) / (580 - 510)
		g = 1
	case w < 645:
		r = 1
		g = (645 - w) / (645 - 580)
	case w <= 720:
		r = 1
	default:
		r, g, b = 0.6, 0.6, 0.6
	}
	return color.NRGBA{byte(r * 255), byte(g * 255), byte(b * 255), 255}
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
