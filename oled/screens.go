// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import (
	"image"
	"image/draw"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// The status screens take a display.Drawer rather than *Dev so they can be
// rendered off-hardware in tests and onto other panels.

// DrawSplash paints the power-on screen.
func DrawSplash(d display.Drawer) error {
	img := image1bit.NewVerticalLSB(d.Bounds())
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(19, 28)
	drawer.DrawString("SPECTRO  READY")
	drawer.Dot = fixed.P(50, 48)
	drawer.DrawString("GO >")
	return d.Draw(d.Bounds(), img, image.Point{})
}

// DrawModeScreen paints the current operating mode and precision preset.
func DrawModeScreen(d display.Drawer, mode, precision string) error {
	img := image1bit.NewVerticalLSB(d.Bounds())
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(4, 24)
	drawer.DrawString("MODE: " + mode)
	drawer.Dot = fixed.P(4, 44)
	drawer.DrawString("PREC: " + precision)
	return d.Draw(d.Bounds(), img, image.Point{})
}

// DrawSpectrum paints the 12 sorted channels as a bar chart, one bar per
// band from 405nm on the left to 855nm on the right, normalized to the
// strongest channel. Rendered antialiased through gg and then thresholded
// into the panel's 1-bit space.
func DrawSpectrum(d display.Drawer, sorted [12]uint16) error {
	b := d.Bounds()
	w, h := b.Dx(), b.Dy()
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 9}))

	max := uint16(1)
	for _, v := range sorted {
		if v > max {
			max = v
		}
	}
	const labelH = 11
	chartH := float64(h - labelH)
	barW := float64(w) / float64(len(sorted))
	for i, v := range sorted {
		bh := chartH * float64(v) / float64(max)
		x := float64(i) * barW
		dc.DrawRectangle(x+1, chartH-bh, barW-2, bh)
	}
	dc.Fill()
	dc.DrawString("405", 1, float64(h)-1)
	dc.DrawString("855", float64(w)-17, float64(h)-1)

	img := image1bit.NewVerticalLSB(b)
	draw.Draw(img, b, dc.Image(), image.Point{}, draw.Src)
	return d.Draw(b, img, image.Point{})
}
