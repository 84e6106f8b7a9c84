// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled_test

import (
	"log"

	"github.com/spectrobench/spectro/oled"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	dc := gpioreg.ByName("GPIO25")
	d, err := oled.NewSPI(p, dc, &oled.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	if err := oled.DrawSplash(d); err != nil {
		log.Fatal(err)
	}
}
