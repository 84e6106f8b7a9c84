// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// spectro runs the handheld spectrophotometer: it brings up the AS7343,
// then loops acquiring measurements and emitting them on the PC link in
// the selected mode.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spectrobench/spectro/as7343"
	"github.com/spectrobench/spectro/oled"
	"github.com/spectrobench/spectro/spectroapp"
	"github.com/spectrobench/spectro/termview"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// consoleLink stands in for the serial PC link when running attached to a
// terminal: writes go to stdout and operator input is read from stdin.
type consoleLink struct {
	out   io.Writer
	lines chan string
}

func newConsoleLink() *consoleLink {
	l := &consoleLink{out: os.Stdout, lines: make(chan string, 8)}
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			l.lines <- sc.Text()
		}
		close(l.lines)
	}()
	return l
}

func (l *consoleLink) Write(p []byte) (int, error) {
	return l.out.Write(p)
}

func (l *consoleLink) ReadLine() (string, bool) {
	select {
	case s, ok := <-l.lines:
		if !ok {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

func parseMode(s string) (spectroapp.Mode, error) {
	switch s {
	case "datalog":
		return spectroapp.ModeDataLog, nil
	case "inferlocal":
		return spectroapp.ModeInferLocal, nil
	case "inferpc":
		return spectroapp.ModeInferPC, nil
	}
	return 0, fmt.Errorf("unknown mode %q; use datalog, inferlocal or inferpc", s)
}

func parsePrecision(s string) (spectroapp.Precision, error) {
	switch s {
	case "low":
		return spectroapp.PrecisionLow, nil
	case "medium":
		return spectroapp.PrecisionMedium, nil
	case "high":
		return spectroapp.PrecisionHigh, nil
	}
	return 0, fmt.Errorf("unknown precision %q; use low, medium or high", s)
}

func mainImpl() error {
	i2cID := flag.String("i2c", "", "I²C bus to use (default the first one)")
	spiID := flag.String("spi", "", "SPI port for the OLED (default the first one)")
	dcName := flag.String("dc", "GPIO25", "GPIO pin for the OLED data/command line")
	useOLED := flag.Bool("oled", false, "drive the SSD1306 status display")
	port := flag.String("port", "", "serial port of the PC link (default stdin/stdout)")
	baud := flag.Int("baud", 115200, "serial baud rate")
	modeName := flag.String("mode", "datalog", "output mode: datalog, inferlocal or inferpc")
	precisionName := flag.String("precision", "high", "integration preset: low, medium or high")
	preview := flag.Bool("preview", false, "preview the spectrum on the terminal")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args()[0])
	}

	mode, err := parseMode(*modeName)
	if err != nil {
		return err
	}
	precision, err := parsePrecision(*precisionName)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}

	var link spectroapp.Link
	if *port != "" {
		sl, err := spectroapp.OpenSerialLink(*port, *baud)
		if err != nil {
			return err
		}
		defer sl.Close()
		link = sl
	} else {
		link = newConsoleLink()
	}

	b, err := i2creg.Open(*i2cID)
	if err != nil {
		return err
	}
	defer b.Close()

	dev, err := as7343.NewI2C(b, &as7343.DefaultOpts)
	for err != nil {
		// The sensor is soldered in; if it does not answer there is nothing
		// to do but say so until the operator power-cycles.
		fmt.Fprintln(link, "AS7343 Not Found!")
		time.Sleep(500 * time.Millisecond)
		dev, err = as7343.NewI2C(b, &as7343.DefaultOpts)
	}
	for {
		ok, err := dev.IsConnected()
		if err == nil && ok {
			break
		}
		fmt.Fprintln(link, "AS7343 Not Found!")
		time.Sleep(500 * time.Millisecond)
	}
	fmt.Fprintln(link, "AS7343 Connected!")

	var panel *oled.Dev
	if *useOLED {
		p, err := spireg.Open(*spiID)
		if err != nil {
			return err
		}
		defer p.Close()
		dc := gpioreg.ByName(*dcName)
		if dc == nil {
			return fmt.Errorf("no GPIO pin named %q", *dcName)
		}
		if panel, err = oled.NewSPI(p, dc, &oled.DefaultOpts); err != nil {
			return err
		}
		if err := oled.DrawSplash(panel); err != nil {
			return err
		}
		time.Sleep(time.Second)
		if err := oled.DrawModeScreen(panel, mode.String(), precision.String()); err != nil {
			return err
		}
	}

	app, err := spectroapp.New(dev, link)
	if err != nil {
		return err
	}
	app.SetMode(mode)
	if err := app.SetPrecision(precision); err != nil {
		return err
	}

	var tv *termview.Dev
	if *preview {
		tv = termview.New(nil)
		defer tv.Halt()
	}
	if tv != nil || panel != nil {
		app.OnMeasurement = func(m spectroapp.Measurement) {
			if tv != nil {
				tv.RenderSpectrum(m.Sorted)
			}
			if panel != nil {
				oled.DrawSpectrum(panel, m.Sorted)
			}
		}
	}

	for {
		app.RunOnce()
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "spectro: %s.\n", err)
		os.Exit(1)
	}
}
