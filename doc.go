// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spectro contains the firmware for a handheld spectrophotometer
// built around the AMS AS7343 spectral sensor and a SPI SSD1306 status
// display.
//
// The interesting pieces live in the subpackages: as7343 is the sensor
// driver, spectroapp is the acquisition and dispatch loop, oled and
// termview render the readings. cmd/spectro ties them together into the
// device binary.
package spectro
