// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled drives the handheld's 7-pin SPI SSD1306 status display and
// renders its few screens: splash, mode/precision, and a live spectrum bar
// chart.
//
// The panel is write-only: commands and frame data share one SPI link, with
// a data/command GPIO selecting between them.
package oled
