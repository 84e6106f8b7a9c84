// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package as7343 controls an AMS AS7343 14-channel spectral sensor over I²C.
//
// The device samples 18 data registers per acquisition by cycling its
// photodiode multiplexer through three internal cycles. The driver powers
// the sensor up, programs gain and integration time, polls for data ready
// and exposes both the raw 18-channel reading and a 12-channel view sorted
// by center wavelength (405nm to 855nm), which is what applications usually
// want.
//
// The register map is banked; the driver hides the banking and always leaves
// the device in bank 0.
//
// # Datasheet
//
// https://ams-osram.com/products/sensor-solutions/ambient-light-color-spectral-proximity-sensors/ams-as7343-spectral-sensor
package as7343
