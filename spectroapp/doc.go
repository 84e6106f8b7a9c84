// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spectroapp is the application layer of the spectrophotometer: it
// acquires measurements from the AS7343 driver and dispatches them by
// operating mode.
//
// Three modes exist. Data-log prints the wavelength-sorted channels, one
// line per cycle. Infer-local is a placeholder for an on-device model.
// Infer-PC streams MEAS records over the serial link and relays responses
// from the host.
//
// Precision is orthogonal to mode and maps to one of three fixed
// (ATIME, ASTEP, timeout) presets that are programmed into the sensor the
// moment precision changes.
//
// The loop is single-threaded and synchronous: one RunOnce call is one
// complete cycle, and a failed acquisition skips the cycle rather than
// aborting the process.
package spectroapp
