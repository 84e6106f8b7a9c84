// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package as7343

// SensorAddress is the fixed 7-bit I²C address of the AS7343.
const SensorAddress uint16 = 0x39

// DeviceID is the value of the ID register on a genuine AS7343.
const DeviceID byte = 0x81

// The register map is split in two banks selected by CFG0.REG_BANK. Bank 1
// exposes the identity registers at 0x58..0x66, bank 0 everything at 0x80 and
// above. CFG0 itself is always reachable.
const (
	// Bank 1.
	regAuxID byte = 0x58
	regRevID byte = 0x59
	regID    byte = 0x5A

	// Bank 0.
	regEnable  byte = 0x80
	regATime   byte = 0x81
	regWTime   byte = 0x83
	regSpThL   byte = 0x84
	regSpThH   byte = 0x86
	regStatus2 byte = 0x90
	regStatus  byte = 0x93
	regData0L  byte = 0x95 // 18 channels, 2 bytes each, little-endian
	regCfg0    byte = 0xBF
	regCfg1    byte = 0xC6
	regAStepL  byte = 0xD4
	regAStepH  byte = 0xD5
	regCfg20   byte = 0xD6
)

const (
	enablePON byte = 1 << 0 // power on
	enableSP  byte = 1 << 1 // spectral measurement enable

	cfg0RegBank byte = 1 << 4

	cfg1GainMask byte = 0x1F // AGAIN[4:0]

	cfg20AutoSMUXMask byte = 0x3 << 5
	cfg20AutoSMUX18   byte = 0x3 << 5 // automatic 18-channel cycling

	status2AValid byte = 1 << 6 // one full spectral cycle completed
)

// Gain is one of the 13 discrete analog gain codes of the AS7343.
type Gain uint8

const (
	GainHalf Gain = iota // 0.5x
	Gain1x
	Gain2x
	Gain4x
	Gain8x
	Gain16x
	Gain32x
	Gain64x
	Gain128x
	Gain256x
	Gain512x
	Gain1024x
	Gain2048x
)

// Channel is a physical data-register slot, in the order the device fills
// them when auto_smux cycles through all three internal cycles. The order is
// hardware defined and is not monotonic in wavelength.
type Channel uint8

const (
	ChannelFZ   Channel = iota // 450nm blue
	ChannelFY                  // 555nm green
	ChannelFXL                 // 600nm orange
	ChannelNIR                 // 855nm near infrared
	ChannelVIS1                // clear
	ChannelFD1                 // flicker detect
	ChannelF2                  // 425nm
	ChannelF3                  // 475nm
	ChannelF4                  // 515nm
	ChannelF6                  // 640nm
	ChannelVIS2                // clear
	ChannelFD2                 // flicker detect
	ChannelF1                  // 405nm
	ChannelF7                  // 690nm
	ChannelF8                  // 745nm
	ChannelF5                  // 550nm
	ChannelVIS3                // clear
	ChannelFD3                 // flicker detect
)

// NumChannels is the number of hardware data registers read per acquisition.
const NumChannels = 18

// NumSortedChannels is the number of spectral channels in the
// wavelength-ascending view: F1..F8, FZ, FY, FXL and NIR. The clear and
// flicker-detect channels are excluded.
const NumSortedChannels = 12

// sortedOrder maps each slot of the sorted view to its raw channel, ordered
// by ascending center wavelength, 405nm to 855nm.
var sortedOrder = [NumSortedChannels]Channel{
	ChannelF1,  // 405nm
	ChannelF2,  // 425nm
	ChannelFZ,  // 450nm
	ChannelF3,  // 475nm
	ChannelF4,  // 515nm
	ChannelF5,  // 550nm
	ChannelFY,  // 555nm
	ChannelFXL, // 600nm
	ChannelF6,  // 640nm
	ChannelF7,  // 690nm
	ChannelF8,  // 745nm
	ChannelNIR, // 855nm
}
