package si7021

import (
	"fmt"
	"strings"
)

// User register 1 layout.
//
//	bit 7   RES1  measurement resolution, high bit
//	bit 6   VDDS  VDD status, read only (1 = low supply)
//	bit 2   HTRE  on-chip heater enable
//	bit 0   RES0  measurement resolution, low bit
//
// The remaining bits are reserved and written back unchanged.
const (
	userResolutionMask = 0x81
	userVDDSMask       = 0x40
	userHeaterMask     = 0x04
)

// Heater control register: bits 3-0 set the heater current, bits 7-4 are
// reserved.
const (
	heaterLevelMask = 0x0f
	MaxHeaterLevel  = 0x0f
)

// Resolution is the measurement resolution, encoded as it appears in bits
// 0 and 7 of the user register.
type Resolution byte

const (
	Rh12Temp14 Resolution = 0x00
	Rh8Temp12  Resolution = 0x01
	Rh10Temp10 Resolution = 0x80
	Rh11Temp11 Resolution = 0x81
)

var resolutionNames = map[Resolution]string{
	Rh12Temp14: "rh12-temp14",
	Rh8Temp12:  "rh8-temp12",
	Rh10Temp10: "rh10-temp10",
	Rh11Temp11: "rh11-temp11",
}

func (r Resolution) String() string {
	if s, ok := resolutionNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Resolution(0x%02x)", byte(r))
}

// HumidityBits returns the humidity resolution in bits.
func (r Resolution) HumidityBits() int {
	switch r {
	case Rh8Temp12:
		return 8
	case Rh10Temp10:
		return 10
	case Rh11Temp11:
		return 11
	default:
		return 12
	}
}

// TemperatureBits returns the temperature resolution in bits.
func (r Resolution) TemperatureBits() int {
	switch r {
	case Rh8Temp12:
		return 12
	case Rh10Temp10:
		return 10
	case Rh11Temp11:
		return 11
	default:
		return 14
	}
}

// ParseResolution accepts the names printed by Resolution.String,
// case-insensitively.
func ParseResolution(s string) (Resolution, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range resolutionNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("si7021: unknown resolution %q", s)
}

// UserRegister is the value of user register 1.
type UserRegister byte

// Resolution returns the configured measurement resolution.
func (u UserRegister) Resolution() Resolution {
	switch byte(u) & userResolutionMask {
	case 0x00:
		return Rh12Temp14
	case 0x01:
		return Rh8Temp12
	case 0x80:
		return Rh10Temp10
	default:
		return Rh11Temp11
	}
}

// WithResolution returns u with bits 0 and 7 replaced by r. All other bits,
// including the read-only VDD status bit, are kept.
func (u UserRegister) WithResolution(r Resolution) UserRegister {
	return UserRegister(byte(u)&^userResolutionMask | byte(r)&userResolutionMask)
}

// HeaterEnabled reports whether the on-chip heater is on.
func (u UserRegister) HeaterEnabled() bool {
	return byte(u)&userHeaterMask != 0
}

// WithHeaterEnabled returns u with only the heater enable bit changed.
func (u UserRegister) WithHeaterEnabled(on bool) UserRegister {
	v := byte(u) &^ userHeaterMask
	if on {
		v |= userHeaterMask
	}
	return UserRegister(v)
}

// VDDLow reports the VDD status bit: the supply is below the minimum
// operating voltage.
func (u UserRegister) VDDLow() bool {
	return byte(u)&userVDDSMask != 0
}

// HeaterRegister is the value of the heater control register.
type HeaterRegister byte

// Level returns the heater current setting, 0 to 15.
func (h HeaterRegister) Level() uint8 {
	return byte(h) & heaterLevelMask
}

// WithLevel returns h with the heater current set to level. The reserved
// upper nibble is kept.
func (h HeaterRegister) WithLevel(level uint8) (HeaterRegister, error) {
	if level > MaxHeaterLevel {
		return h, ErrInvalidHeaterLevel
	}
	return HeaterRegister(byte(h)&^heaterLevelMask | level), nil
}
