package si7021

import "encoding/binary"

// Measurements are fixed point, scaled by 100: a humidity of 7292 is
// 72.92 %RH and a temperature of 2336 is 23.36 °C.

const (
	maxHumidity = 10000
	minHumidity = 0
)

// DecodeHumidity checks and converts a humidity sample [MSB, LSB, CRC].
// The result is clamped to 0..10000 since the conversion formula can leave
// that range near the extremes.
func DecodeHumidity(buf [3]byte) (int32, error) {
	if Checksum(buf[0], buf[1]) != buf[2] {
		return 0, ErrChecksum
	}
	raw := int32(binary.BigEndian.Uint16(buf[:2]))
	rh := 12500*raw/65536 - 600
	switch {
	case rh > maxHumidity:
		return maxHumidity, nil
	case rh < minHumidity:
		return minHumidity, nil
	}
	return rh, nil
}

// DecodeTemperature checks and converts a temperature sample [MSB, LSB,
// CRC].
func DecodeTemperature(buf [3]byte) (int32, error) {
	if Checksum(buf[0], buf[1]) != buf[2] {
		return 0, ErrChecksum
	}
	return DecodeTemperatureNoChecksum([2]byte{buf[0], buf[1]})
}

// DecodeTemperatureNoChecksum converts the temperature recorded during the
// last humidity conversion. The device sends no checksum for this read and
// answers 0x0000 when no humidity conversion has been made yet.
func DecodeTemperatureNoChecksum(buf [2]byte) (int32, error) {
	if buf == [2]byte{0x00, 0x00} {
		return 0, ErrNoPreviousHumidity
	}
	raw := int32(binary.BigEndian.Uint16(buf[:]))
	return 17572*raw/65536 - 4685, nil
}

// Celsius converts a temperature in hundredths of a degree to degrees.
func Celsius(centi int32) float64 {
	return float64(centi) / 100
}

// RelativeHumidity converts a humidity in hundredths of a percent to
// percent.
func RelativeHumidity(centi int32) float64 {
	return float64(centi) / 100
}
