package si7021

import (
	"errors"
	"fmt"
)

// Errors returned by the decoders and the device.
var (
	// ErrChecksum means a received checksum byte did not match the data it
	// covers. The transfer was corrupted or misread; nothing is re-read.
	ErrChecksum = errors.New("si7021: checksum mismatch")

	// ErrNoPreviousHumidity is returned when reading the temperature of the
	// last humidity conversion before any humidity conversion has been made.
	ErrNoPreviousHumidity = errors.New("si7021: no previous humidity measurement")

	// ErrInvalidHeaterLevel is returned for heater levels above 15.
	ErrInvalidHeaterLevel = errors.New("si7021: invalid heater level")
)

// A BusError is a failed transfer on the underlying bus. Op names the
// command that was being issued.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("si7021: %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
