// Package si7021 is a driver for the Silicon Labs Si7021 relative humidity
// and temperature sensor.
//
// The device is reached through anything implementing drivers.I2C, which
// includes periph.io I2C buses and the adapters in the i2c subpackage. All
// calls block until the device has answered. A Device is not safe for
// concurrent use and assumes it is the only user of the bus for the
// duration of each call.
package si7021

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// Address is the fixed 7-bit bus address of the Si7021.
const Address = 0x40

// Commands, from the data sheet.
var (
	cmdMeasureHumidityHold    = []byte{0xe5}
	cmdMeasureTemperatureHold = []byte{0xe3}
	cmdReadTempFromHumidity   = []byte{0xe0}
	cmdReset                  = []byte{0xfe}
	cmdReadUserRegister       = []byte{0xe7}
	cmdWriteUserRegister      = byte(0xe6)
	cmdReadHeaterRegister     = []byte{0x11}
	cmdWriteHeaterRegister    = byte(0x51)
	cmdReadElectronicID1      = []byte{0xfa, 0x0f}
	cmdReadElectronicID2      = []byte{0xfc, 0xc9}
	cmdReadFirmwareRevision   = []byte{0x84, 0xb8}
)

// Device is a Si7021 on a bus.
type Device struct {
	bus drivers.I2C
}

// New returns a Device using bus. It does not talk to the device.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus}
}

func (d *Device) writeRead(op string, cmd, buf []byte) error {
	if err := d.bus.Tx(Address, cmd, buf); err != nil {
		return &BusError{Op: op, Err: err}
	}
	return nil
}

func (d *Device) write(op string, data []byte) error {
	if err := d.bus.Tx(Address, data, nil); err != nil {
		return &BusError{Op: op, Err: err}
	}
	return nil
}

// Humidity measures relative humidity, in percent scaled by 100.
func (d *Device) Humidity() (int32, error) {
	var buf [3]byte
	if err := d.writeRead("measure humidity", cmdMeasureHumidityHold, buf[:]); err != nil {
		return 0, err
	}
	return DecodeHumidity(buf)
}

// Temperature measures temperature, in °C scaled by 100.
func (d *Device) Temperature() (int32, error) {
	var buf [3]byte
	if err := d.writeRead("measure temperature", cmdMeasureTemperatureHold, buf[:]); err != nil {
		return 0, err
	}
	return DecodeTemperature(buf)
}

// TemperatureFromHumidity returns the temperature recorded during the last
// humidity measurement, in °C scaled by 100, without starting a new
// conversion. It returns ErrNoPreviousHumidity if there has been none.
func (d *Device) TemperatureFromHumidity() (int32, error) {
	var buf [2]byte
	if err := d.writeRead("read temperature from humidity", cmdReadTempFromHumidity, buf[:]); err != nil {
		return 0, err
	}
	return DecodeTemperatureNoChecksum(buf)
}

// SerialNumber reads the 64 bit electronic ID.
func (d *Device) SerialNumber() (uint64, error) {
	var buf SerialNumberBuffer
	if err := d.writeRead("read electronic id 1", cmdReadElectronicID1, buf.GroupA()); err != nil {
		return 0, err
	}
	if err := d.writeRead("read electronic id 2", cmdReadElectronicID2, buf.GroupB()); err != nil {
		return 0, err
	}
	return buf.Decode()
}

// FirmwareRevision reads the firmware revision byte.
func (d *Device) FirmwareRevision() (FirmwareRevision, error) {
	var buf [1]byte
	if err := d.writeRead("read firmware revision", cmdReadFirmwareRevision, buf[:]); err != nil {
		return 0, err
	}
	return FirmwareRevision(buf[0]), nil
}

// Reset issues a soft reset. The device needs up to 15 ms before it
// answers again.
func (d *Device) Reset() error {
	return d.write("reset", cmdReset)
}

// UserRegister reads user register 1.
func (d *Device) UserRegister() (UserRegister, error) {
	var buf [1]byte
	if err := d.writeRead("read user register", cmdReadUserRegister, buf[:]); err != nil {
		return 0, err
	}
	return UserRegister(buf[0]), nil
}

// HeaterRegister reads the heater control register.
func (d *Device) HeaterRegister() (HeaterRegister, error) {
	var buf [1]byte
	if err := d.writeRead("read heater register", cmdReadHeaterRegister, buf[:]); err != nil {
		return 0, err
	}
	return HeaterRegister(buf[0]), nil
}

func (d *Device) writeUserRegister(u UserRegister) error {
	return d.write("write user register", []byte{cmdWriteUserRegister, byte(u)})
}

func (d *Device) writeHeaterRegister(h HeaterRegister) error {
	return d.write("write heater register", []byte{cmdWriteHeaterRegister, byte(h)})
}

// MeasurementResolution returns the configured measurement resolution.
func (d *Device) MeasurementResolution() (Resolution, error) {
	u, err := d.UserRegister()
	if err != nil {
		return 0, err
	}
	return u.Resolution(), nil
}

// SetMeasurementResolution changes the measurement resolution, keeping the
// other user register bits.
func (d *Device) SetMeasurementResolution(r Resolution) error {
	u, err := d.UserRegister()
	if err != nil {
		return err
	}
	return d.writeUserRegister(u.WithResolution(r))
}

// Heater returns the heater level and whether the heater is on. The level
// is only read when the heater is on; otherwise it is reported as zero.
func (d *Device) Heater() (level uint8, on bool, err error) {
	u, err := d.UserRegister()
	if err != nil {
		return 0, false, err
	}
	if !u.HeaterEnabled() {
		return 0, false, nil
	}
	h, err := d.HeaterRegister()
	if err != nil {
		return 0, false, err
	}
	return h.Level(), true, nil
}

// SetHeater turns the heater on at the given level, 0 to 15.
//
// The user register and the heater register are written one after the
// other. If the second write fails the heater is left enabled at its
// previous level.
func (d *Device) SetHeater(level uint8) error {
	if level > MaxHeaterLevel {
		return ErrInvalidHeaterLevel
	}
	u, err := d.UserRegister()
	if err != nil {
		return err
	}
	h, err := d.HeaterRegister()
	if err != nil {
		return err
	}
	h, err = h.WithLevel(level)
	if err != nil {
		return err
	}
	if err := d.writeUserRegister(u.WithHeaterEnabled(true)); err != nil {
		return err
	}
	return d.writeHeaterRegister(h)
}

// DisableHeater turns the heater off. The heater level is left as is.
func (d *Device) DisableHeater() error {
	u, err := d.UserRegister()
	if err != nil {
		return err
	}
	return d.writeUserRegister(u.WithHeaterEnabled(false))
}

// FirmwareRevision is the raw firmware revision byte.
type FirmwareRevision byte

func (f FirmwareRevision) String() string {
	switch f {
	case 0xff:
		return "1.0"
	case 0x20:
		return "2.0"
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(f))
}

// Info identifies a device.
type Info struct {
	SerialNumber uint64
	Firmware     FirmwareRevision
}

// Identify reads the serial number and firmware revision.
func (d *Device) Identify() (Info, error) {
	sn, err := d.SerialNumber()
	if err != nil {
		return Info{}, fmt.Errorf("read serial number: %w", err)
	}
	fw, err := d.FirmwareRevision()
	if err != nil {
		return Info{}, fmt.Errorf("read firmware revision: %w", err)
	}
	return Info{SerialNumber: sn, Firmware: fw}, nil
}
