// Package i2c provides the buses a si7021.Device can talk through.
package i2c

import (
	"fmt"
	"io"
	"sync"

	"gobot.io/x/gobot/sysfs"
	"tinygo.org/x/drivers"
)

// A Device is typically a *sysfs.I2cDevice (gobot.io/x/gobot/sysfs).
type Device interface {
	SetAddress(address int) error
	Read(b []byte) (n int, err error)
	Write(b []byte) (n int, err error)
	Close() error
}

// A Bus is a drivers.I2C that can be closed.
type Bus interface {
	drivers.I2C
	io.Closer
}

var _ Bus = (*SysfsBus)(nil)

// SysfsBus turns an I2C character device into a drivers.I2C. A write
// followed by a read is two separate transfers rather than a repeated
// start, which works with devices that stretch the clock while busy.
type SysfsBus struct {
	dev Device
	mut sync.Mutex
}

func NewSysfsBus(dev Device) *SysfsBus {
	return &SysfsBus{dev: dev}
}

// OpenSysfs opens an I2C character device such as /dev/i2c-1.
func OpenSysfs(path string) (*SysfsBus, error) {
	dev, err := sysfs.NewI2cDevice(path)
	if err != nil {
		return nil, fmt.Errorf("open I2C device: %w", err)
	}
	return NewSysfsBus(dev), nil
}

// Tx writes w to, then reads len(r) bytes from, the device at addr.
// Either may be empty.
func (b *SysfsBus) Tx(addr uint16, w, r []byte) error {
	b.mut.Lock()
	defer b.mut.Unlock()

	if err := b.dev.SetAddress(int(addr)); err != nil {
		return fmt.Errorf("set device address: %w", err)
	}
	if len(w) > 0 {
		n, err := b.dev.Write(w)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if n != len(w) {
			return fmt.Errorf("write: %w", io.ErrShortWrite)
		}
	}
	if len(r) > 0 {
		n, err := b.dev.Read(r)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if n != len(r) {
			return fmt.Errorf("read: %w", io.ErrUnexpectedEOF)
		}
	}
	return nil
}

func (b *SysfsBus) Close() error {
	b.mut.Lock()
	defer b.mut.Unlock()
	return b.dev.Close()
}

// Open opens a bus using the named backend, "sysfs" or "periph".
func Open(backend, device string) (Bus, error) {
	switch backend {
	case "", BackendSysfs:
		return OpenSysfs(device)
	case BackendPeriph:
		return OpenPeriph(device)
	default:
		return nil, fmt.Errorf("unknown bus backend %q", backend)
	}
}

const (
	BackendSysfs  = "sysfs"
	BackendPeriph = "periph"
)
