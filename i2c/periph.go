package i2c

import (
	"fmt"

	periphi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// periph buses already have the drivers.I2C shape.
var _ Bus = periphi2c.BusCloser(nil)

// OpenPeriph initialises the periph host drivers and opens the named I2C
// bus. An empty name opens the first bus found.
func OpenPeriph(name string) (Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus: %w", err)
	}
	return bus, nil
}
