package si7021

import (
	"fmt"
	"sync"
	"time"
)

// Cached wraps a Device and keeps the last humidity and temperature
// reading. Each refresh makes a single humidity conversion and takes the
// temperature recorded during it, so the two values belong together.
// Cached is safe for concurrent use.
type Cached struct {
	device      *Device
	mut         sync.Mutex
	cached      time.Time
	humidity    int32
	temperature int32
	now         func() time.Time
}

func NewCached(device *Device) *Cached {
	return &Cached{device: device, now: time.Now}
}

// Refresh reads the sensor unless the cached values are younger than age.
// On error the previous values are kept.
func (c *Cached) Refresh(age time.Duration) error {
	c.mut.Lock()
	defer c.mut.Unlock()

	if !c.cached.IsZero() && c.now().Sub(c.cached) < age {
		return nil
	}

	humidity, err := c.device.Humidity()
	if err != nil {
		return fmt.Errorf("read humidity: %w", err)
	}
	temperature, err := c.device.TemperatureFromHumidity()
	if err != nil {
		return fmt.Errorf("read temperature: %w", err)
	}

	c.humidity = humidity
	c.temperature = temperature
	c.cached = c.now()
	return nil
}

// Humidity returns the cached relative humidity in percent scaled by 100.
func (c *Cached) Humidity() int32 {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.humidity
}

// Temperature returns the cached temperature in °C scaled by 100.
func (c *Cached) Temperature() int32 {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.temperature
}

// Updated returns when the cached values were read, or the zero time.
func (c *Cached) Updated() time.Time {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.cached
}

// Do runs fn with exclusive access to the device, serialised with Refresh.
func (c *Cached) Do(fn func(d *Device) error) error {
	c.mut.Lock()
	defer c.mut.Unlock()
	return fn(c.device)
}
