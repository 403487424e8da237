// Package config holds the settings for the si7021 tool, read from a YAML
// file and overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/calmh/si7021"
	"github.com/calmh/si7021/i2c"
)

type Config struct {
	Bus      Bus           `yaml:"bus"`
	Interval time.Duration `yaml:"interval"`
	Decimals int           `yaml:"decimals"`
	LogLevel string        `yaml:"log_level"`
	Metrics  Metrics       `yaml:"metrics"`
	MQTT     MQTT          `yaml:"mqtt"`
	Setup    Setup         `yaml:"setup"`
}

type Bus struct {
	// Backend is "sysfs" or "periph".
	Backend string `yaml:"backend"`
	// Device is the character device for sysfs, or the bus name for
	// periph (empty for the first bus).
	Device string `yaml:"device"`
}

type Metrics struct {
	Listen string        `yaml:"listen"`
	MaxAge time.Duration `yaml:"max_age"`
}

type MQTT struct {
	// Broker is a URL such as mqtt://host:1883/prefix. The path becomes the
	// topic prefix.
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

// Setup is applied to the device once at startup. Empty fields leave the
// device as it is.
type Setup struct {
	Resolution string `yaml:"resolution"`
	// Heater is "off" or a level from 0 to 15.
	Heater string `yaml:"heater"`
}

func Default() Config {
	return Config{
		Bus: Bus{
			Backend: i2c.BackendSysfs,
			Device:  "/dev/i2c-1",
		},
		Interval: time.Second,
		Decimals: 2,
		Metrics: Metrics{
			Listen: ":9120",
			MaxAge: time.Second,
		},
	}
}

// Load reads the file at path on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	fd, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer fd.Close()

	dec := yaml.NewDecoder(fd)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Bus.Backend {
	case i2c.BackendSysfs, i2c.BackendPeriph:
	default:
		return fmt.Errorf("bus.backend: unknown backend %q", c.Bus.Backend)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval: must be positive, not %v", c.Interval)
	}
	if c.Decimals < 0 {
		return fmt.Errorf("decimals: must not be negative")
	}
	if c.Metrics.MaxAge < 0 {
		return fmt.Errorf("metrics.max_age: must not be negative")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos: must be 0, 1 or 2, not %d", c.MQTT.QoS)
	}
	if c.Setup.Resolution != "" {
		if _, err := si7021.ParseResolution(c.Setup.Resolution); err != nil {
			return fmt.Errorf("setup.resolution: %w", err)
		}
	}
	if c.Setup.Heater != "" {
		if _, _, err := ParseHeater(c.Setup.Heater); err != nil {
			return fmt.Errorf("setup.heater: %w", err)
		}
	}
	return nil
}

// ParseHeater parses "off" or a heater level from 0 to 15.
func ParseHeater(s string) (level uint8, on bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "off" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, false, fmt.Errorf("parse heater level %q: %w", s, err)
	}
	if v > si7021.MaxHeaterLevel {
		return 0, false, fmt.Errorf("heater level %d: %w", v, si7021.ErrInvalidHeaterLevel)
	}
	return uint8(v), true, nil
}
