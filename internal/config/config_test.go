package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calmh/si7021"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "si7021.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
bus:
  backend: periph
  device: "1"
interval: 5s
log_level: info
metrics:
  listen: 127.0.0.1:9121
mqtt:
  broker: mqtt://broker.local:1883/boat
  qos: 1
  retain: true
setup:
  resolution: rh11-temp11
  heater: "3"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Bus{Backend: "periph", Device: "1"}, cfg.Bus)
	require.Equal(t, 5*time.Second, cfg.Interval)
	require.Equal(t, 2, cfg.Decimals)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, Metrics{Listen: "127.0.0.1:9121", MaxAge: time.Second}, cfg.Metrics)
	require.Equal(t, MQTT{Broker: "mqtt://broker.local:1883/boat", QoS: 1, Retain: true}, cfg.MQTT)
	require.Equal(t, Setup{Resolution: "rh11-temp11", Heater: "3"}, cfg.Setup)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown field", "colour: blue\n"},
		{"backend", "bus:\n  backend: spidev\n"},
		{"interval", "interval: -1s\n"},
		{"qos", "mqtt:\n  qos: 3\n"},
		{"resolution", "setup:\n  resolution: rh16\n"},
		{"heater", "setup:\n  heater: \"16\"\n"},
		{"syntax", "bus: [\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseHeater(t *testing.T) {
	cases := []struct {
		in    string
		level uint8
		on    bool
	}{
		{"off", 0, false},
		{" OFF ", 0, false},
		{"0", 0, true},
		{"15", 15, true},
		{"0x0a", 10, true},
	}

	for _, tc := range cases {
		level, on, err := ParseHeater(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.level, level, tc.in)
		require.Equal(t, tc.on, on, tc.in)
	}

	_, _, err := ParseHeater("16")
	require.ErrorIs(t, err, si7021.ErrInvalidHeaterLevel)
	_, _, err = ParseHeater("hot")
	require.Error(t, err)
	_, _, err = ParseHeater("300")
	require.Error(t, err)
}
