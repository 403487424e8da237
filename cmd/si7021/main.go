// Si7021 reads and configures a Si7021 humidity and temperature sensor on
// an I2C bus, and can export its readings to Prometheus or MQTT.
//
// Usage:
//
//	si7021 [command] [flags]
//
// See 'si7021 --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calmh/si7021"
	"github.com/calmh/si7021/i2c"
	"github.com/calmh/si7021/internal/config"
	"github.com/calmh/si7021/internal/logging"
)

// Set by the linker.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "si7021",
	Short:         "Si7021 humidity and temperature sensor tool",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configFile string
	busBackend string
	busDevice  string
	logLevel   string
)

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&busBackend, "backend", "", "I2C backend (sysfs, periph)")
	rootCmd.PersistentFlags().StringVar(&busDevice, "device", "", "I2C device path or bus name")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// session is what every command needs: the loaded configuration, a
// logger and an open device.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	bus    i2c.Bus
	dev    *si7021.Device
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Bus.Backend = busBackend
	}
	if flags.Changed("device") {
		cfg.Bus.Device = busDevice
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	bus, err := i2c.Open(cfg.Bus.Backend, cfg.Bus.Device)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened bus", zap.String("backend", cfg.Bus.Backend), zap.String("device", cfg.Bus.Device))

	return &session{
		cfg:    cfg,
		logger: logger,
		bus:    bus,
		dev:    si7021.New(bus),
	}, nil
}

func (s *session) Close() {
	if err := s.bus.Close(); err != nil {
		s.logger.Warn("Close bus failed", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// applySetup writes the startup settings from the configuration.
func (s *session) applySetup() error {
	if name := s.cfg.Setup.Resolution; name != "" {
		r, err := si7021.ParseResolution(name)
		if err != nil {
			return err
		}
		if err := s.dev.SetMeasurementResolution(r); err != nil {
			return fmt.Errorf("set resolution: %w", err)
		}
		s.logger.Info("Set resolution", zap.Stringer("resolution", r))
	}
	if h := s.cfg.Setup.Heater; h != "" {
		level, on, err := config.ParseHeater(h)
		if err != nil {
			return err
		}
		if err := setHeater(s.dev, level, on); err != nil {
			return fmt.Errorf("set heater: %w", err)
		}
		s.logger.Info("Set heater", zap.Bool("on", on), zap.Uint8("level", level))
	}
	return nil
}

func setHeater(dev *si7021.Device, level uint8, on bool) error {
	if !on {
		return dev.DisableHeater()
	}
	return dev.SetHeater(level)
}
