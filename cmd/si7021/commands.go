package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calmh/si7021"
	"github.com/calmh/si7021/internal/config"
	"github.com/calmh/si7021/internal/mathx"
	"github.com/calmh/si7021/internal/metrics"
	"github.com/calmh/si7021/internal/publish"
)

func init() {
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(resolutionCmd)
	rootCmd.AddCommand(heaterCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	readInterval time.Duration
	readCount    int
	readDecimals int
	readBuffer   bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print readings as JSON lines",
	Example: `  # One reading per second, forever
  si7021 read

  # A single reading
  si7021 read --count 1`,
	Args: cobra.NoArgs,
	RunE: runRead,
}

func init() {
	readCmd.Flags().DurationVar(&readInterval, "interval", 0, "Interval between measurements (default from config)")
	readCmd.Flags().IntVar(&readCount, "count", 0, "Number of readings, 0 for no limit")
	readCmd.Flags().IntVar(&readDecimals, "decimals", -1, "Rounding precision (default from config)")
	readCmd.Flags().BoolVar(&readBuffer, "buffer", false, "Use output buffering")
}

func runRead(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.applySetup(); err != nil {
		return err
	}

	interval := s.cfg.Interval
	if readInterval > 0 {
		interval = readInterval
	}
	decimals := s.cfg.Decimals
	if readDecimals >= 0 {
		decimals = readDecimals
	}

	out := io.Writer(os.Stdout)
	if readBuffer {
		bw := bufio.NewWriter(out)
		defer bw.Flush()
		out = bw
	}
	enc := json.NewEncoder(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fields := make(map[string]interface{})
	for n := 0; readCount == 0 || n < readCount; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}

		hum, err := s.dev.Humidity()
		if err != nil {
			return fmt.Errorf("read humidity: %w", err)
		}
		temp, err := s.dev.TemperatureFromHumidity()
		if err != nil {
			return fmt.Errorf("read temperature: %w", err)
		}

		fields["when"] = time.Now()
		fields["si7021_humidity_rh"] = mathx.Round(si7021.RelativeHumidity(hum), decimals)
		fields["si7021_temperature_c"] = mathx.Round(si7021.Celsius(temp), decimals)
		if err := enc.Encode(fields); err != nil {
			return err
		}
	}
	return nil
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show serial number, firmware and configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		info, err := s.dev.Identify()
		if err != nil {
			return err
		}
		user, err := s.dev.UserRegister()
		if err != nil {
			return err
		}
		heater, err := s.dev.HeaterRegister()
		if err != nil {
			return err
		}

		fmt.Printf("Serial:     %s\n", si7021.FormatSerial(info.SerialNumber))
		fmt.Printf("Firmware:   %s\n", info.Firmware)
		fmt.Printf("Resolution: %s (RH %d bit, temperature %d bit)\n", user.Resolution(), user.Resolution().HumidityBits(), user.Resolution().TemperatureBits())
		if user.HeaterEnabled() {
			fmt.Printf("Heater:     on, level %d\n", heater.Level())
		} else {
			fmt.Printf("Heater:     off\n")
		}
		if user.VDDLow() {
			fmt.Printf("Supply:     low\n")
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Soft reset the sensor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.dev.Reset()
	},
}

var resolutionCmd = &cobra.Command{
	Use:   "resolution [rh12-temp14|rh8-temp12|rh10-temp10|rh11-temp11]",
	Short: "Show or set the measurement resolution",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 1 {
			r, err := si7021.ParseResolution(args[0])
			if err != nil {
				return err
			}
			if err := s.dev.SetMeasurementResolution(r); err != nil {
				return err
			}
		}
		r, err := s.dev.MeasurementResolution()
		if err != nil {
			return err
		}
		fmt.Println(r)
		return nil
	},
}

var heaterCmd = &cobra.Command{
	Use:   "heater [off|0-15]",
	Short: "Show or set the on-chip heater",
	Long: `Show or set the on-chip heater.

Setting a level writes the user register and then the heater register.
If the second write fails the heater is left on at its previous level.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 1 {
			level, on, err := config.ParseHeater(args[0])
			if err != nil {
				return err
			}
			if err := setHeater(s.dev, level, on); err != nil {
				return err
			}
		}
		level, on, err := s.dev.Heater()
		if err != nil {
			return err
		}
		if on {
			fmt.Printf("on, level %d\n", level)
		} else {
			fmt.Println("off")
		}
		return nil
	},
}

var (
	serveListen string
	serveMaxAge time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a Prometheus exporter",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Exporter address (default from config)")
	serveCmd.Flags().DurationVar(&serveMaxAge, "max-age", 0, "Reuse readings younger than this (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.applySetup(); err != nil {
		return err
	}

	listen := s.cfg.Metrics.Listen
	if serveListen != "" {
		listen = serveListen
	}
	maxAge := s.cfg.Metrics.MaxAge
	if serveMaxAge > 0 {
		maxAge = serveMaxAge
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	exp := metrics.Register(reg, si7021.NewCached(s.dev), maxAge, s.logger)
	if info, err := s.dev.Identify(); err != nil {
		s.logger.Warn("Identify failed", zap.Error(err))
	} else if res, err := s.dev.MeasurementResolution(); err != nil {
		s.logger.Warn("Read resolution failed", zap.Error(err))
	} else {
		exp.SetInfo(info, res)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return metrics.Serve(ctx, listen, reg, s.logger)
}

var (
	publishBroker   string
	publishInterval time.Duration
)

var publishCmd = &cobra.Command{
	Use:     "publish",
	Short:   "Publish readings to an MQTT broker",
	Example: `  si7021 publish --broker mqtt://broker.local:1883/boat --interval 30s`,
	Args:    cobra.NoArgs,
	RunE:    runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishBroker, "broker", "", "Broker URL (default from config)")
	publishCmd.Flags().DurationVar(&publishInterval, "interval", 0, "Interval between readings (default from config)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	broker := s.cfg.MQTT.Broker
	if publishBroker != "" {
		broker = publishBroker
	}
	if broker == "" {
		return fmt.Errorf("no broker given")
	}
	interval := s.cfg.Interval
	if publishInterval > 0 {
		interval = publishInterval
	}

	if err := s.applySetup(); err != nil {
		return err
	}
	sn, err := s.dev.SerialNumber()
	if err != nil {
		return fmt.Errorf("read serial number: %w", err)
	}

	opts, prefix, err := publish.ClientOptions(broker, s.cfg.MQTT.ClientID)
	if err != nil {
		return err
	}
	client, err := publish.Connect(opts, 10*time.Second)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	p := publish.New(client, prefix, sn, s.cfg.MQTT.QoS, s.cfg.MQTT.Retain, s.logger)
	s.logger.Info("Publishing", zap.String("topic", p.Topic()), zap.Duration("interval", interval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := p.Run(ctx, si7021.NewCached(s.dev), sn, interval); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "si7021 %s\n", version)
	},
}
