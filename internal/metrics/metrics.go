// Package metrics exports Si7021 readings to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/calmh/si7021"
	"github.com/calmh/si7021/internal/mathx"
)

const (
	namespace = "sensors"
	subsystem = "si7021"
)

// Exporter refreshes the cached reading and the heater state at most once
// per maxAge each, however often it is scraped.
type Exporter struct {
	cached *si7021.Cached
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time

	heaterMut    sync.Mutex
	heaterCached time.Time
	lastOn       bool
	lastLevel    uint8

	humidity      prometheus.GaugeFunc
	temperature   prometheus.GaugeFunc
	heaterEnabled prometheus.GaugeFunc
	heaterLevel   prometheus.GaugeFunc
	info          *prometheus.GaugeVec
	readErrors    *prometheus.CounterVec
}

func Register(reg prometheus.Registerer, cached *si7021.Cached, maxAge time.Duration, logger *zap.Logger) *Exporter {
	e := &Exporter{
		cached: cached,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
	factory := promauto.With(reg)

	e.readErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "read_errors_total",
		Help:      "Failed sensor reads by kind.",
	}, []string{"kind"})
	for _, kind := range []string{KindChecksum, KindSequence, KindBus, KindOther} {
		e.readErrors.WithLabelValues(kind)
	}

	e.info = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "info",
		Help:      "Device identity, always 1.",
	}, []string{"serial", "firmware", "resolution"})

	e.humidity = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "humidity_percent",
		Help:      "Relative humidity.",
	}, func() float64 {
		e.refresh()
		return mathx.Round(si7021.RelativeHumidity(e.cached.Humidity()), 2)
	})

	e.temperature = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "temperature_celsius",
		Help:      "Temperature measured during the humidity conversion.",
	}, func() float64 {
		e.refresh()
		return mathx.Round(si7021.Celsius(e.cached.Temperature()), 2)
	})

	e.heaterEnabled = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "heater_enabled",
		Help:      "1 if the on-chip heater is on.",
	}, func() float64 {
		_, on, err := e.heater()
		if err != nil || !on {
			return 0
		}
		return 1
	})

	e.heaterLevel = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "heater_level",
		Help:      "Heater current setting, 0 to 15, or -1 when off.",
	}, func() float64 {
		level, on, err := e.heater()
		if err != nil || !on {
			return -1
		}
		return float64(level)
	})

	return e
}

// SetInfo publishes the device identity and measurement resolution.
func (e *Exporter) SetInfo(info si7021.Info, res si7021.Resolution) {
	e.info.Reset()
	e.info.WithLabelValues(si7021.FormatSerial(info.SerialNumber), info.Firmware.String(), res.String()).Set(1)
}

func (e *Exporter) refresh() {
	if err := e.cached.Refresh(e.maxAge); err != nil {
		e.readErrors.WithLabelValues(Kind(err)).Inc()
		e.logger.Warn("Refresh failed", zap.Error(err))
	}
}

// heater returns the heater state, reading the device unless the last
// successful read is younger than maxAge.
func (e *Exporter) heater() (level uint8, on bool, err error) {
	e.heaterMut.Lock()
	defer e.heaterMut.Unlock()

	if !e.heaterCached.IsZero() && e.now().Sub(e.heaterCached) < e.maxAge {
		return e.lastLevel, e.lastOn, nil
	}

	err = e.cached.Do(func(d *si7021.Device) error {
		level, on, err = d.Heater()
		return err
	})
	if err != nil {
		e.readErrors.WithLabelValues(Kind(err)).Inc()
		e.logger.Warn("Read heater failed", zap.Error(err))
		return 0, false, err
	}

	e.lastLevel = level
	e.lastOn = on
	e.heaterCached = e.now()
	return level, on, nil
}

// Error kinds used as metric labels.
const (
	KindChecksum = "checksum"
	KindSequence = "sequence"
	KindBus      = "bus"
	KindOther    = "other"
)

// Kind classifies a read error.
func Kind(err error) string {
	var be *si7021.BusError
	switch {
	case errors.Is(err, si7021.ErrChecksum):
		return KindChecksum
	case errors.Is(err, si7021.ErrNoPreviousHumidity):
		return KindSequence
	case errors.As(err, &be):
		return KindBus
	default:
		return KindOther
	}
}

// Serve exposes the gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
