// Package publish sends Si7021 readings to an MQTT broker.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/calmh/si7021"
)

const publishTimeout = 10 * time.Second

// Reading is the JSON payload of a state message.
type Reading struct {
	Time        time.Time `json:"time"`
	Serial      string    `json:"serial"`
	Humidity    float64   `json:"humidity_percent"`
	Temperature float64   `json:"temperature_celsius"`
}

// ClientOptions creates client options from a broker URL. The URL path,
// if any, is returned as the topic prefix; user info becomes the
// credentials.
func ClientOptions(brokerURL, clientID string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse broker URL: %w", err)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("broker URL %q has no host", brokerURL)
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	opts := paho.NewClientOptions().AddBroker(server)
	if clientID == "" {
		clientID = DefaultClientID()
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pw, ok := u.User.Password(); ok {
			opts.SetPassword(pw)
		}
	}

	return opts, strings.Trim(u.Path, "/"), nil
}

// DefaultClientID derives a stable client id from the machine id.
func DefaultClientID() string {
	id, err := machineid.ProtectedID("si7021")
	if err != nil || len(id) < 12 {
		return "si7021"
	}
	return "si7021-" + id[:12]
}

// Connect connects to the broker, waiting at most timeout.
func Connect(opts *paho.ClientOptions, timeout time.Duration) (paho.Client, error) {
	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to broker: timeout after %v", timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return client, nil
}

type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher publishes readings of one sensor.
type Publisher struct {
	client client
	topic  string
	qos    byte
	retain bool
	logger *zap.Logger
}

// New returns a Publisher sending to <prefix>/si7021/<serial>/state.
func New(c client, prefix string, serial uint64, qos byte, retain bool, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: c,
		topic:  path.Join(prefix, "si7021", si7021.FormatSerial(serial), "state"),
		qos:    qos,
		retain: retain,
		logger: logger,
	}
}

// Topic returns the state topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// Publish sends one reading and waits for it to be handed off.
func (p *Publisher) Publish(r Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	token := p.client.Publish(p.topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish: timeout after %v", publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Run reads the sensor every interval and publishes the result until ctx
// is done. Failed reads and publishes are logged and skipped.
func (p *Publisher) Run(ctx context.Context, cached *si7021.Cached, serial uint64, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.publishOnce(cached, serial); err != nil {
			p.logger.Warn("Publish reading failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Publisher) publishOnce(cached *si7021.Cached, serial uint64) error {
	if err := cached.Refresh(0); err != nil {
		return err
	}
	r := Reading{
		Time:        cached.Updated(),
		Serial:      si7021.FormatSerial(serial),
		Humidity:    si7021.RelativeHumidity(cached.Humidity()),
		Temperature: si7021.Celsius(cached.Temperature()),
	}
	if err := p.Publish(r); err != nil {
		return err
	}
	p.logger.Debug("Published reading", zap.String("topic", p.topic), zap.Float64("humidity", r.Humidity), zap.Float64("temperature", r.Temperature))
	return nil
}
