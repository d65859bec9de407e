// Package stream subscribes to live sensor readings over MQTT and hands them
// to the ride calculator as a channel of samples.
package stream

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/velolab/trainsci/metrics"
)

// Config holds the broker connection settings.
type Config struct {
	BrokerHost      string
	BrokerPort      int
	Topic           string
	Username        string
	Password        string
	UseTLS          bool
	InsecureSkipTLS bool
	QueueSize       int
}

// DefaultQueueSize buffers a few seconds of 1 Hz multi-sensor traffic.
const DefaultQueueSize = 256

// Stats counts collector traffic. All fields are updated atomically.
type Stats struct {
	Received atomic.Uint64
	Invalid  atomic.Uint64
	Dropped  atomic.Uint64
}

// Collector owns the MQTT subscription and the outbound reading queue.
type Collector struct {
	cfg      Config
	client   mqtt.Client
	readings chan metrics.Reading
	done     chan struct{}
	stopOnce sync.Once
	stats    Stats
	nowFn    func() time.Time
}

// NewCollector builds a collector; Start connects it.
func NewCollector(cfg Config) *Collector {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return &Collector{
		cfg:      cfg,
		readings: make(chan metrics.Reading, cfg.QueueSize),
		done:     make(chan struct{}),
		nowFn:    time.Now,
	}
}

// Readings is the stream of decoded sensor samples.
func (c *Collector) Readings() <-chan metrics.Reading {
	return c.readings
}

// Start connects to the broker and subscribes. The subscription survives
// reconnects.
func (c *Collector) Start() error {
	opts := mqtt.NewClientOptions()

	protocol := "tcp"
	if c.cfg.UseTLS {
		protocol = "tls"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", protocol, c.cfg.BrokerHost, c.cfg.BrokerPort)
	opts.AddBroker(brokerURL)
	opts.SetClientID(fmt.Sprintf("trainsci-%d", c.nowFn().Unix()))

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}
	if c.cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipTLS})
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = c.onConnectionLost

	c.client = mqtt.NewClient(opts)

	log.Info().Str("broker", brokerURL).Str("topic", c.cfg.Topic).Msg("connecting to sensor broker")

	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop disconnects from the broker. The readings channel is never closed:
// paho may still deliver messages concurrently with the disconnect, and a
// send on a closed channel would crash the process. Safe to call twice.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.client != nil && c.client.IsConnected() {
			c.client.Disconnect(1000)
		}
		log.Info().
			Uint64("received", c.stats.Received.Load()).
			Uint64("invalid", c.stats.Invalid.Load()).
			Uint64("dropped", c.stats.Dropped.Load()).
			Msg("sensor collector stopped")
	})
}

// IsConnected reports broker connectivity.
func (c *Collector) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

func (c *Collector) onConnect(client mqtt.Client) {
	token := client.Subscribe(c.cfg.Topic, 0, c.onMessage)
	if !token.WaitTimeout(5 * time.Second) {
		log.Error().Str("topic", c.cfg.Topic).Msg("subscribe timeout")
		return
	}
	if err := token.Error(); err != nil {
		log.Error().Err(err).Str("topic", c.cfg.Topic).Msg("subscribe failed")
		return
	}
	log.Info().Str("topic", c.cfg.Topic).Msg("subscribed to sensor topic")
}

func (c *Collector) onConnectionLost(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("sensor broker connection lost, auto-reconnecting")
}

func (c *Collector) onMessage(client mqtt.Client, msg mqtt.Message) {
	c.handleMessage(msg.Payload())
}

// handleMessage decodes one payload and queues the reading. Queue overflow
// drops the sample; live display prefers fresh data over complete data.
func (c *Collector) handleMessage(payload []byte) {
	c.stats.Received.Add(1)

	var reading metrics.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		c.stats.Invalid.Add(1)
		return
	}
	if reading.PowerW == nil && reading.HRBPM == nil && reading.CadenceRPM == nil &&
		reading.SpeedMPS == nil && reading.DistanceM == nil {
		c.stats.Invalid.Add(1)
		return
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = c.nowFn()
	}

	select {
	case <-c.done:
		c.stats.Dropped.Add(1)
		return
	default:
	}
	select {
	case c.readings <- reading:
	default:
		c.stats.Dropped.Add(1)
	}
}
