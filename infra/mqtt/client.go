// Package mqtt implements the core bus contract on Eclipse Paho.
package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/easycab-sim/central/core/bus"
	"github.com/easycab-sim/central/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	QoS        byte   `json:"qos"`
	MaxRetries int    `json:"max_retries"`
	BackoffMS  int    `json:"backoff_ms"`
}

// SetDefaults fills the publish retry policy and derives a unique
// client id so several coordinator tools can share one broker.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "ec-central"
	}
	c.ClientID = fmt.Sprintf("%s-%s", c.ClientID, uuid.NewString()[:8])
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 500
	}
}

// Validate checks the mandatory broker address.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker address is required")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoClient implements bus.Client. Subscriptions are replayed on every
// reconnect so ingestion resumes after a broker outage without operator
// action.
type PahoClient struct {
	cli        pahoClient
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger

	mu       sync.Mutex
	handlers map[string]bus.Handler
}

// NewPahoClient connects to the broker. An unreachable broker at launch
// is the one transport failure treated as fatal.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
		handlers:   make(map[string]bus.Handler),
	}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.SetOrderMatters(true)
	opts.SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		pc.resubscribe()
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect broker %s: %w", cfg.Broker, token.Error())
	}
	pc.cli = c
	return pc, nil
}

// Publish marshals the payload as JSON and sends it, retrying a bounded
// number of times with a fixed backoff between attempts.
func (p *PahoClient) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, false, data)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Errorf("publish %s attempt %d failed: %v", topic, attempt+1, publishErr)
		time.Sleep(p.backoff)
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Subscribe registers the handler and subscribes. The handler is
// re-attached automatically after reconnects.
func (p *PahoClient) Subscribe(topic string, h bus.Handler) error {
	p.mu.Lock()
	p.handlers[topic] = h
	p.mu.Unlock()
	return p.subscribe(topic, h)
}

func (p *PahoClient) subscribe(topic string, h bus.Handler) error {
	token := p.cli.Subscribe(topic, p.qos, func(_ paho.Client, msg paho.Message) {
		h(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

func (p *PahoClient) resubscribe() {
	p.mu.Lock()
	handlers := make(map[string]bus.Handler, len(p.handlers))
	for t, h := range p.handlers {
		handlers[t] = h
	}
	p.mu.Unlock()
	for topic, h := range handlers {
		if err := p.subscribe(topic, h); err != nil {
			p.log.Errorf("resubscribe: %v", err)
		}
	}
}

// Close gracefully disconnects from the broker.
func (p *PahoClient) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
