package trigger

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/manifests/core/logger"
)

type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Subscriber publishes an event for every message received on the
// configured topic. The payload may carry {"path": "..."}; anything else
// still triggers a run.
type Subscriber struct {
	cfg MQTTConfig
	bus *Bus
	log logger.Logger
	cli pahoClient
	now func() time.Time
}

// NewSubscriber connects to the broker and subscribes to cfg.Topic. The
// subscription is restored on reconnect.
func NewSubscriber(cfg MQTTConfig, bus *Bus, log logger.Logger) (*Subscriber, error) {
	s := &Subscriber{cfg: cfg, bus: bus, log: logger.OrNop(log), now: time.Now}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.SetCleanSession(true)
	if cfg.BackoffMS > 0 {
		opts.SetMaxReconnectInterval(time.Duration(cfg.BackoffMS) * time.Millisecond)
	}
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		s.log.Infof("MQTT connected, subscribing to %s", cfg.Topic)
		if token := c.Subscribe(cfg.Topic, cfg.QoS, s.onMessage); token.Wait() && token.Error() != nil {
			s.log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		s.log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		s.log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	s.cli = c
	return s, nil
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	var req struct {
		Path string `json:"path"`
	}
	if len(msg.Payload()) > 0 {
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			s.log.Debugf("non-JSON trigger payload on %s", msg.Topic())
		}
	}
	s.bus.Publish(Event{Source: SourceMQTT, Path: req.Path, Time: s.now()})
}

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	if s.cli != nil {
		s.cli.Disconnect(250)
	}
}
