// Package trigger turns landed source files and remote requests into merge
// run requests published on a typed event bus.
package trigger

import (
	"fmt"
	"time"

	"github.com/kilianp07/manifests/internal/eventbus"
)

// Source names reported on events.
const (
	SourceWatch  = "watch"
	SourceMQTT   = "mqtt"
	SourceManual = "manual"
)

// Event asks for one merge run.
type Event struct {
	Source string    `json:"source"`
	Path   string    `json:"path,omitempty"`
	Time   time.Time `json:"time"`
}

// Bus carries trigger events to the service.
type Bus = eventbus.TypedBus[Event]

// NewBus returns an empty trigger bus.
func NewBus() *Bus { return eventbus.NewTyped[Event]() }

// Config groups the trigger sources.
type Config struct {
	Watch WatchConfig `json:"watch"`
	MQTT  MQTTConfig  `json:"mqtt"`
}

// WatchConfig enables the filesystem watcher.
type WatchConfig struct {
	Enabled bool `json:"enabled"`
	// DebounceMS coalesces bursts of writes into a single event.
	DebounceMS int `json:"debounce_ms"`
}

// Debounce returns the configured debounce window.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// MQTTConfig enables a remote trigger topic.
type MQTTConfig struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
	// BackoffMS is the maximum delay between reconnect attempts.
	BackoffMS int `json:"backoff_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = 2000
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "manifests/merge"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "manifests"
	}
	if c.MQTT.BackoffMS == 0 {
		c.MQTT.BackoffMS = 10000
	}
}

// Validate checks the enabled sources.
func (c Config) Validate() error {
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("trigger: negative debounce")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("trigger: mqtt broker required")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("trigger: invalid mqtt qos %d", c.MQTT.QoS)
	}
	return nil
}
