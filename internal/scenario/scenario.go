package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"overlay-client/internal/client"
	"overlay-client/internal/message"
)

// ClientCfg describes one client node: its identity and the actions it
// replays at startup.
type ClientCfg struct {
	ID      message.NodeID  `yaml:"id" json:"id"`
	Actions []client.Action `yaml:"actions" json:"actions"`
}

// Scenario is the demo harness configuration.
type Scenario struct {
	Pace        Duration    `yaml:"pace" json:"pace"`
	HTTPAddr    string      `yaml:"http_addr" json:"http_addr"`
	MQTTBroker  string      `yaml:"mqtt_broker" json:"mqtt_broker"`
	MetricsFile string      `yaml:"metrics_file" json:"metrics_file"`
	Clients     []ClientCfg `yaml:"clients" json:"clients"`
}

// Duration accepts both "150ms" strings and integer nanoseconds in YAML and
// JSON scenario files.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("scenario: bad duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("scenario: bad duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("scenario: bad duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("scenario: bad duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Load reads a YAML scenario, falling back to JSON for the same schema.
func Load(path string) (*Scenario, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{}
	if yaml.Unmarshal(f, sc) == nil {
		return sc.validated()
	}
	if err := json.Unmarshal(f, sc); err != nil {
		return nil, err
	}
	return sc.validated()
}

func (sc *Scenario) validated() (*Scenario, error) {
	if len(sc.Clients) == 0 {
		return nil, fmt.Errorf("scenario: no clients configured")
	}
	seen := make(map[message.NodeID]bool, len(sc.Clients))
	for _, c := range sc.Clients {
		if seen[c.ID] {
			return nil, fmt.Errorf("scenario: duplicate client id %d", c.ID)
		}
		seen[c.ID] = true
	}
	if sc.Pace <= 0 {
		sc.Pace = Duration(150 * time.Millisecond)
	}
	return sc, nil
}
