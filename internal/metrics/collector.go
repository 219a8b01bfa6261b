package metrics

import (
	"encoding/json"
	"os"
	"sync"

	"overlay-client/internal/events"
)

// Counters is the aggregate view flushed at the end of a run.
type Counters struct {
	MessagesSent     uint64 `json:"messages_sent"`
	MessagesReceived uint64 `json:"messages_received"`
	PacketsSent      uint64 `json:"packets_sent"`
	PacketsReceived  uint64 `json:"packets_received"`
	NodesStarted     uint64 `json:"nodes_started"`
	NodesStopped     uint64 `json:"nodes_stopped"`
}

// Collector tallies node events.
type Collector struct {
	mu sync.Mutex
	Counters
}

func NewCollector() *Collector {
	return &Collector{}
}

// Observe folds one event into the counters.
func (c *Collector) Observe(ev events.Event) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Type {
	case events.EventMessageSent:
		c.MessagesSent++
	case events.EventMessageReceived:
		c.MessagesReceived++
	case events.EventPacketSent:
		c.PacketsSent++
	case events.EventPacketReceived:
		c.PacketsReceived++
	case events.EventNodeStarted:
		c.NodesStarted++
	case events.EventNodeStopped:
		c.NodesStopped++
	}
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Counters
}

// Flush writes the counters to file as indented JSON.
func (c *Collector) Flush(file string) error {
	snap := c.Snapshot()
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
