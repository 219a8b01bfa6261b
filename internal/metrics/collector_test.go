package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"overlay-client/internal/events"
)

func TestObserveTallies(t *testing.T) {
	c := NewCollector()
	for _, typ := range []events.EventType{
		events.EventNodeStarted,
		events.EventMessageSent,
		events.EventMessageSent,
		events.EventPacketSent,
		events.EventPacketReceived,
		events.EventMessageReceived,
		events.EventNodeStopped,
	} {
		c.Observe(events.Event{Type: typ})
	}

	snap := c.Snapshot()
	if snap.MessagesSent != 2 {
		t.Errorf("messages sent = %d, want 2", snap.MessagesSent)
	}
	if snap.MessagesReceived != 1 {
		t.Errorf("messages received = %d, want 1", snap.MessagesReceived)
	}
	if snap.PacketsSent != 1 || snap.PacketsReceived != 1 {
		t.Errorf("packets = %d/%d, want 1/1", snap.PacketsSent, snap.PacketsReceived)
	}
	if snap.NodesStarted != 1 || snap.NodesStopped != 1 {
		t.Errorf("nodes = %d/%d, want 1/1", snap.NodesStarted, snap.NodesStopped)
	}
}

func TestNilCollectorObserveIsNoop(t *testing.T) {
	var c *Collector
	c.Observe(events.Event{Type: events.EventMessageSent})
}

func TestFlushWritesJSON(t *testing.T) {
	c := NewCollector()
	c.Observe(events.Event{Type: events.EventPacketSent})

	path := filepath.Join(t.TempDir(), "metrics.json")
	if err := c.Flush(path); err != nil {
		t.Fatalf("flush: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got Counters
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.PacketsSent != 1 {
		t.Errorf("packets sent = %d, want 1", got.PacketsSent)
	}
}
