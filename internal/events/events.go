package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"overlay-client/internal/message"
)

type EventType string

const (
	EventNodeStarted     EventType = "NODE_STARTED"
	EventNodeStopped     EventType = "NODE_STOPPED"
	EventMessageSent     EventType = "MESSAGE_SENT"
	EventMessageReceived EventType = "MESSAGE_RECEIVED"
	EventPacketSent      EventType = "PACKET_SENT"
	EventPacketReceived  EventType = "PACKET_RECEIVED"
)

// Event is one observation reported toward the simulation controller.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Node      message.NodeID `json:"node_id"`
	Peer      message.NodeID `json:"peer_id,omitempty"`
	Session   uint64         `json:"session_id,omitempty"`
	Payload   string         `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Bus fans events out to subscribers. Slow subscribers lose events rather
// than stall the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a new channel receiving every published event.
func (b *Bus) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 100)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish sends e to all subscribers, dropping it where the buffer is full.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		select {
		case sub <- e:
		default:
			log.Println("[events] dropping event: subscriber channel is full")
		}
	}
}
