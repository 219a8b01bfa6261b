package events

import (
	"log"
	"time"

	"github.com/google/uuid"

	"overlay-client/internal/message"
	"overlay-client/internal/queue"
)

// Notifier is the write-only observer a node uses to report toward the
// simulation controller. Reporting is best effort: once the controller side
// has gone away, events are logged and dropped instead of failing the node.
type Notifier struct {
	node message.NodeID
	out  *queue.Queue[Event]
}

func NewNotifier(node message.NodeID, out *queue.Queue[Event]) *Notifier {
	return &Notifier{node: node, out: out}
}

// Notify stamps and forwards one event.
func (n *Notifier) Notify(typ EventType, peer message.NodeID, session uint64, payload string) {
	if n == nil || n.out == nil {
		return
	}
	e := Event{
		ID:        uuid.New(),
		Type:      typ,
		Node:      n.node,
		Peer:      peer,
		Session:   session,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	if err := n.out.Send(e); err != nil {
		log.Printf("[events] node %d: controller channel closed, dropping %s", n.node, typ)
	}
}
