package transmitter

import (
	"log"

	"overlay-client/internal/command"
	"overlay-client/internal/events"
	"overlay-client/internal/message"
	"overlay-client/internal/packet"
	"overlay-client/internal/queue"
)

// Transmitter is the packet-egress worker of a node. It fragments outgoing
// application messages, forwards the resulting packets to neighbour intake
// queues and applies topology edits arriving from the controller.
type Transmitter struct {
	nodeID     message.NodeID
	commandRx  *queue.Queue[command.Command]
	nodeCmdRx  *queue.Queue[command.NodeCommand]
	outboxRx   *queue.Queue[message.Message]
	listenerRx *queue.Queue[packet.Packet]
	neighbors  map[message.NodeID]*queue.Queue[packet.Packet]
	notifier   *events.Notifier
}

func New(
	nodeID message.NodeID,
	commandRx *queue.Queue[command.Command],
	nodeCmdRx *queue.Queue[command.NodeCommand],
	outboxRx *queue.Queue[message.Message],
	listenerRx *queue.Queue[packet.Packet],
	neighbors map[message.NodeID]*queue.Queue[packet.Packet],
	notifier *events.Notifier,
) *Transmitter {
	// Own copy: the caller's map must not race with topology edits.
	links := make(map[message.NodeID]*queue.Queue[packet.Packet], len(neighbors))
	for id, q := range neighbors {
		links[id] = q
	}
	return &Transmitter{
		nodeID:     nodeID,
		commandRx:  commandRx,
		nodeCmdRx:  nodeCmdRx,
		outboxRx:   outboxRx,
		listenerRx: listenerRx,
		neighbors:  links,
		notifier:   notifier,
	}
}

func (t *Transmitter) NodeID() message.NodeID {
	return t.nodeID
}

// Run blocks until Quit arrives. Closed in-process queues are fatal.
func (t *Transmitter) Run() {
	log.Printf("[transmitter] node %d: started", t.nodeID)
	defer log.Printf("[transmitter] node %d: stopped", t.nodeID)

	for {
		// Quit first, so shutdown is not starved by a full outbox.
		select {
		case cmd, ok := <-t.commandRx.C():
			if !ok {
				panic("transmitter: command queue closed")
			}
			if cmd == command.Quit {
				return
			}
		default:
		}

		select {
		case cmd, ok := <-t.commandRx.C():
			if !ok {
				panic("transmitter: command queue closed")
			}
			if cmd == command.Quit {
				return
			}
		case nc, ok := <-t.nodeCmdRx.C():
			if !ok {
				panic("transmitter: node command queue closed")
			}
			t.applyNodeCommand(nc)
		case msg, ok := <-t.outboxRx.C():
			if !ok {
				panic("transmitter: outbox closed")
			}
			t.sendMessage(msg)
		case p, ok := <-t.listenerRx.C():
			if !ok {
				panic("transmitter: listener queue closed")
			}
			t.forward(p)
		}
	}
}

func (t *Transmitter) applyNodeCommand(nc command.NodeCommand) {
	switch nc.Kind {
	case command.AddNeighbor:
		t.neighbors[nc.Node] = nc.Link
		log.Printf("[transmitter] node %d: added neighbour %d", t.nodeID, nc.Node)
	case command.RemoveNeighbor:
		delete(t.neighbors, nc.Node)
		log.Printf("[transmitter] node %d: removed neighbour %d", t.nodeID, nc.Node)
	default:
		log.Printf("[transmitter] node %d: unknown node command %d", t.nodeID, nc.Kind)
	}
}

func (t *Transmitter) sendMessage(msg message.Message) {
	packets, err := packet.Fragment(msg)
	if err != nil {
		log.Printf("[transmitter] node %d: dropping message for %d: %v", t.nodeID, msg.Destination, err)
		return
	}
	for _, p := range packets {
		t.forward(p)
	}
	t.notifier.Notify(events.EventMessageSent, msg.Destination, msg.SessionID, msg.Content.Kind())
}

// forward delivers p to the destination's intake queue when the destination
// is a direct neighbour, and floods it to every neighbour otherwise. Path
// discovery is not this node's job.
func (t *Transmitter) forward(p packet.Packet) {
	if link, ok := t.neighbors[p.Destination]; ok {
		t.deliver(p.Destination, link, p)
		return
	}
	if len(t.neighbors) == 0 {
		log.Printf("[transmitter] node %d: no neighbours, dropping packet for %d", t.nodeID, p.Destination)
		return
	}
	for id, link := range t.neighbors {
		t.deliver(id, link, p)
	}
}

func (t *Transmitter) deliver(hop message.NodeID, link *queue.Queue[packet.Packet], p packet.Packet) {
	if err := link.Send(p); err != nil {
		log.Printf("[transmitter] node %d: neighbour %d gone, dropping packet for %d",
			t.nodeID, hop, p.Destination)
		return
	}
	t.notifier.Notify(events.EventPacketSent, p.Destination, p.SessionID, "")
}
