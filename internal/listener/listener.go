package listener

import (
	"log"

	"overlay-client/internal/command"
	"overlay-client/internal/events"
	"overlay-client/internal/message"
	"overlay-client/internal/packet"
	"overlay-client/internal/queue"
)

// Listener is the packet-intake worker of a node. It reassembles data
// fragments into whole application messages for the logic thread and hands
// acknowledgements to the transmitter.
type Listener struct {
	nodeID    message.NodeID
	networkRx *queue.Queue[packet.Packet]
	commandRx *queue.Queue[command.Command]
	inboxTx   *queue.Queue[message.Message]
	ackTx     *queue.Queue[packet.Packet]
	notifier  *events.Notifier
	assembler *packet.Assembler
}

func New(
	nodeID message.NodeID,
	networkRx *queue.Queue[packet.Packet],
	commandRx *queue.Queue[command.Command],
	inboxTx *queue.Queue[message.Message],
	ackTx *queue.Queue[packet.Packet],
	notifier *events.Notifier,
) *Listener {
	return &Listener{
		nodeID:    nodeID,
		networkRx: networkRx,
		commandRx: commandRx,
		inboxTx:   inboxTx,
		ackTx:     ackTx,
		notifier:  notifier,
		assembler: packet.NewAssembler(),
	}
}

func (l *Listener) NodeID() message.NodeID {
	return l.nodeID
}

// Run blocks until Quit arrives. Closed command or network queues indicate a
// wiring bug and are fatal.
func (l *Listener) Run() {
	log.Printf("[listener] node %d: started", l.nodeID)
	defer log.Printf("[listener] node %d: stopped", l.nodeID)

	for {
		// Quit pre-empts packet intake even under a saturated network queue.
		select {
		case cmd, ok := <-l.commandRx.C():
			if !ok {
				panic("listener: command queue closed")
			}
			if cmd == command.Quit {
				return
			}
		default:
		}

		select {
		case cmd, ok := <-l.commandRx.C():
			if !ok {
				panic("listener: command queue closed")
			}
			if cmd == command.Quit {
				return
			}
		case p, ok := <-l.networkRx.C():
			if !ok {
				panic("listener: network queue closed")
			}
			l.handlePacket(p)
		}
	}
}

func (l *Listener) handlePacket(p packet.Packet) {
	l.notifier.Notify(events.EventPacketReceived, p.Source, p.SessionID, "")

	switch p.Type {
	case packet.PKT_ACK:
		// Retry bookkeeping belongs to the transmitter; acks reaching the
		// listener are only recorded.
		log.Printf("[listener] node %d: ack from %d for session %d fragment %d",
			l.nodeID, p.Source, p.SessionID, p.FragmentIndex)
	case packet.PKT_DATA:
		if err := l.ackTx.Send(packet.Ack(p, l.nodeID)); err != nil {
			panic("listener: cannot communicate with transmitter")
		}
		msg, done, err := l.assembler.Add(p)
		if err != nil {
			log.Printf("[listener] node %d: dropping fragment from %d: %v", l.nodeID, p.Source, err)
			return
		}
		if !done {
			return
		}
		l.notifier.Notify(events.EventMessageReceived, msg.Source, msg.SessionID, msg.Content.Kind())
		if err := l.inboxTx.Send(msg); err != nil {
			panic("listener: cannot communicate with logic")
		}
	default:
		log.Printf("[listener] node %d: unknown packet type %#x from %d", l.nodeID, p.Type, p.Source)
	}
}
