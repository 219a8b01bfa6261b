package client

import (
	"log"
	"math/rand"
	"time"

	"overlay-client/internal/command"
	"overlay-client/internal/message"
	"overlay-client/internal/queue"
)

// Getter is the accessor surface the driver loop needs from a logic worker.
// It promises nothing beyond returning the underlying queue handles
// unchanged; it exists so the loop below is written once.
type Getter interface {
	NodeID() message.NodeID
	CommandRx() *queue.Queue[command.Command]
	InboxRx() *queue.Queue[message.Message]
	OutboxTx() *queue.Queue[message.Message]
}

// Logic is a logic worker driven by the shared loop. Requests and errors are
// handled uniformly for every logic; only response handling differs.
type Logic interface {
	Getter
	ProcessResponse(sessionID uint64, source message.NodeID, resp *message.Response)
}

// Action is one preloaded (destination, request) pair replayed at startup.
type Action struct {
	Destination message.NodeID  `yaml:"destination" json:"destination"`
	Request     message.Request `yaml:"request" json:"request"`
}

// drive runs a logic worker to completion: the scripted phase replays each
// action with a pacing delay, then the reactive phase serves the inbox until
// Quit. Command delivery is checked before inbox delivery at every step so
// shutdown pre-empts data processing.
func drive(l Logic, actions []Action, pace time.Duration) {
	sessions := make(map[uint64]bool, len(actions))

	for _, action := range actions {
		req := action.Request
		sessionID := freshSessionID(sessions)
		msg := message.Message{
			Source:      l.NodeID(),
			Destination: action.Destination,
			SessionID:   sessionID,
			Content:     message.Content{Request: &req},
		}
		sendToTransmitter(l, msg)

		// One biased poll between sends: pacing stays coarse, the script is
		// never stalled waiting for traffic.
		if quit := pollOnce(l); quit {
			return
		}
		if quit := sleepOrQuit(l, pace); quit {
			return
		}
	}

	for {
		if quit := recvOnce(l); quit {
			return
		}
	}
}

// pollOnce drains at most one pending event without blocking, command side
// first. It reports whether Quit was received.
func pollOnce(l Logic) bool {
	select {
	case cmd, ok := <-l.CommandRx().C():
		if !ok {
			panic("logic: command queue closed")
		}
		if cmd == command.Quit {
			return true
		}
	default:
	}

	select {
	case cmd, ok := <-l.CommandRx().C():
		if !ok {
			panic("logic: command queue closed")
		}
		if cmd == command.Quit {
			return true
		}
	case msg, ok := <-l.InboxRx().C():
		if !ok {
			panic("logic: inbox closed")
		}
		processMessage(l, msg)
	default:
	}
	return false
}

// recvOnce blocks for one event, command side first.
func recvOnce(l Logic) bool {
	select {
	case cmd, ok := <-l.CommandRx().C():
		if !ok {
			panic("logic: command queue closed")
		}
		if cmd == command.Quit {
			return true
		}
	default:
	}

	select {
	case cmd, ok := <-l.CommandRx().C():
		if !ok {
			panic("logic: command queue closed")
		}
		if cmd == command.Quit {
			return true
		}
	case msg, ok := <-l.InboxRx().C():
		if !ok {
			panic("logic: inbox closed")
		}
		processMessage(l, msg)
	}
	return false
}

// sleepOrQuit is the inter-action pacing delay. Quit cuts it short so a node
// mid-script still shuts down within one selection cycle.
func sleepOrQuit(l Logic, pace time.Duration) bool {
	if pace <= 0 {
		return false
	}
	timer := time.NewTimer(pace)
	defer timer.Stop()
	select {
	case cmd, ok := <-l.CommandRx().C():
		if !ok {
			panic("logic: command queue closed")
		}
		return cmd == command.Quit
	case <-timer.C:
		return false
	}
}

// processMessage dispatches one inbound message by content family.
func processMessage(l Logic, msg message.Message) {
	log.Printf("[logic] node %d: received %s from %d, session %d",
		l.NodeID(), msg.Content.Kind(), msg.Source, msg.SessionID)

	switch {
	case msg.Content.Request != nil:
		processRequest(l, msg.SessionID, msg.Source, *msg.Content.Request)
	case msg.Content.Response != nil:
		l.ProcessResponse(msg.SessionID, msg.Source, msg.Content.Response)
	case msg.Content.Error != nil:
		// Nothing to recover at this layer; the request this answers is a
		// lost cause and the transport owns any retry.
		log.Printf("[logic] node %d: error %s from %d, session %d",
			l.NodeID(), msg.Content.Error.Kind(), msg.Source, msg.SessionID)
	default:
		log.Printf("[logic] node %d: empty message from %d, session %d",
			l.NodeID(), msg.Source, msg.SessionID)
	}
}

// processRequest rejects the request: this node is a client, not a server.
// The reply echoes the offending request under the same session id.
func processRequest(l Logic, sessionID uint64, source message.NodeID, req message.Request) {
	reply := message.Message{
		Source:      l.NodeID(),
		Destination: source,
		SessionID:   sessionID,
		Content: message.Content{
			Error: &message.Error{Unsupported: &message.Unsupported{Request: req}},
		},
	}
	sendToTransmitter(l, reply)
}

// sendToTransmitter enqueues msg on the outbox. The outbox is owned
// in-process, so a failed send is a programmer error, not a runtime
// condition.
func sendToTransmitter(l Logic, msg message.Message) {
	if err := l.OutboxTx().Send(msg); err != nil {
		panic("logic: cannot communicate with transmitter")
	}
}

// freshSessionID draws a uniform 64-bit session id not yet used in this
// batch.
func freshSessionID(used map[uint64]bool) uint64 {
	for {
		id := rand.Uint64()
		if !used[id] {
			used[id] = true
			return id
		}
	}
}
