package command

import (
	"overlay-client/internal/message"
	"overlay-client/internal/packet"
	"overlay-client/internal/queue"
)

// Command is the control verb carried on worker and supervisor queues.
type Command uint8

const (
	// Quit asks a worker (or a whole node) to stop.
	Quit Command = iota
)

func (c Command) String() string {
	if c == Quit {
		return "QUIT"
	}
	return "UNKNOWN"
}

// NodeCommandKind discriminates topology edits sent by the simulation
// controller.
type NodeCommandKind uint8

const (
	AddNeighbor NodeCommandKind = iota
	RemoveNeighbor
)

// NodeCommand rewires a node's neighbourhood while it runs. Link is the
// neighbour's packet intake, present only for AddNeighbor.
type NodeCommand struct {
	Kind NodeCommandKind
	Node message.NodeID
	Link *queue.Queue[packet.Packet]
}
