package harness

import (
	"log"
	"sync"
	"time"

	"overlay-client/internal/client"
	"overlay-client/internal/command"
	"overlay-client/internal/events"
	"overlay-client/internal/message"
	"overlay-client/internal/packet"
	"overlay-client/internal/queue"
	"overlay-client/internal/scenario"
)

// Harness wires the configured clients into a full-mesh overlay: every
// client's transmitter holds a link to every other client's packet intake.
// It stands in for the larger simulation that would normally surround a
// node.
type Harness struct {
	controllerTx *queue.Queue[events.Event]
	nodes        map[message.NodeID]*client.Node
	notifiers    map[message.NodeID]*events.Notifier

	// Supervisors and NodeCommands are the control-plane handles the
	// controller surfaces (HTTP, MQTT) act on.
	Supervisors  map[message.NodeID]*queue.Queue[command.Command]
	NodeCommands map[message.NodeID]*queue.Queue[command.NodeCommand]

	wg sync.WaitGroup
}

// Build allocates one intake queue per client and assembles every node with
// links to all the others.
func Build(sc *scenario.Scenario, controllerTx *queue.Queue[events.Event]) *Harness {
	h := &Harness{
		controllerTx: controllerTx,
		nodes:        make(map[message.NodeID]*client.Node, len(sc.Clients)),
		notifiers:    make(map[message.NodeID]*events.Notifier, len(sc.Clients)),
		Supervisors:  make(map[message.NodeID]*queue.Queue[command.Command], len(sc.Clients)),
		NodeCommands: make(map[message.NodeID]*queue.Queue[command.NodeCommand], len(sc.Clients)),
	}

	intakes := make(map[message.NodeID]*queue.Queue[packet.Packet], len(sc.Clients))
	for _, cfg := range sc.Clients {
		intakes[cfg.ID] = queue.New[packet.Packet]()
	}

	for _, cfg := range sc.Clients {
		neighbors := make(map[message.NodeID]*queue.Queue[packet.Packet], len(intakes)-1)
		for id, intake := range intakes {
			if id != cfg.ID {
				neighbors[id] = intake
			}
		}
		nodeCmd := queue.New[command.NodeCommand]()
		n, supervisor := client.NewNode(
			cfg.ID, intakes[cfg.ID], neighbors, controllerTx, nodeCmd, cfg.Actions, time.Duration(sc.Pace),
		)
		h.nodes[cfg.ID] = n
		h.notifiers[cfg.ID] = events.NewNotifier(cfg.ID, controllerTx)
		h.Supervisors[cfg.ID] = supervisor
		h.NodeCommands[cfg.ID] = nodeCmd
	}
	return h
}

// Start runs every node in its own goroutine.
func (h *Harness) Start() {
	for id, n := range h.nodes {
		h.wg.Add(1)
		go func(id message.NodeID, n *client.Node) {
			defer h.wg.Done()
			h.notifiers[id].Notify(events.EventNodeStarted, 0, 0, "")
			log.Printf("[harness] node %d: joining overlay", id)
			n.Run()
			log.Printf("[harness] node %d: left overlay", id)
			h.notifiers[id].Notify(events.EventNodeStopped, 0, 0, "")
		}(id, n)
	}
}

// Quit fans a shutdown request out to every node still running.
func (h *Harness) Quit() {
	for id, supervisor := range h.Supervisors {
		if err := supervisor.Send(command.Quit); err != nil {
			log.Printf("[harness] node %d already stopped", id)
		}
	}
}

// Wait blocks until every node has returned.
func (h *Harness) Wait() {
	h.wg.Wait()
}
