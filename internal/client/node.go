package client

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"overlay-client/internal/command"
	"overlay-client/internal/events"
	"overlay-client/internal/listener"
	"overlay-client/internal/media"
	"overlay-client/internal/message"
	"overlay-client/internal/packet"
	"overlay-client/internal/queue"
	"overlay-client/internal/transmitter"
)

// Node assembles one client node: the listener, logic and transmitter
// workers plus the queues between them. Run drives the three workers and the
// supervisor loop that fans out shutdown.
type Node struct {
	nodeID message.NodeID

	listener       *listener.Listener
	listenerCmd    *queue.Queue[command.Command]
	logic          *Client
	logicCmd       *queue.Queue[command.Command]
	transmitter    *transmitter.Transmitter
	transmitterCmd *queue.Queue[command.Command]

	commandRx *queue.Queue[command.Command]
}

// NewNode wires a node from its network-side inputs: the packet intake from
// the overlay, the neighbour intake queues, the controller event queue, the
// controller's node-command queue and the scripted actions. It returns the
// node and the supervisor queue the caller uses to request shutdown.
func NewNode(
	nodeID message.NodeID,
	networkRx *queue.Queue[packet.Packet],
	neighbors map[message.NodeID]*queue.Queue[packet.Packet],
	controllerTx *queue.Queue[events.Event],
	nodeCmdRx *queue.Queue[command.NodeCommand],
	actions []Action,
	pace time.Duration,
) (*Node, *queue.Queue[command.Command]) {
	listenerToTransmitter := queue.New[packet.Packet]()
	inbox := queue.New[message.Message]()
	outbox := queue.New[message.Message]()

	listenerCmd := queue.New[command.Command]()
	logicCmd := queue.New[command.Command]()
	transmitterCmd := queue.New[command.Command]()

	notifier := events.NewNotifier(nodeID, controllerTx)

	lst := listener.New(nodeID, networkRx, listenerCmd, inbox, listenerToTransmitter, notifier)
	trx := transmitter.New(nodeID, transmitterCmd, nodeCmdRx, outbox, listenerToTransmitter, neighbors, notifier)
	logic := NewClient(nodeID, logicCmd, inbox, outbox, actions, pace, media.ViewerSink{})

	if lst.NodeID() != trx.NodeID() || lst.NodeID() != logic.NodeID() {
		panic(fmt.Sprintf("node %d: workers disagree on node id", nodeID))
	}

	commandRx := queue.New[command.Command]()

	n := &Node{
		nodeID:         nodeID,
		listener:       lst,
		listenerCmd:    listenerCmd,
		logic:          logic,
		logicCmd:       logicCmd,
		transmitter:    trx,
		transmitterCmd: transmitterCmd,
		commandRx:      commandRx,
	}
	return n, commandRx
}

func (n *Node) NodeID() message.NodeID { return n.nodeID }

// ListenerID, LogicID and TransmitterID expose the workers' view of the node
// identity.
func (n *Node) ListenerID() message.NodeID { return n.listener.NodeID() }

func (n *Node) LogicID() message.NodeID { return n.logic.NodeID() }

func (n *Node) TransmitterID() message.NodeID { return n.transmitter.NodeID() }

// Run spawns the three workers and blocks in the supervisor loop. On Quit it
// closes the intake first, then the logic, then the transmitter, so no new
// work enters while the outbox is still flushing, and joins all three.
func (n *Node) Run() {
	var wg sync.WaitGroup
	spawn := func(name string, run func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer logPanics(name)
			run()
		}()
	}

	spawn(fmt.Sprintf("client_%d_listener", n.nodeID), n.listener.Run)
	spawn(fmt.Sprintf("client_%d_transmitter", n.nodeID), n.transmitter.Run)
	spawn(fmt.Sprintf("client_%d_logic", n.nodeID), n.logic.Run)

	for {
		cmd, ok := <-n.commandRx.C()
		if !ok {
			err := fmt.Sprintf("node %d: supervisor queue closed", n.nodeID)
			log.Print(err)
			panic(err)
		}
		if cmd != command.Quit {
			log.Printf("[node] %d: ignoring unknown command %s", n.nodeID, cmd)
			continue
		}
		if err := n.listenerCmd.Send(command.Quit); err != nil {
			panic(fmt.Sprintf("node %d: cannot communicate with listener", n.nodeID))
		}
		if err := n.logicCmd.Send(command.Quit); err != nil {
			panic(fmt.Sprintf("node %d: cannot communicate with logic", n.nodeID))
		}
		if err := n.transmitterCmd.Send(command.Quit); err != nil {
			panic(fmt.Sprintf("node %d: cannot communicate with transmitter", n.nodeID))
		}
		break
	}

	wg.Wait()
}

// logPanics records a worker panic before it takes the process down.
func logPanics(name string) {
	if r := recover(); r != nil {
		msg := fmt.Sprintf("panic in %s: %v", name, r)
		log.Print(msg)
		fmt.Fprintln(os.Stderr, msg)
		panic(r)
	}
}
