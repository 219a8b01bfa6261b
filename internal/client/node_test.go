package client

import (
	"sync"
	"testing"
	"time"

	"overlay-client/internal/command"
	"overlay-client/internal/events"
	"overlay-client/internal/message"
	"overlay-client/internal/packet"
	"overlay-client/internal/queue"
)

func TestWorkersAgreeOnNodeID(t *testing.T) {
	intake := queue.New[packet.Packet]()
	nodeCmd := queue.New[command.NodeCommand]()
	n, _ := NewNode(12, intake, nil, nil, nodeCmd, nil, time.Millisecond)

	if n.ListenerID() != 12 || n.LogicID() != 12 || n.TransmitterID() != 12 {
		t.Fatalf("worker ids %d/%d/%d, want all 12",
			n.ListenerID(), n.LogicID(), n.TransmitterID())
	}
}

func TestQuitStopsAllWorkers(t *testing.T) {
	intake := queue.New[packet.Packet]()
	nodeCmd := queue.New[command.NodeCommand]()
	n, supervisor := NewNode(4, intake, nil, nil, nodeCmd, nil, time.Millisecond)

	done := make(chan struct{})
	go func() {
		n.Run()
		close(done)
	}()

	if err := supervisor.Send(command.Quit); err != nil {
		t.Fatalf("send quit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("node did not stop after Quit")
	}
}

// Two directly linked nodes: node 1 scripts a request to node 2, node 2 must
// refuse it, and the refusal must travel all the way back to node 1.
func TestRequestRefusalRoundTrip(t *testing.T) {
	controller := queue.New[events.Event]()
	var mu sync.Mutex
	var seen []events.Event
	go func() {
		for ev := range controller.C() {
			mu.Lock()
			seen = append(seen, ev)
			mu.Unlock()
		}
	}()

	intake1 := queue.New[packet.Packet]()
	intake2 := queue.New[packet.Packet]()

	actions := []Action{{Destination: 2, Request: message.Request{Text: &message.TextRequest{List: true}}}}
	n1, sup1 := NewNode(1, intake1,
		map[message.NodeID]*queue.Queue[packet.Packet]{2: intake2},
		controller, queue.New[command.NodeCommand](), actions, time.Millisecond)
	n2, sup2 := NewNode(2, intake2,
		map[message.NodeID]*queue.Queue[packet.Packet]{1: intake1},
		controller, queue.New[command.NodeCommand](), nil, time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); n1.Run() }()
	go func() { defer wg.Done(); n2.Run() }()

	gotRefusal := func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, ev := range seen {
			if ev.Type == events.EventMessageReceived && ev.Node == 1 && ev.Payload == "error" {
				return true
			}
		}
		return false
	}
	deadline := time.Now().Add(3 * time.Second)
	for !gotRefusal() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := sup1.Send(command.Quit); err != nil {
		t.Fatalf("quit node 1: %v", err)
	}
	if err := sup2.Send(command.Quit); err != nil {
		t.Fatalf("quit node 2: %v", err)
	}
	wg.Wait()

	if !gotRefusal() {
		t.Fatal("node 1 never saw the unsupported-request error from node 2")
	}

	mu.Lock()
	defer mu.Unlock()
	requestSeen := false
	for _, ev := range seen {
		if ev.Type == events.EventMessageReceived && ev.Node == 2 && ev.Payload == "request" {
			requestSeen = true
		}
	}
	if !requestSeen {
		t.Error("node 2 never received the scripted request")
	}
}
