package listener

import (
	"strings"
	"testing"
	"time"

	"overlay-client/internal/command"
	"overlay-client/internal/message"
	"overlay-client/internal/packet"
	"overlay-client/internal/queue"
)

type fixture struct {
	listener  *Listener
	networkRx *queue.Queue[packet.Packet]
	commandRx *queue.Queue[command.Command]
	inbox     *queue.Queue[message.Message]
	acks      *queue.Queue[packet.Packet]
	done      chan struct{}
}

func startListener(t *testing.T, nodeID message.NodeID) *fixture {
	t.Helper()
	f := &fixture{
		networkRx: queue.New[packet.Packet](),
		commandRx: queue.New[command.Command](),
		inbox:     queue.New[message.Message](),
		acks:      queue.New[packet.Packet](),
	}
	f.listener = New(nodeID, f.networkRx, f.commandRx, f.inbox, f.acks, nil)
	f.done = make(chan struct{})
	go func() {
		f.listener.Run()
		close(f.done)
	}()
	return f
}

func (f *fixture) quitAndJoin(t *testing.T) {
	t.Helper()
	if err := f.commandRx.Send(command.Quit); err != nil {
		t.Fatalf("send quit: %v", err)
	}
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after Quit")
	}
}

func TestFragmentsReassembleIntoInbox(t *testing.T) {
	f := startListener(t, 2)

	msg := message.Message{
		Source:      9,
		Destination: 2,
		SessionID:   31,
		Content: message.Content{
			Response: &message.Response{
				Text: &message.TextResponse{Body: &message.TextBody{Text: strings.Repeat("lorem ipsum ", 30)}},
			},
		},
	}
	packets, err := packet.Fragment(msg)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	if len(packets) < 2 {
		t.Fatalf("need multiple fragments, got %d", len(packets))
	}
	for _, p := range packets {
		if err := f.networkRx.Send(p); err != nil {
			t.Fatalf("send packet: %v", err)
		}
	}

	select {
	case got := <-f.inbox.C():
		if got.Source != 9 || got.SessionID != 31 {
			t.Errorf("inbox message from %d session %d, want 9/31", got.Source, got.SessionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reassembled message never reached the inbox")
	}

	// One ack per data fragment, addressed back to the sender.
	for i := range packets {
		select {
		case ack := <-f.acks.C():
			if ack.Type != packet.PKT_ACK {
				t.Errorf("ack %d: type %#x", i, ack.Type)
			}
			if ack.Destination != 9 || ack.Source != 2 {
				t.Errorf("ack %d: %d->%d, want 2->9", i, ack.Source, ack.Destination)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing ack for fragment %d", i)
		}
	}

	f.quitAndJoin(t)
}

func TestInboundAcksAreNotForwarded(t *testing.T) {
	f := startListener(t, 2)

	if err := f.networkRx.Send(packet.Packet{
		Type:           packet.PKT_ACK,
		Source:         9,
		Destination:    2,
		SessionID:      5,
		TotalFragments: 1,
	}); err != nil {
		t.Fatalf("send ack: %v", err)
	}

	select {
	case msg := <-f.inbox.C():
		t.Fatalf("ack surfaced as inbox message: %+v", msg)
	case ack := <-f.acks.C():
		t.Fatalf("ack re-acked: %+v", ack)
	case <-time.After(100 * time.Millisecond):
	}

	f.quitAndJoin(t)
}

func TestMalformedFragmentIsDropped(t *testing.T) {
	f := startListener(t, 2)

	if err := f.networkRx.Send(packet.Packet{
		Type:           packet.PKT_DATA,
		Source:         9,
		SessionID:      6,
		FragmentIndex:  5,
		TotalFragments: 2,
		Payload:        []byte{0x01},
	}); err != nil {
		t.Fatalf("send packet: %v", err)
	}

	select {
	case msg := <-f.inbox.C():
		t.Fatalf("malformed fragment surfaced as message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}

	f.quitAndJoin(t)
}
