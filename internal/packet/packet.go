package packet

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"overlay-client/internal/message"
)

// Packet types.
const (
	PKT_DATA uint8 = 0x01
	PKT_ACK  uint8 = 0x02
)

// MaxFragmentSize caps the payload bytes carried by a single packet. Larger
// message bodies are split across fragments of the same session.
const MaxFragmentSize = 128

// Packet is one hop-level frame of the overlay. A Message encodes to msgpack
// and travels as TotalFragments payload slices sharing a SessionID.
type Packet struct {
	Type           uint8          `msgpack:"type"`
	Source         message.NodeID `msgpack:"source"`
	Destination    message.NodeID `msgpack:"destination"`
	SessionID      uint64         `msgpack:"session_id"`
	FragmentIndex  uint16         `msgpack:"fragment_index"`
	TotalFragments uint16         `msgpack:"total_fragments"`
	Payload        []byte         `msgpack:"payload,omitempty"`
}

// Ack builds the acknowledgement frame for a received data fragment.
func Ack(p Packet, self message.NodeID) Packet {
	return Packet{
		Type:           PKT_ACK,
		Source:         self,
		Destination:    p.Source,
		SessionID:      p.SessionID,
		FragmentIndex:  p.FragmentIndex,
		TotalFragments: p.TotalFragments,
	}
}

// Fragment encodes msg and splits it into data packets of at most
// MaxFragmentSize payload bytes each.
func Fragment(msg message.Message) ([]Packet, error) {
	body, err := msgpack.Marshal(&msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	total := (len(body) + MaxFragmentSize - 1) / MaxFragmentSize
	if total == 0 {
		total = 1
	}

	packets := make([]Packet, 0, total)
	for i := 0; i < total; i++ {
		lo := i * MaxFragmentSize
		hi := lo + MaxFragmentSize
		if hi > len(body) {
			hi = len(body)
		}
		packets = append(packets, Packet{
			Type:           PKT_DATA,
			Source:         msg.Source,
			Destination:    msg.Destination,
			SessionID:      msg.SessionID,
			FragmentIndex:  uint16(i),
			TotalFragments: uint16(total),
			Payload:        body[lo:hi],
		})
	}
	return packets, nil
}

type sessionKey struct {
	source  message.NodeID
	session uint64
}

type partial struct {
	fragments [][]byte
	received  int
}

// Assembler accumulates data fragments per (source, session) and yields the
// decoded Message once a session is complete.
type Assembler struct {
	pending map[sessionKey]*partial
}

func NewAssembler() *Assembler {
	return &Assembler{pending: make(map[sessionKey]*partial)}
}

// Add folds one data packet in. It returns the reassembled message and true
// when the packet completed its session.
func (a *Assembler) Add(p Packet) (message.Message, bool, error) {
	var zero message.Message
	if p.Type != PKT_DATA {
		return zero, false, fmt.Errorf("assembler: packet type %#x is not data", p.Type)
	}
	if p.TotalFragments == 0 || p.FragmentIndex >= p.TotalFragments {
		return zero, false, fmt.Errorf("assembler: fragment %d/%d out of range",
			p.FragmentIndex, p.TotalFragments)
	}

	key := sessionKey{source: p.Source, session: p.SessionID}
	part, ok := a.pending[key]
	if !ok {
		part = &partial{fragments: make([][]byte, p.TotalFragments)}
		a.pending[key] = part
	}
	if int(p.TotalFragments) != len(part.fragments) {
		return zero, false, fmt.Errorf("assembler: session %d fragment count changed from %d to %d",
			p.SessionID, len(part.fragments), p.TotalFragments)
	}
	if part.fragments[p.FragmentIndex] == nil {
		part.fragments[p.FragmentIndex] = p.Payload
		part.received++
	}
	if part.received < len(part.fragments) {
		return zero, false, nil
	}

	delete(a.pending, key)
	var body []byte
	for _, frag := range part.fragments {
		body = append(body, frag...)
	}
	var msg message.Message
	if err := msgpack.Unmarshal(body, &msg); err != nil {
		return zero, false, fmt.Errorf("decode message: %w", err)
	}
	return msg, true, nil
}
