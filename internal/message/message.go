package message

// NodeID identifies one participant in the overlay network.
type NodeID uint8

// Message is one reassembled application-level message. SessionID is chosen
// by the sender of a request and echoed back in the matching response or
// error so the two can be correlated.
type Message struct {
	Source      NodeID  `msgpack:"source" json:"source"`
	Destination NodeID  `msgpack:"destination" json:"destination"`
	SessionID   uint64  `msgpack:"session_id" json:"session_id"`
	Content     Content `msgpack:"content" json:"content"`
}

// Content carries exactly one of the three payload families. The others stay
// nil.
type Content struct {
	Request  *Request  `msgpack:"request,omitempty" json:"request,omitempty" yaml:"request,omitempty"`
	Response *Response `msgpack:"response,omitempty" json:"response,omitempty" yaml:"response,omitempty"`
	Error    *Error    `msgpack:"error,omitempty" json:"error,omitempty" yaml:"error,omitempty"`
}

// Kind names the populated variant, for log lines.
func (c Content) Kind() string {
	switch {
	case c.Request != nil:
		return "request"
	case c.Response != nil:
		return "response"
	case c.Error != nil:
		return "error"
	}
	return "empty"
}
