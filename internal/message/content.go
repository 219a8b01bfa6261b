package message

// ServerType tells a client what kind of server answered a discovery probe.
type ServerType string

const (
	ServerTypeText  ServerType = "TEXT"
	ServerTypeMedia ServerType = "MEDIA"
	ServerTypeChat  ServerType = "CHAT"
)

// Request is a union over the four request families.
type Request struct {
	Text      *TextRequest      `msgpack:"text,omitempty" json:"text,omitempty" yaml:"text,omitempty"`
	Media     *MediaRequest     `msgpack:"media,omitempty" json:"media,omitempty" yaml:"media,omitempty"`
	Chat      *ChatRequest      `msgpack:"chat,omitempty" json:"chat,omitempty" yaml:"chat,omitempty"`
	Discovery *DiscoveryRequest `msgpack:"discovery,omitempty" json:"discovery,omitempty" yaml:"discovery,omitempty"`
}

// TextRequest lists the text resources a server holds (List) or fetches one
// by name (Resource).
type TextRequest struct {
	List     bool   `msgpack:"list,omitempty" json:"list,omitempty" yaml:"list,omitempty"`
	Resource string `msgpack:"resource,omitempty" json:"resource,omitempty" yaml:"resource,omitempty"`
}

// MediaRequest lists the media resources a server holds (List) or fetches one
// by name (Resource).
type MediaRequest struct {
	List     bool   `msgpack:"list,omitempty" json:"list,omitempty" yaml:"list,omitempty"`
	Resource string `msgpack:"resource,omitempty" json:"resource,omitempty" yaml:"resource,omitempty"`
}

// ChatRequest asks a chat server for its client list (List) or relays a text
// to another client (To, Text).
type ChatRequest struct {
	List bool   `msgpack:"list,omitempty" json:"list,omitempty" yaml:"list,omitempty"`
	To   NodeID `msgpack:"to,omitempty" json:"to,omitempty" yaml:"to,omitempty"`
	Text string `msgpack:"text,omitempty" json:"text,omitempty" yaml:"text,omitempty"`
}

// DiscoveryRequest probes a node for its server type.
type DiscoveryRequest struct{}

// Kind names the populated request family.
func (r Request) Kind() string {
	switch {
	case r.Text != nil:
		return "text"
	case r.Media != nil:
		return "media"
	case r.Chat != nil:
		return "chat"
	case r.Discovery != nil:
		return "discovery"
	}
	return "empty"
}

// Response is a union over the four response families, symmetric to Request.
type Response struct {
	Text      *TextResponse      `msgpack:"text,omitempty" json:"text,omitempty"`
	Media     *MediaResponse     `msgpack:"media,omitempty" json:"media,omitempty"`
	Chat      *ChatResponse      `msgpack:"chat,omitempty" json:"chat,omitempty"`
	Discovery *DiscoveryResponse `msgpack:"discovery,omitempty" json:"discovery,omitempty"`
}

type TextResponse struct {
	List     *ResourceList `msgpack:"list,omitempty" json:"list,omitempty"`
	Body     *TextBody     `msgpack:"body,omitempty" json:"body,omitempty"`
	NotFound *NotFound     `msgpack:"not_found,omitempty" json:"not_found,omitempty"`
}

type MediaResponse struct {
	List     *ResourceList `msgpack:"list,omitempty" json:"list,omitempty"`
	Media    *MediaBlob    `msgpack:"media,omitempty" json:"media,omitempty"`
	NotFound *NotFound     `msgpack:"not_found,omitempty" json:"not_found,omitempty"`
}

type ChatResponse struct {
	ClientList *ClientList  `msgpack:"client_list,omitempty" json:"client_list,omitempty"`
	From       *MessageFrom `msgpack:"from,omitempty" json:"from,omitempty"`
	Sent       *MessageSent `msgpack:"sent,omitempty" json:"sent,omitempty"`
}

type DiscoveryResponse struct {
	ServerType ServerType `msgpack:"server_type" json:"server_type"`
}

// ResourceList names the resources a server holds.
type ResourceList struct {
	Names []string `msgpack:"names" json:"names"`
}

// TextBody is the content of a fetched text resource. It may cite media
// resources inline with {{ name.ext }} markers.
type TextBody struct {
	Text string `msgpack:"text" json:"text"`
}

// NotFound reports an unknown resource name.
type NotFound struct {
	Resource string `msgpack:"resource" json:"resource"`
}

// MediaBlob is the raw bytes of a fetched media resource.
type MediaBlob struct {
	Data []byte `msgpack:"data" json:"data"`
}

type ClientList struct {
	Clients []NodeID `msgpack:"clients" json:"clients"`
}

type MessageFrom struct {
	From NodeID `msgpack:"from" json:"from"`
	Text string `msgpack:"text" json:"text"`
}

type MessageSent struct{}

// Error is the protocol error taxonomy. Unsupported echoes the request a
// node refused to serve.
type Error struct {
	Unsupported *Unsupported `msgpack:"unsupported,omitempty" json:"unsupported,omitempty"`
	Unexpected  *Unexpected  `msgpack:"unexpected,omitempty" json:"unexpected,omitempty"`
	Internal    *Internal    `msgpack:"internal,omitempty" json:"internal,omitempty"`
}

type Unsupported struct {
	Request Request `msgpack:"request" json:"request"`
}

type Unexpected struct {
	Detail string `msgpack:"detail" json:"detail"`
}

type Internal struct {
	Detail string `msgpack:"detail" json:"detail"`
}

// Kind names the populated error variant.
func (e Error) Kind() string {
	switch {
	case e.Unsupported != nil:
		return "unsupported"
	case e.Unexpected != nil:
		return "unexpected"
	case e.Internal != nil:
		return "internal"
	}
	return "empty"
}
