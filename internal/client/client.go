package client

import (
	"log"
	"math/rand"
	"regexp"
	"time"

	"overlay-client/internal/command"
	"overlay-client/internal/media"
	"overlay-client/internal/message"
	"overlay-client/internal/queue"
)

// citationRe matches one {{ name.ext }} media citation inside a text body.
// The name may not contain whitespace or braces; the capture is just
// name.ext, the exact string to request back from the server.
var citationRe = regexp.MustCompile(`\{\{\s*([^{}\s]+\.(?:png|jpg|jpeg))\s*\}\}`)

// Client is the logic worker of a client node. It replays its scripted
// actions, then reacts to inbound traffic: responses are interpreted (text
// bodies may chain into media fetches), requests are refused, errors are
// logged.
type Client struct {
	nodeID    message.NodeID
	commandRx *queue.Queue[command.Command]
	inboxRx   *queue.Queue[message.Message]
	outboxTx  *queue.Queue[message.Message]
	actions   []Action
	pace      time.Duration
	sink      media.Sink
}

func NewClient(
	nodeID message.NodeID,
	commandRx *queue.Queue[command.Command],
	inboxRx *queue.Queue[message.Message],
	outboxTx *queue.Queue[message.Message],
	actions []Action,
	pace time.Duration,
	sink media.Sink,
) *Client {
	return &Client{
		nodeID:    nodeID,
		commandRx: commandRx,
		inboxRx:   inboxRx,
		outboxTx:  outboxTx,
		actions:   actions,
		pace:      pace,
		sink:      sink,
	}
}

func (c *Client) NodeID() message.NodeID { return c.nodeID }

func (c *Client) CommandRx() *queue.Queue[command.Command] { return c.commandRx }

func (c *Client) InboxRx() *queue.Queue[message.Message] { return c.inboxRx }

func (c *Client) OutboxTx() *queue.Queue[message.Message] { return c.outboxTx }

// Run executes the scripted phase and then serves the inbox until Quit.
func (c *Client) Run() {
	log.Printf("[logic] node %d: started with %d scripted actions", c.nodeID, len(c.actions))
	defer log.Printf("[logic] node %d: stopped", c.nodeID)
	drive(c, c.actions, c.pace)
}

// ProcessResponse routes a response to its family handler.
func (c *Client) ProcessResponse(sessionID uint64, source message.NodeID, resp *message.Response) {
	switch {
	case resp.Text != nil:
		c.processTextResponse(source, resp.Text)
	case resp.Media != nil:
		c.processMediaResponse(source, resp.Media)
	case resp.Chat != nil:
		c.processChatResponse(source, resp.Chat)
	case resp.Discovery != nil:
		log.Printf("[logic] node %d: node %d is a %s server", c.nodeID, source, resp.Discovery.ServerType)
	default:
		log.Printf("[logic] node %d: empty response from %d, session %d", c.nodeID, source, sessionID)
	}
}

func (c *Client) processTextResponse(source message.NodeID, tr *message.TextResponse) {
	switch {
	case tr.List != nil:
		log.Printf("[logic] node %d: text list from %d: %v", c.nodeID, source, tr.List.Names)
	case tr.Body != nil:
		c.requestCitedMedia(source, tr.Body.Text)
	case tr.NotFound != nil:
		log.Printf("[logic] node %d: text %q not found on %d", c.nodeID, tr.NotFound.Resource, source)
	}
}

// requestCitedMedia fetches every media resource cited in body from the
// server that returned the text, one request per citation in scan order.
func (c *Client) requestCitedMedia(server message.NodeID, body string) {
	for _, groups := range citationRe.FindAllStringSubmatch(body, -1) {
		name := groups[1]
		msg := message.Message{
			Source:      c.nodeID,
			Destination: server,
			SessionID:   rand.Uint64(),
			Content: message.Content{
				Request: &message.Request{Media: &message.MediaRequest{Resource: name}},
			},
		}
		sendToTransmitter(c, msg)
	}
}

func (c *Client) processMediaResponse(source message.NodeID, mr *message.MediaResponse) {
	switch {
	case mr.List != nil:
		log.Printf("[logic] node %d: media list from %d: %v", c.nodeID, source, mr.List.Names)
	case mr.Media != nil:
		if err := c.sink.Display(mr.Media.Data); err != nil {
			panic("logic: media sink failed: " + err.Error())
		}
	case mr.NotFound != nil:
		log.Printf("[logic] node %d: media %q not found on %d", c.nodeID, mr.NotFound.Resource, source)
	}
}

// processChatResponse only records chat traffic; this client does not chat.
func (c *Client) processChatResponse(source message.NodeID, cr *message.ChatResponse) {
	switch {
	case cr.ClientList != nil:
		log.Printf("[logic] node %d: chat clients on %d: %v", c.nodeID, source, cr.ClientList.Clients)
	case cr.From != nil:
		log.Printf("[logic] node %d: chat from %d via %d: %q", c.nodeID, cr.From.From, source, cr.From.Text)
	case cr.Sent != nil:
		log.Printf("[logic] node %d: chat message delivered via %d", c.nodeID, source)
	}
}
