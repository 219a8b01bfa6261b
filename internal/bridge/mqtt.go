package bridge

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"overlay-client/internal/command"
	"overlay-client/internal/message"
	"overlay-client/internal/queue"
)

// CommandTopic carries node control payloads from the simulation controller.
const CommandTopic = "overlay/commands"

// commandPayload is the JSON shape published on CommandTopic.
type commandPayload struct {
	NodeID  message.NodeID `json:"node_id"`
	Command string         `json:"command"`
}

// MQTTBridge forwards broker-published control commands to node supervisor
// queues, so an external controller can stop nodes without the HTTP surface.
type MQTTBridge struct {
	client      mqtt.Client
	supervisors map[message.NodeID]*queue.Queue[command.Command]
}

// New connects to broker and subscribes to CommandTopic.
func New(broker, clientID string, supervisors map[message.NodeID]*queue.Queue[command.Command]) (*MQTTBridge, error) {
	b := &MQTTBridge{supervisors: supervisors}

	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	b.client = mqtt.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, token.Error())
	}
	if token := b.client.Subscribe(CommandTopic, 1, b.handle); token.Wait() && token.Error() != nil {
		b.client.Disconnect(250)
		return nil, fmt.Errorf("subscribe %s: %w", CommandTopic, token.Error())
	}
	log.Printf("[bridge] connected to %s, watching %s", broker, CommandTopic)
	return b, nil
}

func (b *MQTTBridge) handle(_ mqtt.Client, msg mqtt.Message) {
	var payload commandPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		log.Printf("[bridge] bad payload on %s: %v", msg.Topic(), err)
		return
	}

	switch payload.Command {
	case "quit":
		supervisor, ok := b.supervisors[payload.NodeID]
		if !ok {
			log.Printf("[bridge] quit for unknown node %d", payload.NodeID)
			return
		}
		if err := supervisor.Send(command.Quit); err != nil {
			log.Printf("[bridge] node %d already stopped", payload.NodeID)
			return
		}
		log.Printf("[bridge] quit forwarded to node %d", payload.NodeID)
	default:
		log.Printf("[bridge] unknown command %q for node %d", payload.Command, payload.NodeID)
	}
}

// Disconnect leaves the broker cleanly.
func (b *MQTTBridge) Disconnect() {
	b.client.Disconnect(250)
}
