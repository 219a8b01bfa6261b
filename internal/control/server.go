package control

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"overlay-client/internal/command"
	"overlay-client/internal/events"
	"overlay-client/internal/message"
	"overlay-client/internal/queue"
)

var upgrader = websocket.Upgrader{
	// Any origin: the control surface is a simulation tool, not a product.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes the running nodes over HTTP: an event stream for the front
// end and a shutdown endpoint per node.
type Server struct {
	bus         *events.Bus
	supervisors map[message.NodeID]*queue.Queue[command.Command]
}

func NewServer(bus *events.Bus, supervisors map[message.NodeID]*queue.Queue[command.Command]) *Server {
	return &Server{bus: bus, supervisors: supervisors}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.streamEvents).Methods(http.MethodGet)
	r.HandleFunc("/nodes", s.listNodes).Methods(http.MethodGet)
	r.HandleFunc("/nodes/{id}/quit", s.quitNode).Methods(http.MethodPost)
	return r
}

// ListenAndServe runs the control server until the process exits.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("[control] listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

// streamEvents upgrades the connection and pushes every bus event to it.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[control] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for event := range s.bus.Subscribe() {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[control] write error: %v", err)
			return
		}
	}
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	ids := make([]int, 0, len(s.supervisors))
	for id := range s.supervisors {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ids); err != nil {
		log.Printf("[control] encode error: %v", err)
	}
}

func (s *Server) quitNode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 8)
	if err != nil {
		http.Error(w, "invalid node id", http.StatusBadRequest)
		return
	}
	supervisor, ok := s.supervisors[message.NodeID(id)]
	if !ok {
		http.Error(w, "unknown node", http.StatusNotFound)
		return
	}
	if err := supervisor.Send(command.Quit); err != nil {
		http.Error(w, "node already stopped", http.StatusConflict)
		return
	}
	w.Write([]byte("quit sent"))
}
