package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"speech-digest-service/internal/models"
)

// Event is the browser-facing union of stage and result events.
type Event struct {
	EventType    string                   `json:"eventType"`
	SubmissionID string                   `json:"submissionId"`
	Stage        string                   `json:"stage,omitempty"`
	Timestamp    int64                    `json:"timestamp"`
	Result       *models.ProcessingResult `json:"result,omitempty"`
}

// decodeEvent accepts both models.StageEvent and models.ResultEvent payloads.
func decodeEvent(payload []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(payload, &e)
	return e, err
}

// Hub fans events out to every connected browser.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan Event
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       <-chan struct{}
	mu         sync.RWMutex
}

// newHub creates a hub that stops, along with every pending send to it, once done closes.
func newHub(done <-chan struct{}) *Hub {
	return &Hub{
		done:       done,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Event, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			n := len(h.clients)
			h.mu.Unlock()
			log.Info().Int("clients", n).Msg("Client connected")

		case conn := <-h.unregister:
			h.drop(conn)

		case event := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Warn().Err(err).Msg("WebSocket write failed")
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range failed {
				h.drop(conn)
			}
		}
	}
}

// send delivers v on ch unless the hub has stopped. It reports whether v was delivered.
func send[T any](h *Hub, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Info().Int("clients", n).Msg("Client disconnected")
}

var upgrader = websocket.Upgrader{
	// Local tool; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		if !send(hub, hub.register, conn) {
			conn.Close()
			return
		}

		// Reads only detect the disconnect.
		go func() {
			defer func() {
				if !send(hub, hub.unregister, conn) {
					conn.Close()
				}
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
