package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/yegors/co-pilot/pkg/logger"
)

// Message is an inbound client message
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MessageHandler processes inbound pilot-action messages. Implementations
// are responsible for broadcasting any resulting state change.
type MessageHandler interface {
	HandleClientMessage(msg *Message)
}

// StateFunc builds the current state payload sent to newly connected clients
type StateFunc func() interface{}

// Server manages websocket connections and fan-out of state updates
type Server struct {
	upgrader websocket.Upgrader
	handler  MessageHandler
	stateFn  StateFunc
	logger   *logger.Logger

	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewServer creates a new websocket server
func NewServer(log *logger.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin is enforced by the API layer's CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log.Named("ws-server"),
	}
}

// SetMessageHandler wires the inbound message dispatcher. Must be called
// before connections are served.
func (s *Server) SetMessageHandler(handler MessageHandler) {
	s.handler = handler
}

// SetStateFunc wires the initial-state payload builder
func (s *Server) SetStateFunc(fn StateFunc) {
	s.stateFn = fn
}

// Run processes registration and broadcast events until the context is
// cancelled
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			close(s.done)
			return

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			count := len(s.clients)
			s.mu.Unlock()
			s.logger.Info("Client connected",
				logger.String("client_id", client.ID),
				logger.Int("total", count),
			)
			s.sendInitialState(client)

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			count := len(s.clients)
			s.mu.Unlock()
			s.logger.Info("Client disconnected",
				logger.String("client_id", client.ID),
				logger.Int("total", count),
			)

		case message := <-s.broadcast:
			s.mu.RLock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: drop it rather than stall the hub
					s.logger.Warn("Client send buffer full, dropping connection",
						logger.String("client_id", client.ID),
					)
					go client.conn.Close()
				}
			}
			s.mu.RUnlock()
		}
	}
}

// Broadcast sends a payload to all connected clients
func (s *Server) Broadcast(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal broadcast payload", logger.Error(err))
		return
	}

	select {
	case s.broadcast <- data:
	default:
		s.logger.Warn("Broadcast channel full, dropping update")
	}
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleConnection upgrades an HTTP request to a websocket connection and
// starts its pumps
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", logger.Error(err))
		return
	}

	client := newClient(conn, s)
	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// dropClient hands a client back to the hub for removal. Safe to call after
// the hub has stopped.
func (s *Server) dropClient(client *Client) {
	select {
	case s.unregister <- client:
	case <-s.done:
	}
}

// sendInitialState pushes the current state to a freshly connected client
func (s *Server) sendInitialState(client *Client) {
	if s.stateFn == nil {
		return
	}
	data, err := json.Marshal(s.stateFn())
	if err != nil {
		s.logger.Error("Failed to marshal initial state", logger.Error(err))
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// closeAll disconnects every client
func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		close(client.send)
		client.conn.Close()
		delete(s.clients, client)
	}
}

// dispatch routes an inbound message to the configured handler
func (s *Server) dispatch(msg *Message) {
	if s.handler != nil {
		s.handler.HandleClientMessage(msg)
	}
}
