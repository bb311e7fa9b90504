// Package liveserver exposes a Sheet over a WebSocket connection: every
// client that connects gets the current grid, and every successful
// mutation is broadcast to all connected clients.
package liveserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gridsheet/internal/position"
	"gridsheet/internal/sheet"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// UpdateRequest is the client->server message shape: set or clear one
// cell.
type UpdateRequest struct {
	Type string `json:"type"` // "set" or "clear"
	Cell string `json:"cell"`
	Text string `json:"text,omitempty"`
}

// UpdateResponse is the server->client message shape: the full printable
// grid, re-sent after every accepted mutation (and once on connect).
type UpdateResponse struct {
	Type   string     `json:"type"` // "snapshot" or "error"
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	Values [][]string `json:"values,omitempty"`
	Cell   string     `json:"cell,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Server wraps a Sheet with the WebSocket plumbing needed to serve it
// live. The sheet is single-writer, but each connected client runs its
// own read loop in its own goroutine, so Server's mutex serializes both
// the client set/broadcast and the mutating Sheet calls themselves (see
// handle).
type Server struct {
	Sheet   *sheet.Sheet
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	log     zerolog.Logger
}

// New wraps an existing sheet for live serving.
func New(sh *sheet.Sheet, log zerolog.Logger) *Server {
	return &Server{
		Sheet:   sh,
		clients: make(map[*websocket.Conn]bool),
		log:     log,
	}
}

// ServeHTTP implements http.Handler by upgrading the connection to a
// WebSocket and running its read loop.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.sendSnapshot(conn)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req UpdateRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.log.Warn().Err(err).Msg("malformed update request")
			continue
		}
		s.handle(conn, req)
	}
}

func (s *Server) handle(conn *websocket.Conn, req UpdateRequest) {
	pos, err := position.Parse(req.Cell)
	if err != nil {
		s.sendError(conn, err.Error())
		return
	}

	// The sheet is single-writer, single-threaded; each connection's read
	// loop runs in its own goroutine, so mutation across connections must
	// be serialized here rather than left to the sheet itself.
	s.mu.Lock()
	switch req.Type {
	case "set":
		err = s.Sheet.SetCell(pos, req.Text)
	case "clear":
		err = s.Sheet.ClearCell(pos)
	default:
		s.mu.Unlock()
		s.sendError(conn, "unknown update type "+req.Type)
		return
	}
	s.mu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Str("cell", req.Cell).Msg("rejected update")
		s.sendError(conn, err.Error())
		return
	}
	s.broadcastSnapshot()
}

func (s *Server) sendError(conn *websocket.Conn, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := conn.WriteJSON(UpdateResponse{Type: "error", Error: message}); err != nil {
		s.log.Warn().Err(err).Msg("error write failed")
	}
}

func (s *Server) sendSnapshot(conn *websocket.Conn) {
	resp := s.snapshotResponse()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn().Err(err).Msg("snapshot write failed")
	}
}

func (s *Server) broadcastSnapshot() {
	resp := s.snapshotResponse()
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if err := client.WriteJSON(resp); err != nil {
			s.log.Warn().Err(err).Msg("broadcast write failed")
			client.Close()
			delete(s.clients, client)
		}
	}
}

func (s *Server) snapshotResponse() UpdateResponse {
	// Reading values fills the sheet's formula caches, so it takes the
	// same mutex as the mutating calls in handle.
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.Sheet.GetPrintableSize()
	return UpdateResponse{
		Type:   "snapshot",
		Rows:   size.Rows,
		Cols:   size.Cols,
		Values: s.Sheet.Snapshot(),
	}
}
