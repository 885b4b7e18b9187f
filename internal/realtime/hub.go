// Package realtime provides room-scoped fanout over per-connection outboxes.
// A room is a multicast group keyed by id: a lobby id, a game id, or a
// per-team channel inside a game.
package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/loyeleye/multiplayer-yoruba/internal/types"
)

// Broadcaster is the messaging primitive the session layer writes to. Room
// membership is the only access control: a message reaches exactly the
// connections currently joined to the room.
type Broadcaster interface {
	Join(connID, room string)
	Leave(connID, room string)
	ToRoom(room string, msg types.ServerMessage)
	ToRoomExcept(room, exceptConn string, msg types.ServerMessage)
	ToConn(connID string, msg types.ServerMessage)
}

// Hub is the in-process Broadcaster. Each connection registers an outbox
// channel; a connection that stops draining it is dropped rather than
// allowed to stall a broadcast.
type Hub struct {
	mu    sync.Mutex
	log   *zap.Logger
	conns map[string]chan types.ServerMessage
	rooms map[string]map[string]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:   log.Named("realtime"),
		conns: make(map[string]chan types.ServerMessage),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Register creates the outbox for a connection. The channel is closed when
// the connection is unregistered or dropped.
func (h *Hub) Register(connID string) <-chan types.ServerMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(chan types.ServerMessage, 16)
	h.conns[connID] = out
	return out
}

// Unregister closes the outbox and removes the connection from every room.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(connID)
}

func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], connID)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) ToRoom(room string, msg types.ServerMessage) {
	h.ToRoomExcept(room, "", msg)
}

func (h *Hub) ToRoomExcept(room, exceptConn string, msg types.ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID := range h.rooms[room] {
		if connID == exceptConn {
			continue
		}
		h.sendLocked(connID, msg)
	}
}

func (h *Hub) ToConn(connID string, msg types.ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(connID, msg)
}

func (h *Hub) sendLocked(connID string, msg types.ServerMessage) {
	out, ok := h.conns[connID]
	if !ok {
		return
	}
	select {
	case out <- msg:
	default:
		// Client is slow/full - drop them.
		h.log.Warn("dropping slow connection", zap.String("conn", connID))
		h.dropLocked(connID)
	}
}

func (h *Hub) dropLocked(connID string) {
	if out, ok := h.conns[connID]; ok {
		close(out)
		delete(h.conns, connID)
	}
	for room, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
