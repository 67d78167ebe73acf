// Package ws carries the duel WebSocket protocol: the message envelope and
// payloads, a per-socket write queue, and the hub that routes messages to users
// and duel rooms.
package ws

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

var (
	ErrConnectionNotFound = errors.New("user connection not found")
	ErrConnectionClosed   = errors.New("connection is closed")
	ErrSendQueueFull      = errors.New("send queue is full")
)

// Hub tracks one live connection per user and the users subscribed to each duel.
// Room membership outlives a connection so a reconnecting player keeps
// receiving their duel's broadcasts.
type Hub struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*Connection
	rooms  map[uuid.UUID]map[uuid.UUID]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		users:  make(map[uuid.UUID]*Connection),
		rooms:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
		logger: logger.With().Str("component", "ws_hub").Logger(),
	}
}

// RegisterConnection makes conn the user's active socket, closing any previous one.
func (h *Hub) RegisterConnection(userID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	prev := h.users[userID]
	h.users[userID] = conn
	h.mu.Unlock()

	if prev != nil && prev != conn {
		prev.Close()
		h.logger.Debug().Stringer("user_id", userID).Msg("replaced connection")
	}
}

// UnregisterConnection closes conn and forgets it unless a newer socket has
// already taken its place.
func (h *Hub) UnregisterConnection(userID uuid.UUID, conn *Connection) {
	h.mu.Lock()
	if h.users[userID] == conn {
		delete(h.users, userID)
	}
	h.mu.Unlock()
	conn.Close()
}

// Connected reports how many users hold a live socket.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

func (h *Hub) JoinDuel(duelID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[duelID]
	if !ok {
		room = make(map[uuid.UUID]struct{}, 2)
		h.rooms[duelID] = room
	}
	room[userID] = struct{}{}
}

func (h *Hub) LeaveDuel(duelID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[duelID]
	delete(room, userID)
	if len(room) == 0 {
		delete(h.rooms, duelID)
	}
}

// CloseDuel drops the room of a finished duel.
func (h *Hub) CloseDuel(duelID uuid.UUID) {
	h.mu.Lock()
	delete(h.rooms, duelID)
	h.mu.Unlock()
}

func (h *Hub) Members(duelID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.rooms[duelID])
}

// BroadcastToDuel sends msg to every room member and joins the per-user errors.
// Members without a live socket are skipped.
func (h *Hub) BroadcastToDuel(duelID uuid.UUID, msg Message) error {
	var errs []error
	for _, userID := range h.Members(duelID) {
		err := h.SendToUser(userID, msg)
		if err != nil && !errors.Is(err, ErrConnectionNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BroadcastAll sends msg to every connected user.
func (h *Hub) BroadcastAll(msg Message) error {
	h.mu.RLock()
	conns := lo.Values(h.users)
	h.mu.RUnlock()

	var errs []error
	for _, conn := range conns {
		if err := conn.Send(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Hub) SendToUser(userID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, ok := h.users[userID]
	h.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}
