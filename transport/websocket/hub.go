package websocket

import (
	"log/slog"
	"sync"

	"github.com/playforge/tictactoe-live/internal/entity"
)

// Hub tracks which connections subscribe to which session and fans events
// out to them. It implements service.Publisher, so every successful mutation
// reaches every subscriber of that game regardless of which transport
// carried the command.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "ws-hub"),
		rooms:  make(map[string]map[*Client]struct{}),
	}
}

// Subscribe adds the connection to the session's broadcast group. It does not
// touch game state: joining the room and joining the game are separate
// commands.
func (that *Hub) Subscribe(gameID string, client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[gameID]
	if !ok {
		room = make(map[*Client]struct{})
		that.rooms[gameID] = room
	}

	room[client] = struct{}{}
}

// Unsubscribe removes the connection from one room. The game itself is
// untouched: leaving the room is not abandoning.
func (that *Hub) Unsubscribe(gameID string, client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(gameID, client)
}

// UnsubscribeAll detaches a closed connection from every room.
func (that *Hub) UnsubscribeAll(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for gameID := range that.rooms {
		that.removeLocked(gameID, client)
	}
}

func (that *Hub) removeLocked(gameID string, client *Client) {
	room, ok := that.rooms[gameID]
	if !ok {
		return
	}

	delete(room, client)
	if len(room) == 0 {
		delete(that.rooms, gameID)
	}
}

// Broadcast delivers a message to every subscriber of a session.
func (that *Hub) Broadcast(gameID string, msg Message) {
	that.mu.RLock()
	clients := make([]*Client, 0, len(that.rooms[gameID]))
	for client := range that.rooms[gameID] {
		clients = append(clients, client)
	}
	that.mu.RUnlock()

	for _, client := range clients {
		client.Send(msg)
	}
}

// PublishSessionUpdate broadcasts the full snapshot, never a diff: the
// latest-arriving snapshot for a session always wins on the client.
func (that *Hub) PublishSessionUpdate(game *entity.Game) {
	msg, err := newMessage(ActionSessionUpdate, sessionUpdatePayload{Game: game})
	if err != nil {
		that.logger.Error("failed to build session update", "gameID", game.ID, "error", err)
		return
	}

	that.Broadcast(game.ID, msg)
}
