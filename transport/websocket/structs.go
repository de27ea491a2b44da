package websocket

import (
	"encoding/json"
	"time"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/entity"
)

// Client intents and server events share one envelope.
const (
	ActionRoomJoin  = "room:join"
	ActionRoomLeave = "room:leave"
	ActionGameMove  = "game:move"
	ActionChatSend  = "chat:send"

	ActionSessionUpdate = "session:update"
	ActionChatMessage   = "chat:message"
	ActionError         = "error"
)

// Message is the wire envelope: an action type and an action-specific payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type roomPayload struct {
	GameID string `json:"gameId"`
}

type movePayload struct {
	GameID string `json:"gameId"`
	Cell   *int   `json:"cell"`
}

type chatPayload struct {
	GameID string `json:"gameId"`
	Text   string `json:"text"`
}

type sessionUpdatePayload struct {
	Game *entity.Game `json:"game"`
}

type chatEventPayload struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type errorPayload struct {
	Kind  apperror.Kind `json:"kind"`
	Error string        `json:"error"`
}

func newMessage(action string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{Action: action, Payload: raw}, nil
}
