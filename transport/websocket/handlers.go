package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/playforge/tictactoe-live/internal/apperror"
)

func (that *Server) handleRoomJoin(ctx context.Context, client *Client, msg *Message) error {
	var payload roomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameID == "" {
		that.sendError(client, fmt.Errorf("%w: gameId", apperror.ErrMissingField))
		return nil
	}

	that.hub.Subscribe(payload.GameID, client)

	// A (re)joining subscriber always gets a fresh snapshot pull; there is no
	// replay of missed broadcasts.
	game, err := that.gamePlay.GetGame(ctx, payload.GameID)
	if err != nil {
		that.hub.Unsubscribe(payload.GameID, client)
		that.sendError(client, err)
		return nil
	}

	return that.sendSnapshot(client, game)
}

func (that *Server) handleRoomLeave(_ context.Context, client *Client, msg *Message) error {
	var payload roomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameID == "" {
		that.sendError(client, fmt.Errorf("%w: gameId", apperror.ErrMissingField))
		return nil
	}

	that.hub.Unsubscribe(payload.GameID, client)

	return nil
}

func (that *Server) handleGameMove(ctx context.Context, client *Client, msg *Message) error {
	var payload movePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameID == "" || payload.Cell == nil {
		that.sendError(client, fmt.Errorf("%w: gameId, cell", apperror.ErrMissingField))
		return nil
	}

	// Success fans out through the publisher; only failures come back here,
	// and only to this connection.
	if _, err := that.gamePlay.SubmitMove(ctx, payload.GameID, client.playerID, *payload.Cell); err != nil {
		that.sendError(client, err)
	}

	return nil
}

// handleChatSend relays a chat line to the session's room. Chat never mutates
// game state; per-sender ordering is preserved because each client's intents
// are handled sequentially and subscriber queues are FIFO.
func (that *Server) handleChatSend(_ context.Context, client *Client, msg *Message) error {
	var payload chatPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameID == "" {
		that.sendError(client, fmt.Errorf("%w: gameId", apperror.ErrMissingField))
		return nil
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		that.sendError(client, fmt.Errorf("%w: text", apperror.ErrMissingField))
		return nil
	}

	event, err := newMessage(ActionChatMessage, chatEventPayload{
		Sender:    client.playerID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to build chat event: %w", err)
	}

	that.hub.Broadcast(payload.GameID, event)

	return nil
}
