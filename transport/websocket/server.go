package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/entity"
	"github.com/playforge/tictactoe-live/internal/pkg"
	"github.com/playforge/tictactoe-live/internal/service"
)

type Server struct {
	logger *slog.Logger

	hub      *Hub
	gamePlay service.GamePlayService
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, client *Client, msg *Message) error
}

func New(logger *slog.Logger, hub *Hub, gamePlay service.GamePlayService) *Server {
	server := &Server{
		logger:   logger.With("component", "ws-server"),
		hub:      hub,
		gamePlay: gamePlay,
		upgrader: websocket.Upgrader{
			// Origin policy belongs to the deployment proxy.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	server.handlers[ActionRoomJoin] = server.handleRoomJoin
	server.handlers[ActionRoomLeave] = server.handleRoomLeave
	server.handlers[ActionGameMove] = server.handleGameMove
	server.handlers[ActionChatSend] = server.handleChatSend

	return server
}

// Start - starts the WebSocket gateway.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		playerID = pkg.GenerateNewSessionID()
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, playerID, conn)

	go client.writePump()

	log.Info("WebSocket connection established", "playerID", playerID)

	that.readLoop(ctx, client)

	that.hub.UnsubscribeAll(client)
	client.Close()

	log.Info("WebSocket connection closed", "playerID", playerID)
}

// readLoop processes intents from one client strictly in arrival order.
func (that *Server) readLoop(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readLoop", "playerID", client.playerID)

	client.conn.SetReadLimit(4096)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("connection errored", "error", err)
			}
			return
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			log.Warn("unknown action", "action", msg.Action)
			that.sendError(client, fmt.Errorf("unknown action %q", msg.Action))
			continue
		}

		if err := handler(ctx, client, &msg); err != nil {
			log.Error("failed to process message", "action", msg.Action, "error", err)
		}
	}
}

// sendError reports a failed command to the originating connection only.
// Other subscribers never see it.
func (that *Server) sendError(client *Client, cmdErr error) {
	msg, err := newMessage(ActionError, errorPayload{
		Kind:  apperror.KindOf(cmdErr),
		Error: cmdErr.Error(),
	})
	if err != nil {
		that.logger.Error("failed to build error event", "error", err)
		return
	}

	client.Send(msg)
}

func (that *Server) sendSnapshot(client *Client, game *entity.Game) error {
	msg, err := newMessage(ActionSessionUpdate, sessionUpdatePayload{Game: game})
	if err != nil {
		return fmt.Errorf("failed to build snapshot event: %w", err)
	}

	client.Send(msg)

	return nil
}
