package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Start runs the HTTP command API until ctx is canceled.
func Start(ctx context.Context, logger *slog.Logger, port string, handlers Handlers) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", handlers.Ping)
	mux.HandleFunc("POST /games", handlers.CreateGame)
	mux.HandleFunc("GET /games", handlers.ListGames)
	mux.HandleFunc("GET /games/{id}", handlers.GetGame)
	mux.HandleFunc("POST /games/{id}/join", handlers.JoinGame)
	mux.HandleFunc("POST /games/{id}/moves", handlers.MakeMove)
	mux.HandleFunc("POST /games/{id}/abandon", handlers.AbandonGame)
	mux.HandleFunc("POST /games/random-match", handlers.RandomMatch)
	mux.HandleFunc("GET /users/leaderboard", handlers.Leaderboard)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
