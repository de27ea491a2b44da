package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playforge/tictactoe-live/internal/config"
	"github.com/playforge/tictactoe-live/internal/entity"
	"github.com/playforge/tictactoe-live/internal/registry"
	"github.com/playforge/tictactoe-live/internal/repository"
	"github.com/playforge/tictactoe-live/internal/repository/storage"
	"github.com/playforge/tictactoe-live/internal/service"
	"github.com/playforge/tictactoe-live/transport/rest"
	"github.com/playforge/tictactoe-live/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

const reaperInterval = 30 * time.Second

// RunApp - wires the components and runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	userRepo := repository.NewUserRepository(redisStorage.Connection)
	gameArchive := repository.NewGameArchive(logger, redisStorage.Connection)

	sessionRegistry := registry.New(logger)
	hub := websocket.NewHub(logger)

	ratingService := service.NewRatingService(logger, userRepo)
	gamePlayService := service.NewGamePlayService(logger, sessionRegistry, hub, ratingService, entity.TimeControl{
		InitialMs:   conf.Game.DefaultInitialTime.Milliseconds(),
		IncrementMs: conf.Game.DefaultIncrement.Milliseconds(),
	})
	matchmakerService := service.NewMatchmakerService(logger, sessionRegistry, gamePlayService, conf.Game.RatingBand)

	go sessionRegistry.StartReaper(ctx, reaperInterval, conf.Game.ReapAfter, gameArchive)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		handlers := rest.NewHandlers(logger, gamePlayService, matchmakerService, userRepo, gameArchive)
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, handlers); httpErr != nil {
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, hub, gamePlayService)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
