package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playforge/tictactoe-live/internal/entity"
	"github.com/playforge/tictactoe-live/internal/pkg"
)

// Publisher fans a fresh session snapshot out to every subscriber of that
// game. Gameplay publishes only after a successful mutation; rejected
// commands are reported to the caller alone.
type Publisher interface {
	PublishSessionUpdate(game *entity.Game)
}

type sessionRegistry interface {
	Put(game *entity.Game)
	Do(id string, fn func(game *entity.Game) error) (*entity.Game, error)
	Snapshot(id string) (*entity.Game, error)
	List() []*entity.Game
}

type ratingService interface {
	ApplyResult(ctx context.Context, game *entity.Game)
}

// CreateGameParams are the client-supplied knobs of a new session.
type CreateGameParams struct {
	Name        string
	InitialMs   int64
	IncrementMs int64
}

type GamePlayService interface {
	CreateGame(ctx context.Context, creator *entity.PlayerRef, params CreateGameParams) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID string, player *entity.PlayerRef) (*entity.Game, error)
	SubmitMove(ctx context.Context, gameID, playerID string, cell int) (*entity.Game, error)
	AbandonGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
}

type gamePlayService struct {
	logger *slog.Logger

	registry  sessionRegistry
	publisher Publisher
	rating    ratingService

	defaultControl entity.TimeControl
}

func NewGamePlayService(logger *slog.Logger, registry sessionRegistry, publisher Publisher, rating ratingService, defaultControl entity.TimeControl) GamePlayService {
	return &gamePlayService{
		logger:         logger.With("component", "gameplay"),
		registry:       registry,
		publisher:      publisher,
		rating:         rating,
		defaultControl: defaultControl,
	}
}

func (that *gamePlayService) CreateGame(ctx context.Context, creator *entity.PlayerRef, params CreateGameParams) (*entity.Game, error) {
	control := entity.TimeControl{
		InitialMs:   params.InitialMs,
		IncrementMs: params.IncrementMs,
	}
	if control.InitialMs <= 0 {
		control.InitialMs = that.defaultControl.InitialMs
	}
	if control.IncrementMs < 0 {
		control.IncrementMs = that.defaultControl.IncrementMs
	}

	game := entity.NewGame(pkg.GenerateGameID(), params.Name, creator, control)
	that.registry.Put(game)

	snapshot := game.Snapshot()
	that.publisher.PublishSessionUpdate(snapshot)

	that.logger.Info("game created", "gameID", game.ID, "creator", creator.ID)

	return snapshot, nil
}

func (that *gamePlayService) JoinGame(ctx context.Context, gameID string, player *entity.PlayerRef) (*entity.Game, error) {
	game, err := that.registry.Do(gameID, func(game *entity.Game) error {
		return game.Join(player, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	that.publisher.PublishSessionUpdate(game)

	that.logger.Info("player joined game", "gameID", gameID, "playerID", player.ID)

	return game, nil
}

func (that *gamePlayService) SubmitMove(ctx context.Context, gameID, playerID string, cell int) (*entity.Game, error) {
	game, err := that.registry.Do(gameID, func(game *entity.Game) error {
		return game.SubmitMove(playerID, cell, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	that.publisher.PublishSessionUpdate(game)
	that.finishIfTerminal(ctx, game)

	return game, nil
}

func (that *gamePlayService) AbandonGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	game, err := that.registry.Do(gameID, func(game *entity.Game) error {
		return game.Abandon(playerID, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to abandon game: %w", err)
	}

	that.publisher.PublishSessionUpdate(game)
	that.finishIfTerminal(ctx, game)

	that.logger.Info("game abandoned", "gameID", gameID, "playerID", playerID)

	return game, nil
}

func (that *gamePlayService) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.registry.Snapshot(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// finishIfTerminal kicks off rating bookkeeping once a session ends. The
// update runs detached: gameplay never blocks on it.
func (that *gamePlayService) finishIfTerminal(ctx context.Context, game *entity.Game) {
	if !game.IsFinished() || game.Result == "" {
		return
	}

	go that.rating.ApplyResult(context.WithoutCancel(ctx), game)
}

// NopPublisher discards updates. It stands in for the gateway in tests and
// tools that run the service without realtime subscribers.
type NopPublisher struct{}

func (NopPublisher) PublishSessionUpdate(*entity.Game) {}
