package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/entity"
)

// GameArchive persists terminal session snapshots. In-memory registry state
// stays authoritative for gameplay; the archive only backs queries for games
// that were already reaped.
type GameArchive interface {
	Archive(ctx context.Context, game *entity.Game)
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	logger *slog.Logger
	client *redis.Client
}

func NewGameArchive(logger *slog.Logger, client *redis.Client) GameArchive {
	return &dbGame{
		logger: logger.With("component", "game-archive"),
		client: client,
	}
}

// Archive stores the snapshot. It is fire-and-forget: a storage failure is
// logged and must never stall or corrupt gameplay.
func (that *dbGame) Archive(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "Archive", "gameID", game.ID)

	gameJSON, err := json.Marshal(game)
	if err != nil {
		log.Error("could not marshal game", "error", err)
		return
	}

	if err = that.client.Set(ctx, gameKey(game.ID), gameJSON, 0).Err(); err != nil {
		log.Error("failed to set game", "error", err)
	}
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var game entity.Game
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, gameKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	return nil
}

func gameKey(id string) string {
	return "game:" + id
}
