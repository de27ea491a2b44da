package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/playforge/tictactoe-live/internal/entity"
)

const eloK = 32

type userRepo interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Save(ctx context.Context, user *entity.User) error
}

type RatingService interface {
	ApplyResult(ctx context.Context, game *entity.Game)
}

type eloRatingService struct {
	logger *slog.Logger
	users  userRepo
}

func NewRatingService(logger *slog.Logger, users userRepo) RatingService {
	return &eloRatingService{
		logger: logger.With("component", "rating"),
		users:  users,
	}
}

// ApplyResult updates both players' ratings and counters from a terminal
// session. Failures only cost a rating update, never gameplay state, so they
// are logged and swallowed.
func (that *eloRatingService) ApplyResult(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "ApplyResult", "gameID", game.ID)

	if game.Players.First == nil || game.Players.Second == nil {
		return
	}

	first, err := that.users.GetByID(ctx, game.Players.First.ID)
	if err != nil {
		log.Error("failed to load first player", "error", err)
		return
	}

	second, err := that.users.GetByID(ctx, game.Players.Second.ID)
	if err != nil {
		log.Error("failed to load second player", "error", err)
		return
	}

	var firstScore float64
	switch game.Result {
	case entity.ResultFirstWins:
		firstScore = 1
	case entity.ResultSecondWins:
		firstScore = 0
	case entity.ResultDraw:
		firstScore = 0.5
	default:
		return
	}

	firstExpected := expectedScore(first.Rating, second.Rating)
	firstDelta := int(math.Round(eloK * (firstScore - firstExpected)))

	first.Rating += firstDelta
	second.Rating -= firstDelta

	first.GamesPlayed++
	second.GamesPlayed++

	switch game.Result {
	case entity.ResultFirstWins:
		first.GamesWon++
		second.GamesLost++
	case entity.ResultSecondWins:
		first.GamesLost++
		second.GamesWon++
	case entity.ResultDraw:
		first.GamesDrawn++
		second.GamesDrawn++
	}

	if err = that.users.Save(ctx, first); err != nil {
		log.Error("failed to save first player", "error", err)
	}

	if err = that.users.Save(ctx, second); err != nil {
		log.Error("failed to save second player", "error", err)
	}

	log.Info("ratings updated", "result", game.Result, "delta", firstDelta)
}

func expectedScore(rating, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-rating)/400))
}
