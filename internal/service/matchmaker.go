package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/entity"
)

type MatchmakerService interface {
	FindRandomMatch(ctx context.Context, requester *entity.PlayerRef) (*entity.Game, error)
	SearchByName(ctx context.Context, term string) []*entity.Game
}

type matchmakerService struct {
	logger *slog.Logger

	registry sessionRegistry
	gamePlay GamePlayService

	ratingBand int
}

func NewMatchmakerService(logger *slog.Logger, registry sessionRegistry, gamePlay GamePlayService, ratingBand int) MatchmakerService {
	return &matchmakerService{
		logger:     logger.With("component", "matchmaker"),
		registry:   registry,
		gamePlay:   gamePlay,
		ratingBand: ratingBand,
	}
}

// FindRandomMatch pairs the requester with the oldest waiting session whose
// creator sits within the rating band. First fit wins; when nothing matches,
// a new waiting session is created so the next seeker can match the
// requester instead.
func (that *matchmakerService) FindRandomMatch(ctx context.Context, requester *entity.PlayerRef) (*entity.Game, error) {
	log := that.logger.With("method", "FindRandomMatch", "playerID", requester.ID)

	rating := requester.RatingOrDefault()

	candidates := lo.Filter(that.registry.List(), func(game *entity.Game, _ int) bool {
		if !game.IsWaiting() || game.Players.First == nil {
			return false
		}
		if game.Players.First.ID == requester.ID {
			return false
		}
		diff := game.Players.First.RatingOrDefault() - rating
		return diff >= -that.ratingBand && diff <= that.ratingBand
	})

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Timestamps.Created.Before(candidates[j].Timestamps.Created)
	})

	for _, candidate := range candidates {
		game, err := that.gamePlay.JoinGame(ctx, candidate.ID, requester)
		if err == nil {
			log.Info("matched into waiting game", "gameID", game.ID)
			return game, nil
		}

		// Someone else took the seat between the scan and the join; keep going.
		if errors.Is(err, apperror.ErrGameAlreadyFull) || errors.Is(err, apperror.ErrGameNotFound) {
			continue
		}

		return nil, fmt.Errorf("failed to join matched game: %w", err)
	}

	game, err := that.gamePlay.CreateGame(ctx, requester, CreateGameParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback game: %w", err)
	}

	log.Info("no opponent in band, created waiting game", "gameID", game.ID)

	return game, nil
}

// SearchByName returns waiting and in-progress sessions whose name contains
// term, case-insensitively. An empty term lists them all; an empty result is
// not an error.
func (that *matchmakerService) SearchByName(_ context.Context, term string) []*entity.Game {
	needle := strings.ToLower(strings.TrimSpace(term))

	games := lo.Filter(that.registry.List(), func(game *entity.Game, _ int) bool {
		if game.IsFinished() {
			return false
		}
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(game.Name), needle)
	})

	sort.Slice(games, func(i, j int) bool {
		return games[i].Timestamps.Created.Before(games[j].Timestamps.Created)
	})

	return games
}
