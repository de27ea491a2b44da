package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/entity"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemoryUserRepo(users ...*entity.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[string]*entity.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (that *memoryUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, ok := that.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrUserNotFound, id)
	}

	clone := *user
	return &clone, nil
}

func (that *memoryUserRepo) Save(_ context.Context, user *entity.User) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	clone := *user
	that.users[user.ID] = &clone
	return nil
}

func completedGame(result string) *entity.Game {
	game := entity.NewGame("g1", "", entity.UnresolvedPlayer("alice"), entity.TimeControl{InitialMs: 60000})
	_ = game.Join(entity.UnresolvedPlayer("bob"), time.Now())
	game.Status = entity.StatusCompleted
	game.Result = result
	return game
}

func TestRatingService_ApplyResult(t *testing.T) {
	ctx := context.Background()

	t.Run("Equal ratings, first wins: 16 points change hands", func(t *testing.T) {
		// Given: two 1200-rated users
		repo := newMemoryUserRepo(entity.NewUser("alice", "Alice"), entity.NewUser("bob", "Bob"))
		svc := NewRatingService(testLogger(), repo)

		// When: first wins
		svc.ApplyResult(ctx, completedGame(entity.ResultFirstWins))

		// Then: winner gains what the loser drops, counters move
		alice, err := repo.GetByID(ctx, "alice")
		require.NoError(t, err)
		bob, err := repo.GetByID(ctx, "bob")
		require.NoError(t, err)

		assert.Equal(t, 1216, alice.Rating)
		assert.Equal(t, 1184, bob.Rating)
		assert.Equal(t, 1, alice.GamesWon)
		assert.Equal(t, 1, bob.GamesLost)
		assert.Equal(t, 1, alice.GamesPlayed)
		assert.Equal(t, 1, bob.GamesPlayed)
	})

	t.Run("Draw between equals moves nothing but the counters", func(t *testing.T) {
		repo := newMemoryUserRepo(entity.NewUser("alice", "Alice"), entity.NewUser("bob", "Bob"))
		svc := NewRatingService(testLogger(), repo)

		svc.ApplyResult(ctx, completedGame(entity.ResultDraw))

		alice, err := repo.GetByID(ctx, "alice")
		require.NoError(t, err)
		bob, err := repo.GetByID(ctx, "bob")
		require.NoError(t, err)

		assert.Equal(t, entity.DefaultRating, alice.Rating)
		assert.Equal(t, entity.DefaultRating, bob.Rating)
		assert.Equal(t, 1, alice.GamesDrawn)
		assert.Equal(t, 1, bob.GamesDrawn)
	})

	t.Run("Underdog win pays more than a favorite win", func(t *testing.T) {
		favorite := entity.NewUser("alice", "Alice")
		favorite.Rating = 1400
		underdog := entity.NewUser("bob", "Bob")
		underdog.Rating = 1200

		repo := newMemoryUserRepo(favorite, underdog)
		svc := NewRatingService(testLogger(), repo)

		svc.ApplyResult(ctx, completedGame(entity.ResultSecondWins))

		bob, err := repo.GetByID(ctx, "bob")
		require.NoError(t, err)
		assert.Greater(t, bob.Rating, 1216)
	})

	t.Run("Unknown users leave ratings untouched", func(t *testing.T) {
		repo := newMemoryUserRepo(entity.NewUser("alice", "Alice"))
		svc := NewRatingService(testLogger(), repo)

		// bob was never registered; the update is skipped wholesale
		svc.ApplyResult(ctx, completedGame(entity.ResultFirstWins))

		alice, err := repo.GetByID(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, entity.DefaultRating, alice.Rating)
		assert.Zero(t, alice.GamesPlayed)
	})
}
