package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/tictactoe"
)

const (
	tenMinutesMs = int64(10 * 60 * 1000)
)

func newTestGame() *Game {
	return NewGame("game-1", "friday night", UnresolvedPlayer("alice"), TimeControl{
		InitialMs:   tenMinutesMs,
		IncrementMs: 0,
	})
}

func startedTestGame(t *testing.T, now time.Time) *Game {
	t.Helper()

	game := newTestGame()
	require.NoError(t, game.Join(UnresolvedPlayer("bob"), now))

	return game
}

func TestNewGame(t *testing.T) {
	// Given/When: a fresh session
	game := newTestGame()

	// Then: it waits for a second player, first to move, clocks charged
	assert.Equal(t, StatusWaiting, game.Status)
	assert.Equal(t, ColorFirst, game.Turn)
	assert.Equal(t, "alice", game.Players.First.ID)
	assert.Nil(t, game.Players.Second)
	assert.Empty(t, game.Moves)
	assert.Equal(t, tenMinutesMs, game.Remaining.FirstMs)
	assert.Equal(t, tenMinutesMs, game.Remaining.SecondMs)
	assert.False(t, game.Timestamps.Created.IsZero())
	assert.Nil(t, game.Timestamps.Started)
}

func TestGame_Join(t *testing.T) {
	now := time.Now()

	t.Run("Seats second player and starts the game", func(t *testing.T) {
		// Given: a waiting game
		game := newTestGame()

		// When: a second player joins
		err := game.Join(UnresolvedPlayer("bob"), now)

		// Then: the game is in progress with first to move
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, game.Status)
		assert.Equal(t, ColorFirst, game.Turn)
		assert.Equal(t, "bob", game.Players.Second.ID)
		require.NotNil(t, game.Timestamps.Started)
	})

	t.Run("Rejects the creator joining their own game", func(t *testing.T) {
		game := newTestGame()

		err := game.Join(UnresolvedPlayer("alice"), now)

		assert.ErrorIs(t, err, apperror.ErrSelfJoin)
		assert.Equal(t, StatusWaiting, game.Status)
	})

	t.Run("Rejects a third player", func(t *testing.T) {
		game := startedTestGame(t, now)

		err := game.Join(UnresolvedPlayer("carol"), now)

		assert.ErrorIs(t, err, apperror.ErrGameAlreadyFull)
		assert.Equal(t, "bob", game.Players.Second.ID)
	})
}

func TestGame_SubmitMove(t *testing.T) {
	now := time.Now()

	t.Run("Rejects moves before the game starts", func(t *testing.T) {
		// Given: a waiting game
		game := newTestGame()

		// When: the creator tries to move
		err := game.SubmitMove("alice", 4, now)

		// Then: the move is rejected and nothing changed
		assert.ErrorIs(t, err, apperror.ErrGameNotStarted)
		assert.Empty(t, game.Moves)
	})

	t.Run("Rejects second player moving first", func(t *testing.T) {
		game := startedTestGame(t, now)

		err := game.SubmitMove("bob", 0, now.Add(time.Second))

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Empty(t, game.Moves)
		assert.Equal(t, tictactoe.Board{}, game.Board)
	})

	t.Run("Rejects a player outside the game", func(t *testing.T) {
		game := startedTestGame(t, now)

		err := game.SubmitMove("mallory", 0, now.Add(time.Second))

		assert.ErrorIs(t, err, apperror.ErrUnknownPlayer)
	})

	t.Run("Accepts a move, appends it, and flips the turn", func(t *testing.T) {
		// Given: a just-started game
		game := startedTestGame(t, now)

		// When: the first player takes the center
		err := game.SubmitMove("alice", 4, now.Add(2*time.Second))

		// Then: the move is logged and it is second's turn
		require.NoError(t, err)
		require.Len(t, game.Moves, 1)
		assert.Equal(t, 1, game.Moves[0].Sequence)
		assert.Equal(t, 4, game.Moves[0].Cell)
		assert.Equal(t, tictactoe.MarkX, game.Moves[0].Mark)
		assert.Equal(t, ColorFirst, game.Moves[0].Color)
		assert.Equal(t, ColorSecond, game.Turn)
		assert.Equal(t, StatusInProgress, game.Status)
	})

	t.Run("Charges elapsed time to the mover and credits the increment", func(t *testing.T) {
		// Given: a 10m+2s control, 5s spent thinking
		game := NewGame("g", "", UnresolvedPlayer("alice"), TimeControl{
			InitialMs:   tenMinutesMs,
			IncrementMs: 2000,
		})
		require.NoError(t, game.Join(UnresolvedPlayer("bob"), now))

		// When: first moves after 5s
		require.NoError(t, game.SubmitMove("alice", 0, now.Add(5*time.Second)))

		// Then: first lost 5s and gained the 2s increment; second untouched
		assert.Equal(t, tenMinutesMs-5000+2000, game.Remaining.FirstMs)
		assert.Equal(t, tenMinutesMs, game.Remaining.SecondMs)
	})

	t.Run("Idempotent rejection leaves the log unchanged", func(t *testing.T) {
		game := startedTestGame(t, now)
		require.NoError(t, game.SubmitMove("alice", 4, now.Add(time.Second)))

		// When: second tries the occupied center twice
		first := game.SubmitMove("bob", 4, now.Add(2*time.Second))
		second := game.SubmitMove("bob", 4, now.Add(3*time.Second))

		// Then: same error kind both times, log length unchanged
		assert.ErrorIs(t, first, apperror.ErrCellOccupied)
		assert.ErrorIs(t, second, apperror.ErrCellOccupied)
		assert.Len(t, game.Moves, 1)
	})

	t.Run("Strictly alternates colors across accepted moves", func(t *testing.T) {
		game := startedTestGame(t, now)

		moves := []struct {
			player string
			cell   int
		}{
			{"alice", 4}, {"bob", 8}, {"alice", 0}, {"bob", 2}, {"alice", 6},
		}

		at := now
		for _, m := range moves {
			at = at.Add(time.Second)
			require.NoError(t, game.SubmitMove(m.player, m.cell, at))
		}

		for i := 1; i < len(game.Moves); i++ {
			assert.NotEqual(t, game.Moves[i-1].Color, game.Moves[i].Color)
		}
	})

	t.Run("Completes with a win inside the same command", func(t *testing.T) {
		// Given: a started game; A aims for the top row
		game := startedTestGame(t, now)

		at := now
		for _, m := range []struct {
			player string
			cell   int
		}{
			{"alice", 4}, {"bob", 3}, {"alice", 0}, {"bob", 7}, {"alice", 1}, {"bob", 6},
		} {
			at = at.Add(time.Second)
			require.NoError(t, game.SubmitMove(m.player, m.cell, at))
		}

		// When: A fills cells 0,1,2
		require.NoError(t, game.SubmitMove("alice", 2, at.Add(time.Second)))

		// Then: the session is completed atomically, no in_progress window
		assert.Equal(t, StatusCompleted, game.Status)
		assert.Equal(t, ResultFirstWins, game.Result)
		assert.Equal(t, "alice", game.Winner)
		require.NotNil(t, game.Timestamps.Ended)
		assert.True(t, game.Moves[len(game.Moves)-1].WonGame)
		assert.Empty(t, game.Turn)
	})

	t.Run("Completes with a draw when the board fills without a line", func(t *testing.T) {
		game := startedTestGame(t, now)

		// X X O / O O X / X O X: full board, no line
		at := now
		for _, m := range []struct {
			player string
			cell   int
		}{
			{"alice", 0}, {"bob", 2}, {"alice", 1}, {"bob", 3}, {"alice", 5},
			{"bob", 4}, {"alice", 6}, {"bob", 7}, {"alice", 8},
		} {
			at = at.Add(time.Second)
			require.NoError(t, game.SubmitMove(m.player, m.cell, at))
		}

		assert.Equal(t, StatusCompleted, game.Status)
		assert.Equal(t, ResultDraw, game.Result)
		assert.Empty(t, game.Winner)
		assert.True(t, game.Moves[len(game.Moves)-1].DrewGame)
	})

	t.Run("Rejects moves after completion and result never changes", func(t *testing.T) {
		game := startedTestGame(t, now)

		at := now
		for _, m := range []struct {
			player string
			cell   int
		}{
			{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4}, {"alice", 2},
		} {
			at = at.Add(time.Second)
			require.NoError(t, game.SubmitMove(m.player, m.cell, at))
		}
		require.Equal(t, StatusCompleted, game.Status)

		err := game.SubmitMove("bob", 5, at.Add(time.Second))

		assert.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, ResultFirstWins, game.Result)
		assert.Len(t, game.Moves, 5)
	})

	t.Run("Depleted clock turns the command into a timeout completion", func(t *testing.T) {
		// Given: a 1-second control
		game := NewGame("g", "", UnresolvedPlayer("alice"), TimeControl{InitialMs: 1000})
		require.NoError(t, game.Join(UnresolvedPlayer("bob"), now))

		// When: first moves after their clock ran out
		err := game.SubmitMove("alice", 4, now.Add(5*time.Second))

		// Then: no move is applied; the opponent wins on time
		require.NoError(t, err)
		assert.Empty(t, game.Moves)
		assert.Equal(t, tictactoe.Board{}, game.Board)
		assert.Equal(t, StatusCompleted, game.Status)
		assert.Equal(t, ResultSecondWins, game.Result)
		assert.Equal(t, "bob", game.Winner)
		assert.Zero(t, game.Remaining.FirstMs)
	})
}

func TestGame_Abandon(t *testing.T) {
	now := time.Now()

	t.Run("In-progress abandon scores for the opponent", func(t *testing.T) {
		// Given: a started game
		game := startedTestGame(t, now)

		// When: the first player abandons
		err := game.Abandon("alice", now.Add(time.Minute))

		// Then: the game is terminal and second wins
		require.NoError(t, err)
		assert.Equal(t, StatusAbandoned, game.Status)
		assert.Equal(t, ResultSecondWins, game.Result)
		assert.Equal(t, "bob", game.Winner)
		require.NotNil(t, game.Timestamps.Ended)
	})

	t.Run("Abandoning a waiting game just cancels it", func(t *testing.T) {
		game := newTestGame()

		err := game.Abandon("alice", now)

		require.NoError(t, err)
		assert.Equal(t, StatusAbandoned, game.Status)
		assert.Empty(t, game.Result)
		assert.Empty(t, game.Winner)
	})

	t.Run("Rejects a non-participant", func(t *testing.T) {
		game := startedTestGame(t, now)

		err := game.Abandon("mallory", now)

		assert.ErrorIs(t, err, apperror.ErrNotAParticipant)
		assert.Equal(t, StatusInProgress, game.Status)
	})

	t.Run("Terminal sessions cannot be abandoned again", func(t *testing.T) {
		game := startedTestGame(t, now)
		require.NoError(t, game.Abandon("bob", now))

		err := game.Abandon("alice", now)

		assert.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, ResultFirstWins, game.Result)
	})
}

func TestGame_Snapshot(t *testing.T) {
	now := time.Now()

	// Given: a game with one move
	game := startedTestGame(t, now)
	require.NoError(t, game.SubmitMove("alice", 4, now.Add(time.Second)))

	// When: snapshotting and mutating the original further
	snapshot := game.Snapshot()
	require.NoError(t, game.SubmitMove("bob", 0, now.Add(2*time.Second)))
	game.Players.First.Username = "renamed"

	// Then: the snapshot is isolated from later mutation
	assert.Len(t, snapshot.Moves, 1)
	assert.Len(t, game.Moves, 2)
	assert.Empty(t, snapshot.Players.First.Username)
	assert.Equal(t, tictactoe.MarkX, snapshot.Board[4])
	assert.Equal(t, tictactoe.EmptyCell, snapshot.Board[0])
}

func TestPlayerRef(t *testing.T) {
	t.Run("Unresolved ref reports the default rating", func(t *testing.T) {
		ref := UnresolvedPlayer("alice")

		assert.False(t, ref.Resolved)
		assert.Equal(t, DefaultRating, ref.RatingOrDefault())
	})

	t.Run("Resolved ref snapshots the user", func(t *testing.T) {
		user := NewUser("alice", "Alice")
		user.Rating = 1475

		ref := ResolvedPlayer(user)

		assert.True(t, ref.Resolved)
		assert.Equal(t, "Alice", ref.Username)
		assert.Equal(t, 1475, ref.RatingOrDefault())
	})
}
