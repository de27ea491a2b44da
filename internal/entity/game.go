package entity

import (
	"fmt"
	"time"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/tictactoe"
)

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"

	ColorFirst  = "first"
	ColorSecond = "second"

	ResultFirstWins  = "first_wins"
	ResultSecondWins = "second_wins"
	ResultDraw       = "draw"
)

// TimeControl holds the clock parameters a game was created with.
type TimeControl struct {
	InitialMs   int64 `json:"initialMs"`
	IncrementMs int64 `json:"incrementMs"`
}

// Remaining is the live clock state, one bank per player.
type Remaining struct {
	FirstMs  int64 `json:"firstMs"`
	SecondMs int64 `json:"secondMs"`
}

type Players struct {
	First  *PlayerRef `json:"first"`
	Second *PlayerRef `json:"second,omitempty"`
}

type Timestamps struct {
	Created time.Time  `json:"created"`
	Started *time.Time `json:"started,omitempty"`
	Ended   *time.Time `json:"ended,omitempty"`
}

// Move is one accepted placement, immutable once appended.
type Move struct {
	Sequence  int       `json:"sequence"`
	Cell      int       `json:"cell"`
	Mark      string    `json:"mark"`
	Color     string    `json:"color"`
	Timestamp time.Time `json:"timestamp"`
	WonGame   bool      `json:"wonGame,omitempty"`
	DrewGame  bool      `json:"drewGame,omitempty"`
}

// Game is the authoritative state of one session. Its JSON form is the wire
// snapshot, identical for query responses and broadcasts.
type Game struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Status      string          `json:"status"`
	Turn        string          `json:"currentTurn,omitempty"`
	Players     Players         `json:"players"`
	Board       tictactoe.Board `json:"board"`
	Moves       []Move          `json:"moves"`
	TimeControl TimeControl     `json:"timeControl"`
	Remaining   Remaining       `json:"remaining"`
	Result      string          `json:"result,omitempty"`
	Winner      string          `json:"winner,omitempty"`
	Timestamps  Timestamps      `json:"timestamps"`

	// TurnStartedAt anchors the elapsed-time charge for the player to move.
	TurnStartedAt time.Time `json:"-"`
}

// NewGame constructs a waiting session. The first player always plays X and
// always opens.
func NewGame(id, name string, creator *PlayerRef, control TimeControl) *Game {
	return &Game{
		ID:          id,
		Name:        name,
		Status:      StatusWaiting,
		Turn:        ColorFirst,
		Players:     Players{First: creator},
		Moves:       []Move{},
		TimeControl: control,
		Remaining: Remaining{
			FirstMs:  control.InitialMs,
			SecondMs: control.InitialMs,
		},
		Timestamps: Timestamps{Created: time.Now().UTC()},
	}
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

// IsFinished reports whether the session reached a terminal state.
func (that *Game) IsFinished() bool {
	return that.Status == StatusCompleted || that.Status == StatusAbandoned
}

// Join seats the second player and starts the game. It is the only transition
// that unblocks move acceptance.
func (that *Game) Join(second *PlayerRef, now time.Time) error {
	if !that.IsWaiting() || that.Players.Second != nil {
		return fmt.Errorf("%w: game %s", apperror.ErrGameAlreadyFull, that.ID)
	}

	if second.ID == that.Players.First.ID {
		return fmt.Errorf("%w: game %s", apperror.ErrSelfJoin, that.ID)
	}

	started := now.UTC()
	that.Players.Second = second
	that.Status = StatusInProgress
	that.Timestamps.Started = &started
	that.TurnStartedAt = now

	return nil
}

// ColorOf resolves a participant id to its seat color.
func (that *Game) ColorOf(playerID string) (string, error) {
	if that.Players.First != nil && that.Players.First.ID == playerID {
		return ColorFirst, nil
	}
	if that.Players.Second != nil && that.Players.Second.ID == playerID {
		return ColorSecond, nil
	}
	return "", fmt.Errorf("%w: player %s", apperror.ErrUnknownPlayer, playerID)
}

// MarkOf returns the mark a seat color places.
func MarkOf(color string) string {
	if color == ColorFirst {
		return tictactoe.MarkX
	}
	return tictactoe.MarkO
}

func colorOfMark(mark string) string {
	if mark == tictactoe.MarkX {
		return ColorFirst
	}
	return ColorSecond
}

func winResultOf(color string) string {
	if color == ColorFirst {
		return ResultFirstWins
	}
	return ResultSecondWins
}

func (that *Game) opponentOf(color string) *PlayerRef {
	if color == ColorFirst {
		return that.Players.Second
	}
	return that.Players.First
}

// SubmitMove validates and applies one placement for playerID. The whole
// command is atomic: any rejection leaves the session untouched. Clock
// depletion is checked before move validity; a depleted clock turns the
// command into a timeout completion in favor of the opponent, and the move is
// never applied.
func (that *Game) SubmitMove(playerID string, cell int, now time.Time) error {
	switch {
	case that.IsWaiting():
		return fmt.Errorf("%w: game %s", apperror.ErrGameNotStarted, that.ID)
	case that.IsFinished():
		return fmt.Errorf("%w: game %s", apperror.ErrGameFinished, that.ID)
	}

	color, err := that.ColorOf(playerID)
	if err != nil {
		return err
	}

	if that.Turn != color {
		return fmt.Errorf("%w: game %s", apperror.ErrNotYourTurn, that.ID)
	}

	elapsed := now.Sub(that.TurnStartedAt).Milliseconds()
	if that.remainingOf(color)-elapsed <= 0 {
		that.completeByTimeout(color, now)
		return nil
	}

	board, err := tictactoe.Apply(that.Board, cell, MarkOf(color))
	if err != nil {
		return err
	}

	that.Board = board
	that.chargeClock(color, elapsed)

	move := Move{
		Sequence:  len(that.Moves) + 1,
		Cell:      cell,
		Mark:      MarkOf(color),
		Color:     color,
		Timestamp: now.UTC(),
	}

	that.Turn = opponentColor(color)
	that.TurnStartedAt = now

	// Terminal detection happens inside the same command: a winning position
	// never reports in_progress.
	switch outcome := tictactoe.Evaluate(board); outcome {
	case tictactoe.MarkX, tictactoe.MarkO:
		move.WonGame = true
		that.complete(winResultOf(colorOfMark(outcome)), playerID, now)
	case tictactoe.MarkTie:
		move.DrewGame = true
		that.complete(ResultDraw, "", now)
	}

	that.Moves = append(that.Moves, move)

	return nil
}

// Abandon ends the game on behalf of a participant. An in-progress game is
// scored for the opponent; a waiting game is simply cancelled.
func (that *Game) Abandon(playerID string, now time.Time) error {
	if that.IsFinished() {
		return fmt.Errorf("%w: game %s", apperror.ErrGameFinished, that.ID)
	}

	color, err := that.ColorOf(playerID)
	if err != nil {
		return fmt.Errorf("%w: player %s", apperror.ErrNotAParticipant, playerID)
	}

	ended := now.UTC()
	that.Timestamps.Ended = &ended
	that.Turn = ""

	if that.IsWaiting() {
		that.Status = StatusAbandoned
		return nil
	}

	opponent := that.opponentOf(color)
	that.Status = StatusAbandoned
	that.Result = winResultOf(opponentColor(color))
	that.Winner = opponent.ID

	return nil
}

// Snapshot deep-copies the session for hand-off outside the registry lock.
func (that *Game) Snapshot() *Game {
	clone := *that
	clone.Players.First = that.Players.First.Clone()
	clone.Players.Second = that.Players.Second.Clone()
	clone.Moves = make([]Move, len(that.Moves))
	copy(clone.Moves, that.Moves)

	if that.Timestamps.Started != nil {
		started := *that.Timestamps.Started
		clone.Timestamps.Started = &started
	}
	if that.Timestamps.Ended != nil {
		ended := *that.Timestamps.Ended
		clone.Timestamps.Ended = &ended
	}

	return &clone
}

func (that *Game) remainingOf(color string) int64 {
	if color == ColorFirst {
		return that.Remaining.FirstMs
	}
	return that.Remaining.SecondMs
}

func (that *Game) chargeClock(color string, elapsedMs int64) {
	credit := that.TimeControl.IncrementMs - elapsedMs
	if color == ColorFirst {
		that.Remaining.FirstMs += credit
	} else {
		that.Remaining.SecondMs += credit
	}
}

func (that *Game) completeByTimeout(depleted string, now time.Time) {
	if depleted == ColorFirst {
		that.Remaining.FirstMs = 0
	} else {
		that.Remaining.SecondMs = 0
	}

	opponent := that.opponentOf(depleted)
	that.complete(winResultOf(opponentColor(depleted)), opponent.ID, now)
}

func (that *Game) complete(result, winnerID string, now time.Time) {
	ended := now.UTC()
	that.Status = StatusCompleted
	that.Result = result
	that.Winner = winnerID
	that.Turn = ""
	that.Timestamps.Ended = &ended
}

func opponentColor(color string) string {
	if color == ColorFirst {
		return ColorSecond
	}
	return ColorFirst
}
