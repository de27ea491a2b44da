package apperror

import "errors"

var (
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrGameNotStarted  = errors.New("game is not started")
	ErrGameFinished    = errors.New("game is already finished")
	ErrGameAlreadyFull = errors.New("game already has two players")
	ErrSelfJoin        = errors.New("player cannot join their own game")
	ErrNotAParticipant = errors.New("player is not a participant of this game")
	ErrUnknownPlayer   = errors.New("player is not part of this game")
	ErrGameNotFound    = errors.New("game not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrMissingField    = errors.New("required field is missing")
)

// Kind classifies errors for transports: it decides HTTP status codes and
// the `kind` field of realtime error events.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindRuleViolation Kind = "rule_violation"
	KindStateConflict Kind = "state_conflict"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// KindOf maps a sentinel error to its taxonomy kind. Unrecognized errors are
// internal: they never originate from a rejected command.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidCell), errors.Is(err, ErrMissingField):
		return KindValidation
	case errors.Is(err, ErrCellOccupied), errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrGameNotStarted), errors.Is(err, ErrGameFinished):
		return KindRuleViolation
	case errors.Is(err, ErrGameAlreadyFull), errors.Is(err, ErrSelfJoin),
		errors.Is(err, ErrNotAParticipant), errors.Is(err, ErrUnknownPlayer):
		return KindStateConflict
	case errors.Is(err, ErrGameNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
