package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/entity"
	"github.com/playforge/tictactoe-live/internal/service"
)

// playerHeader carries the caller identity. Authentication itself lives in
// front of this service; by the time a request lands here the id is trusted.
const playerHeader = "X-Player-ID"

const defaultLeaderboardLimit = 5

type Handlers interface {
	Ping(w http.ResponseWriter, r *http.Request)
	CreateGame(w http.ResponseWriter, r *http.Request)
	ListGames(w http.ResponseWriter, r *http.Request)
	GetGame(w http.ResponseWriter, r *http.Request)
	JoinGame(w http.ResponseWriter, r *http.Request)
	MakeMove(w http.ResponseWriter, r *http.Request)
	AbandonGame(w http.ResponseWriter, r *http.Request)
	RandomMatch(w http.ResponseWriter, r *http.Request)
	Leaderboard(w http.ResponseWriter, r *http.Request)
}

type userReader interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Leaderboard(ctx context.Context, limit int) ([]*entity.User, error)
}

type gameArchive interface {
	GetByID(ctx context.Context, id string) (*entity.Game, error)
}

type handlers struct {
	logger *slog.Logger

	gamePlay   service.GamePlayService
	matchmaker service.MatchmakerService
	users      userReader
	archive    gameArchive
}

func NewHandlers(logger *slog.Logger, gamePlay service.GamePlayService, matchmaker service.MatchmakerService, users userReader, archive gameArchive) Handlers {
	return &handlers{
		logger:     logger.With("component", "rest"),
		gamePlay:   gamePlay,
		matchmaker: matchmaker,
		users:      users,
		archive:    archive,
	}
}

type createGameRequest struct {
	Name        string `json:"name,omitempty"`
	InitialMs   int64  `json:"initialMs,omitempty"`
	IncrementMs int64  `json:"incrementMs,omitempty"`
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type errorResponse struct {
	Kind  apperror.Kind `json:"kind"`
	Error string        `json:"error"`
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (that *handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	player, err := that.resolvePlayer(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	var req createGameRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, apperror.ErrMissingField)
		return
	}

	game, err := that.gamePlay.CreateGame(r.Context(), player, service.CreateGameParams{
		Name:        req.Name,
		InitialMs:   req.InitialMs,
		IncrementMs: req.IncrementMs,
	})
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, game)
}

func (that *handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	games := that.matchmaker.SearchByName(r.Context(), r.URL.Query().Get("search"))
	that.writeJSON(w, http.StatusOK, games)
}

func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	game, err := that.gamePlay.GetGame(r.Context(), id)
	if errors.Is(err, apperror.ErrGameNotFound) {
		// Reaped sessions live on in the archive.
		game, err = that.archive.GetByID(r.Context(), id)
	}

	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	player, err := that.resolvePlayer(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	game, err := that.gamePlay.JoinGame(r.Context(), r.PathValue("id"), player)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) MakeMove(w http.ResponseWriter, r *http.Request) {
	playerID := r.Header.Get(playerHeader)
	if playerID == "" {
		that.writeError(w, apperror.ErrMissingField)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		that.writeError(w, apperror.ErrMissingField)
		return
	}

	game, err := that.gamePlay.SubmitMove(r.Context(), r.PathValue("id"), playerID, *req.Cell)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) AbandonGame(w http.ResponseWriter, r *http.Request) {
	playerID := r.Header.Get(playerHeader)
	if playerID == "" {
		that.writeError(w, apperror.ErrMissingField)
		return
	}

	game, err := that.gamePlay.AbandonGame(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) RandomMatch(w http.ResponseWriter, r *http.Request) {
	player, err := that.resolvePlayer(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	game, err := that.matchmaker.FindRandomMatch(r.Context(), player)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			that.writeError(w, apperror.ErrMissingField)
			return
		}
		limit = parsed
	}

	users, err := that.users.Leaderboard(r.Context(), limit)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, users)
}

// resolvePlayer normalizes the caller into a PlayerRef once, at the boundary:
// a known user becomes a resolved snapshot, anyone else stays a bare id.
func (that *handlers) resolvePlayer(r *http.Request) (*entity.PlayerRef, error) {
	playerID := r.Header.Get(playerHeader)
	if playerID == "" {
		return nil, apperror.ErrMissingField
	}

	user, err := that.users.GetByID(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, apperror.ErrUserNotFound) {
			return entity.UnresolvedPlayer(playerID), nil
		}
		return nil, err
	}

	return entity.ResolvedPlayer(user), nil
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)

	var status int
	switch kind {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindRuleViolation, apperror.KindStateConflict:
		status = http.StatusConflict
	case apperror.KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}

	that.writeJSON(w, status, errorResponse{Kind: kind, Error: err.Error()})
}
