package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playforge/tictactoe-live/internal/apperror"
	"github.com/playforge/tictactoe-live/internal/entity"
)

// Archiver receives terminal sessions the reaper evicts. The hand-off is
// fire-and-forget: gameplay never waits on it.
type Archiver interface {
	Archive(ctx context.Context, game *entity.Game)
}

// Registry is the process-wide map of live sessions. It is the single source
// of truth for the current state of a game: every mutation goes through Do,
// which serializes commands per session id so join/move/abandon never
// interleave for the same game. Different ids proceed in parallel.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*slot
}

type slot struct {
	mu   sync.Mutex
	game *entity.Game
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("component", "registry"),
		sessions: make(map[string]*slot),
	}
}

// Put registers a live session under its id.
func (that *Registry) Put(game *entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[game.ID] = &slot{game: game}
}

// Do runs fn against the live session under its per-id lock and returns a
// snapshot of the resulting state. When fn fails the session is guaranteed
// unchanged by the callers' contract (commands validate before mutating), so
// the snapshot still reflects a consistent state.
func (that *Registry) Do(id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	that.mu.RLock()
	entry, ok := that.sessions[id]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := fn(entry.game); err != nil {
		return entry.game.Snapshot(), err
	}

	return entry.game.Snapshot(), nil
}

// Snapshot returns a copy of the current state of one session.
func (that *Registry) Snapshot(id string) (*entity.Game, error) {
	that.mu.RLock()
	entry, ok := that.sessions[id]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.game.Snapshot(), nil
}

// List snapshots every live session. Order is unspecified.
func (that *Registry) List() []*entity.Game {
	that.mu.RLock()
	entries := make([]*slot, 0, len(that.sessions))
	for _, entry := range that.sessions {
		entries = append(entries, entry)
	}
	that.mu.RUnlock()

	games := make([]*entity.Game, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		games = append(games, entry.game.Snapshot())
		entry.mu.Unlock()
	}

	return games
}

// Remove drops a session from the registry.
func (that *Registry) Remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, id)
}

// StartReaper periodically archives and evicts sessions that reached a
// terminal state more than ttl ago. It returns when ctx is canceled.
func (that *Registry) StartReaper(ctx context.Context, interval, ttl time.Duration, archiver Archiver) {
	log := that.logger.With("method", "reaper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.reapOnce(ctx, ttl, archiver, log)
		}
	}
}

func (that *Registry) reapOnce(ctx context.Context, ttl time.Duration, archiver Archiver, log *slog.Logger) {
	cutoff := time.Now().UTC().Add(-ttl)

	for _, game := range that.List() {
		if !game.IsFinished() {
			continue
		}

		if game.Timestamps.Ended != nil && game.Timestamps.Ended.After(cutoff) {
			continue
		}

		archiver.Archive(ctx, game)
		that.Remove(game.ID)

		log.Info("session reaped", "gameID", game.ID, "status", game.Status)
	}
}
