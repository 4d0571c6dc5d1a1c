package usecase_voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coplay/gamenight/core/internal/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
)

const (
	DefaultRetention = 30 * time.Minute
	DefaultSweepTick = time.Minute
)

// Registry owns every live voting session. Its map has its own lock,
// independent of the per-session locks, so creating or looking up one
// session never serializes votes on another.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

type RegistryOption func(*Registry)

// WithClock injects the time source, for expiry tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func WithRetention(retention time.Duration) RegistryOption {
	return func(r *Registry) {
		if retention > 0 {
			r.retention = retention
		}
	}
}

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions:  make(map[string]*Session),
		retention: DefaultRetention,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates the shortlist and roster and opens a session. Session
// IDs are v4 UUIDs: collision-resistant and unguessable, though the voter
// roster stays the authoritative gate on who may vote.
func (r *Registry) Create(candidates []model.GameRecord, voters []string, duration time.Duration) (*Session, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: candidate list is empty", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.AppID == "" {
			return nil, fmt.Errorf("%w: candidate without app id", ErrInvalidInput)
		}
		if _, dup := seen[c.AppID]; dup {
			return nil, fmt.Errorf("%w: duplicate candidate %s", ErrInvalidInput, c.AppID)
		}
		seen[c.AppID] = struct{}{}
	}
	if len(voters) == 0 {
		return nil, fmt.Errorf("%w: voter roster is empty", ErrInvalidInput)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: non-positive duration", ErrInvalidInput)
	}

	session := newSession(uuid.NewString(), candidates, voters, duration, r.now)

	r.mu.Lock()
	r.sessions[session.id] = session
	r.mu.Unlock()

	r.logger.Info("voting session created",
		slog.String("session_id", session.id),
		slog.Int("candidates", len(candidates)),
		slog.Int("voters", len(voters)),
		slog.Duration("duration", duration))

	return session, nil
}

func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

func (r *Registry) CastVote(sessionID, voter, appID string) (model.VoteOutcome, error) {
	session, err := r.Get(sessionID)
	if err != nil {
		return model.VoteOutcome{}, err
	}
	return session.CastVote(voter, appID), nil
}

func (r *Registry) Results(sessionID string) (map[string]model.Tally, error) {
	session, err := r.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Results(), nil
}

// Close closes the session and returns the winner, nil when nobody voted.
func (r *Registry) Close(sessionID string) (*model.GameRecord, error) {
	session, err := r.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Close(), nil
}

// Progress reports vote progress for the ws hub.
func (r *Registry) Progress(sessionID string) (votesCast, eligible int, err error) {
	session, err := r.Get(sessionID)
	if err != nil {
		return 0, 0, err
	}
	votesCast, eligible = session.Progress()
	return votesCast, eligible, nil
}

func (r *Registry) Exists(sessionID string) bool {
	_, err := r.Get(sessionID)
	return err == nil
}

// Sweep drops closed sessions that have outlived the retention window and
// returns how many were removed. Session IDs are never reused, so a swept
// ID simply becomes not-found.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.retired(r.retention) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("swept retired sessions", slog.Int("removed", removed))
	}
	return removed
}

// RunSweeper garbage-collects on a ticker until ctx is done. Expiry itself
// is lazy; the sweeper only bounds memory.
func (r *Registry) RunSweeper(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultSweepTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
