package service_library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coplay/gamenight/core/internal/model"
	usecase_roster "github.com/coplay/gamenight/core/internal/usecase/roster"
)

var (
	ErrUnknownUser = errors.New("unknown user")
	ErrNoAccounts  = errors.New("user has no linked platform accounts")
)

type UserResolver interface {
	ByUsername(ctx context.Context, username string) (model.User, error)
}

type PlatformClient interface {
	OwnedGames(ctx context.Context, owner, accountID string) ([]model.GameRecord, error)
}

type Cache interface {
	Get(username string) ([]model.GameRecord, bool, error)
	Set(username string, games []model.GameRecord) error
}

// Service resolves a username to its platform accounts and fetches the
// owned-games list, going through the cache first. It is the picker's
// LibraryProvider. Fetch failures are propagated, never downgraded to an
// empty library.
type Service struct {
	users  UserResolver
	steam  PlatformClient
	cache  Cache
	logger *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(users UserResolver, steam PlatformClient, cache Cache, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		steam:  steam,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) FetchLibrary(ctx context.Context, username string) ([]model.GameRecord, error) {
	if s.cache != nil {
		games, hit, err := s.cache.Get(username)
		if err != nil {
			// Cache trouble is not a provider failure; log and fall
			// through to the real fetch.
			s.logger.Warn("library cache read failed",
				slog.String("user", username),
				slog.String("error", err.Error()))
		} else if hit {
			return games, nil
		}
	}

	user, err := s.users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, usecase_roster.ErrResourceNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, username)
		}
		return nil, err
	}
	if user.SteamID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAccounts, username)
	}

	games, err := s.steam.OwnedGames(ctx, username, user.SteamID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("library fetched",
		slog.String("user", username),
		slog.Int("games", len(games)))

	if s.cache != nil {
		if err := s.cache.Set(username, games); err != nil {
			s.logger.Warn("library cache write failed",
				slog.String("user", username),
				slog.String("error", err.Error()))
		}
	}
	return games, nil
}
