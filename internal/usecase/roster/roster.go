package usecase_roster

import (
	"context"
	"errors"

	"github.com/coplay/gamenight/core/internal/model"
)

var (
	ErrInternal         = errors.New("internal error")
	ErrResourceNotFound = errors.New("no such resource")
	ErrAlreadyExists    = errors.New("already exists")
)

//go:generate mockery --name=UserRepository --output=./mocks/roster/users --filename=users.go
type UserRepository interface {
	Create(ctx context.Context, user model.User) error
	ByUsername(ctx context.Context, username string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

//go:generate mockery --name=IgnoreRepository --output=./mocks/roster/ignores --filename=ignores.go
type IgnoreRepository interface {
	Entries(ctx context.Context, username string) ([]model.IgnoreEntry, error)
	Toggle(ctx context.Context, entry model.IgnoreEntry) (bool, error)
	SharedIgnores(ctx context.Context, usernames []string) ([]string, error)
}

type Usecase struct {
	users   UserRepository
	ignores IgnoreRepository
}

func New(users UserRepository, ignores IgnoreRepository) *Usecase {
	return &Usecase{
		users:   users,
		ignores: ignores,
	}
}

func (u *Usecase) Register(ctx context.Context, user model.User) error {
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) User(ctx context.Context, username string) (model.User, error) {
	user, err := u.users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return model.User{}, ErrResourceNotFound
		}
		return model.User{}, errors.Join(ErrInternal, err)
	}
	return user, nil
}

func (u *Usecase) Users(ctx context.Context) ([]model.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	return users, nil
}

func (u *Usecase) IgnoredGames(ctx context.Context, username string) ([]model.IgnoreEntry, error) {
	entries, err := u.ignores.Entries(ctx, username)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	return entries, nil
}

// SharedIgnores returns the app ids every one of the given users has on
// their ignore list. Useful for showing a group why a game will never be
// proposed to them.
func (u *Usecase) SharedIgnores(ctx context.Context, usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return []string{}, nil
	}
	shared, err := u.ignores.SharedIgnores(ctx, usernames)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	return shared, nil
}

// ToggleIgnore flips the ignore mark for one user and game. Returns true
// when the game is ignored after the call.
func (u *Usecase) ToggleIgnore(ctx context.Context, entry model.IgnoreEntry) (bool, error) {
	ignored, err := u.ignores.Toggle(ctx, entry)
	if err != nil {
		return false, errors.Join(ErrInternal, err)
	}
	return ignored, nil
}
