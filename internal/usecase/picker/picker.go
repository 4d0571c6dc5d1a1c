package usecase_picker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/coplay/gamenight/core/internal/model"
)

var (
	ErrInternal = errors.New("internal error")

	// ErrProviderFailed wraps a library or ignore-list fetch failure. The
	// original cause stays attached so callers can retry the one failing
	// fetch instead of the whole group computation.
	ErrProviderFailed = errors.New("provider fetch failed")
)

//go:generate mockery --name=LibraryProvider --output=./mocks/picker/library --filename=library.go
type LibraryProvider interface {
	FetchLibrary(ctx context.Context, username string) ([]model.GameRecord, error)
}

//go:generate mockery --name=IgnoreProvider --output=./mocks/picker/ignores --filename=ignores.go
type IgnoreProvider interface {
	FetchIgnores(ctx context.Context, username string) (map[string]struct{}, error)
}

// IntersectOptions narrows the intersection result.
type IntersectOptions struct {
	// Users limits which library owners participate. Empty means every
	// user with a non-empty library participates.
	Users []string

	// CoopOnly drops games whose IsCoop flag is false.
	CoopOnly bool

	// MaxPlayers drops games known to support fewer players than this.
	// Games with unknown MaxPlayers are kept: unknown metadata must never
	// silently empty the result. Zero disables the filter.
	MaxPlayers int
}

// Intersect returns the games owned by every participating user, with
// owners and per-owner playtime merged onto a single record per app id.
// The result is sorted by app id ascending so identical inputs always
// produce identical output. An empty result is a normal outcome.
func Intersect(libraries map[string][]model.GameRecord, opts IntersectOptions) []model.GameRecord {
	participants := opts.Users
	if len(participants) == 0 {
		for user, games := range libraries {
			if len(games) > 0 {
				participants = append(participants, user)
			}
		}
	}
	if len(participants) == 0 {
		return []model.GameRecord{}
	}

	// Per-user ownership and the best-known record per app id. When the
	// same game appears in several libraries, the copy of the owner with
	// the most playtime supplies name and metadata; playtime ties go to
	// the lexicographically first owner so the result never depends on
	// map iteration order.
	type merged struct {
		base      model.GameRecord
		baseOwner string
		basePlay  int
		owners    map[string]int
	}
	byApp := make(map[string]*merged)
	owned := make([]map[string]struct{}, 0, len(participants))

	for _, user := range participants {
		ids := make(map[string]struct{})
		for _, game := range libraries[user] {
			if game.AppID == "" {
				continue
			}
			playtime := game.PlaytimeByOwner[user]
			m, ok := byApp[game.AppID]
			if !ok {
				m = &merged{base: game, baseOwner: user, basePlay: playtime, owners: make(map[string]int)}
				byApp[game.AppID] = m
			} else if playtime > m.basePlay || (playtime == m.basePlay && user < m.baseOwner) {
				m.base, m.baseOwner, m.basePlay = game, user, playtime
			}
			m.owners[user] = playtime
			ids[game.AppID] = struct{}{}
		}
		owned = append(owned, ids)
	}

	var common []model.GameRecord
	for appID, m := range byApp {
		inAll := true
		for _, ids := range owned {
			if _, ok := ids[appID]; !ok {
				inAll = false
				break
			}
		}
		if !inAll {
			continue
		}

		game := m.base
		if opts.CoopOnly && !game.IsCoop {
			continue
		}
		if opts.MaxPlayers > 0 && game.MaxPlayers > 0 && game.MaxPlayers < opts.MaxPlayers {
			continue
		}

		game.Owners = make([]string, 0, len(m.owners))
		game.PlaytimeByOwner = make(map[string]int, len(m.owners))
		for user, playtime := range m.owners {
			game.Owners = append(game.Owners, user)
			game.PlaytimeByOwner[user] = playtime
		}
		sort.Strings(game.Owners)
		common = append(common, game)
	}

	sort.Slice(common, func(i, j int) bool { return common[i].AppID < common[j].AppID })
	if common == nil {
		common = []model.GameRecord{}
	}
	return common
}

// FilterIgnored removes a candidate only when every participant has it on
// their ignore list. One participant without the ignore keeps the game
// eligible for the whole group. Pure; candidate order is preserved.
func FilterIgnored(candidates []model.GameRecord, ignoreLists map[string]map[string]struct{}, participants []string) []model.GameRecord {
	if len(participants) == 0 {
		return candidates
	}

	kept := make([]model.GameRecord, 0, len(candidates))
	for _, game := range candidates {
		ignoredByAll := true
		for _, user := range participants {
			if _, ok := ignoreLists[user][game.AppID]; !ok {
				ignoredByAll = false
				break
			}
		}
		if !ignoredByAll {
			kept = append(kept, game)
		}
	}
	return kept
}

type Usecase struct {
	libraries LibraryProvider
	ignores   IgnoreProvider
}

func New(libraries LibraryProvider, ignores IgnoreProvider) *Usecase {
	return &Usecase{
		libraries: libraries,
		ignores:   ignores,
	}
}

// CommonGames fetches every participant's library and ignore list
// concurrently, then intersects and applies the unanimous-ignore rule.
// A failed fetch for any participant fails the whole request: treating a
// user as having an empty library would silently empty the intersection
// for everyone.
func (u *Usecase) CommonGames(ctx context.Context, users []string, opts IntersectOptions) ([]model.GameRecord, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: no users given", ErrInternal)
	}

	libraries := make(map[string][]model.GameRecord, len(users))
	ignoreLists := make(map[string]map[string]struct{}, len(users))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		fetchErr error
	)

	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()

			games, err := u.libraries.FetchLibrary(ctx, user)
			if err != nil {
				mu.Lock()
				if fetchErr == nil {
					fetchErr = fmt.Errorf("%w: library of %s: %w", ErrProviderFailed, user, err)
				}
				mu.Unlock()
				return
			}

			ignored, err := u.ignores.FetchIgnores(ctx, user)
			if err != nil {
				mu.Lock()
				if fetchErr == nil {
					fetchErr = fmt.Errorf("%w: ignores of %s: %w", ErrProviderFailed, user, err)
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			libraries[user] = games
			ignoreLists[user] = ignored
			mu.Unlock()
		}(user)
	}
	wg.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	opts.Users = users
	common := Intersect(libraries, opts)
	return FilterIgnored(common, ignoreLists, users), nil
}

// SampleCandidates picks up to n distinct games at random, preserving
// nothing of the input order on purpose: the shortlist position becomes
// the tie-break priority of a voting session.
func SampleCandidates(games []model.GameRecord, n int) []model.GameRecord {
	if n <= 0 || len(games) == 0 {
		return []model.GameRecord{}
	}
	if n > len(games) {
		n = len(games)
	}

	picked := make([]model.GameRecord, len(games))
	copy(picked, games)
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:n]
}
