package usecase_picker

import (
	"context"
	"errors"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coplay/gamenight/core/internal/model"
)

func game(appID, name string, owner string, playtime int) model.GameRecord {
	return model.GameRecord{
		AppID:    appID,
		Name:     name,
		Platform: "steam",
		Owners:   []string{owner},
		PlaytimeByOwner: map[string]int{
			owner: playtime,
		},
	}
}

func coopGame(appID, name, owner string, maxPlayers int) model.GameRecord {
	g := game(appID, name, owner, 0)
	g.IsCoop = true
	g.MaxPlayers = maxPlayers
	return g
}

func appIDs(games []model.GameRecord) []string {
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.AppID)
	}
	return ids
}

func TestIntersect(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		libraries map[string][]model.GameRecord
		opts      IntersectOptions
		expected  []string
	}{
		{
			name: "Common games across all users",
			libraries: map[string][]model.GameRecord{
				"alice": {game("steam:10", "CS", "alice", 100), game("steam:20", "Portal", "alice", 50)},
				"bob":   {game("steam:10", "CS", "bob", 30)},
			},
			expected: []string{"steam:10"},
		},
		{
			name: "Single user returns own library deduplicated",
			libraries: map[string][]model.GameRecord{
				"alice": {
					game("steam:10", "CS", "alice", 100),
					game("steam:10", "CS", "alice", 100),
					game("steam:20", "Portal", "alice", 50),
				},
			},
			expected: []string{"steam:10", "steam:20"},
		},
		{
			name: "No common games is a normal empty result",
			libraries: map[string][]model.GameRecord{
				"alice": {game("steam:10", "CS", "alice", 0)},
				"bob":   {game("steam:20", "Portal", "bob", 0)},
			},
			expected: []string{},
		},
		{
			name: "Subset limits participants",
			libraries: map[string][]model.GameRecord{
				"alice": {game("steam:10", "CS", "alice", 0)},
				"bob":   {game("steam:10", "CS", "bob", 0), game("steam:20", "Portal", "bob", 0)},
				"carol": {game("steam:30", "Hades", "carol", 0)},
			},
			opts:     IntersectOptions{Users: []string{"alice", "bob"}},
			expected: []string{"steam:10"},
		},
		{
			name: "Subset user with empty library empties the intersection",
			libraries: map[string][]model.GameRecord{
				"alice": {game("steam:10", "CS", "alice", 0)},
			},
			opts:     IntersectOptions{Users: []string{"alice", "bob"}},
			expected: []string{},
		},
		{
			name: "Coop only drops non-coop titles",
			libraries: map[string][]model.GameRecord{
				"alice": {coopGame("steam:10", "Overcooked", "alice", 4), game("steam:20", "Portal", "alice", 0)},
				"bob":   {coopGame("steam:10", "Overcooked", "bob", 4), game("steam:20", "Portal", "bob", 0)},
			},
			opts:     IntersectOptions{CoopOnly: true},
			expected: []string{"steam:10"},
		},
		{
			name: "Max players keeps games with unknown player count",
			libraries: map[string][]model.GameRecord{
				"alice": {coopGame("steam:10", "Duo", "alice", 2), coopGame("steam:30", "Unknown", "alice", 0)},
				"bob":   {coopGame("steam:10", "Duo", "bob", 2), coopGame("steam:30", "Unknown", "bob", 0)},
			},
			opts:     IntersectOptions{MaxPlayers: 4},
			expected: []string{"steam:30"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Intersect(tc.libraries, tc.opts)
			assert.Equal(t, tc.expected, appIDs(got))
		})
	}
}

func TestIntersectMergesOwnersAndPlaytime(t *testing.T) {
	t.Parallel()

	libraries := map[string][]model.GameRecord{
		"alice": {game("steam:10", "CS", "alice", 100)},
		"bob":   {game("steam:10", "CS", "bob", 30)},
	}

	got := Intersect(libraries, IntersectOptions{})

	assert.Len(t, got, 1)
	assert.Equal(t, []string{"alice", "bob"}, got[0].Owners)
	assert.Equal(t, map[string]int{"alice": 100, "bob": 30}, got[0].PlaytimeByOwner)
}

func TestIntersectMetadataTieBreaksOnOwnerName(t *testing.T) {
	t.Parallel()

	// Equal playtime but diverging copies: the lexicographically first
	// owner's record supplies the metadata, whatever order the libraries
	// map iterates in.
	libraries := map[string][]model.GameRecord{
		"bob":   {game("steam:10", "CS: Legacy Edition", "bob", 50)},
		"alice": {game("steam:10", "CS", "alice", 50)},
	}

	for i := 0; i < 10; i++ {
		got := Intersect(libraries, IntersectOptions{})
		require.Len(t, got, 1)
		assert.Equal(t, "CS", got[0].Name)
	}
}

func TestIntersectIsDeterministic(t *testing.T) {
	t.Parallel()

	libraries := map[string][]model.GameRecord{
		"alice": {game("steam:30", "Hades", "alice", 5), game("steam:10", "CS", "alice", 0), game("steam:20", "Portal", "alice", 0)},
		"bob":   {game("steam:20", "Portal", "bob", 0), game("steam:10", "CS", "bob", 0), game("steam:30", "Hades", "bob", 0)},
	}

	first := Intersect(libraries, IntersectOptions{})
	second := Intersect(libraries, IntersectOptions{})

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"steam:10", "steam:20", "steam:30"}, appIDs(first))
}

func TestFilterIgnored(t *testing.T) {
	t.Parallel()

	candidates := []model.GameRecord{
		game("steam:10", "CS", "alice", 0),
		game("steam:20", "Portal", "alice", 0),
	}

	testCases := []struct {
		name         string
		ignoreLists  map[string]map[string]struct{}
		participants []string
		expected     []string
	}{
		{
			name: "Removed only when ignored by every participant",
			ignoreLists: map[string]map[string]struct{}{
				"alice": {"steam:10": {}},
				"bob":   {"steam:10": {}},
				"carol": {"steam:10": {}},
			},
			participants: []string{"alice", "bob", "carol"},
			expected:     []string{"steam:20"},
		},
		{
			name: "One non-ignorer keeps the game eligible",
			ignoreLists: map[string]map[string]struct{}{
				"alice": {"steam:10": {}},
				"bob":   {"steam:10": {}},
			},
			participants: []string{"alice", "bob", "carol"},
			expected:     []string{"steam:10", "steam:20"},
		},
		{
			name: "Participant absent from ignore lists never contributes to unanimity",
			ignoreLists: map[string]map[string]struct{}{
				"alice": {"steam:10": {}, "steam:20": {}},
			},
			participants: []string{"alice", "dave"},
			expected:     []string{"steam:10", "steam:20"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := FilterIgnored(candidates, tc.ignoreLists, tc.participants)
			assert.Equal(t, tc.expected, appIDs(got))
		})
	}
}

func TestSampleCandidates(t *testing.T) {
	t.Parallel()

	games := []model.GameRecord{
		game("steam:10", "CS", "alice", 0),
		game("steam:20", "Portal", "alice", 0),
		game("steam:30", "Hades", "alice", 0),
	}

	sampled := SampleCandidates(games, 2)
	assert.Len(t, sampled, 2)
	assert.Subset(t, appIDs(games), appIDs(sampled))

	assert.Len(t, SampleCandidates(games, 10), 3)
	assert.Empty(t, SampleCandidates(games, 0))
}

type fakeLibraryProvider struct {
	libraries map[string][]model.GameRecord
	errors    map[string]error
}

func (f *fakeLibraryProvider) FetchLibrary(_ context.Context, username string) ([]model.GameRecord, error) {
	if err := f.errors[username]; err != nil {
		return nil, err
	}
	return f.libraries[username], nil
}

type fakeIgnoreProvider struct {
	ignores map[string]map[string]struct{}
	errors  map[string]error
}

func (f *fakeIgnoreProvider) FetchIgnores(_ context.Context, username string) (map[string]struct{}, error) {
	if err := f.errors[username]; err != nil {
		return nil, err
	}
	return f.ignores[username], nil
}

type UsecasePickerUnitSuite struct {
	suite.Suite
}

func (s *UsecasePickerUnitSuite) TestCommonGames(t provider.T) {
	t.Run("Should intersect and apply unanimous ignores", func(t provider.T) {
		libraries := &fakeLibraryProvider{
			libraries: map[string][]model.GameRecord{
				"alice": {game("steam:10", "CS", "alice", 100), game("steam:20", "Portal", "alice", 10)},
				"bob":   {game("steam:10", "CS", "bob", 30), game("steam:20", "Portal", "bob", 5)},
			},
		}
		ignores := &fakeIgnoreProvider{
			ignores: map[string]map[string]struct{}{
				"alice": {"steam:20": {}},
				"bob":   {"steam:20": {}},
			},
		}
		uc := New(libraries, ignores)

		got, err := uc.CommonGames(context.Background(), []string{"alice", "bob"}, IntersectOptions{})

		assert.NoError(t, err)
		assert.Equal(t, []string{"steam:10"}, appIDs(got))
	})

	t.Run("Should fail the whole request when one library fetch fails", func(t provider.T) {
		providerErr := errors.New("rate limited")
		libraries := &fakeLibraryProvider{
			libraries: map[string][]model.GameRecord{
				"alice": {game("steam:10", "CS", "alice", 0)},
			},
			errors: map[string]error{"bob": providerErr},
		}
		uc := New(libraries, &fakeIgnoreProvider{})

		got, err := uc.CommonGames(context.Background(), []string{"alice", "bob"}, IntersectOptions{})

		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrProviderFailed)
		assert.ErrorIs(t, err, providerErr)
	})

	t.Run("Should fail when an ignore fetch fails", func(t provider.T) {
		providerErr := errors.New("db down")
		libraries := &fakeLibraryProvider{
			libraries: map[string][]model.GameRecord{
				"alice": {game("steam:10", "CS", "alice", 0)},
			},
		}
		ignores := &fakeIgnoreProvider{
			errors: map[string]error{"alice": providerErr},
		}
		uc := New(libraries, ignores)

		_, err := uc.CommonGames(context.Background(), []string{"alice"}, IntersectOptions{})

		assert.ErrorIs(t, err, ErrProviderFailed)
		assert.ErrorIs(t, err, providerErr)
	})

	t.Run("Should error on empty user list", func(t provider.T) {
		uc := New(&fakeLibraryProvider{}, &fakeIgnoreProvider{})

		_, err := uc.CommonGames(context.Background(), nil, IntersectOptions{})

		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecasePickerUnitSuite))
}
