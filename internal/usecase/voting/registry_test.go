package usecase_voting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coplay/gamenight/core/internal/model"
)

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	testCases := []struct {
		name       string
		candidates []model.GameRecord
		voters     []string
		duration   time.Duration
	}{
		{
			name:       "empty candidate list",
			candidates: nil,
			voters:     []string{"A"},
			duration:   time.Minute,
		},
		{
			name: "duplicate candidate",
			candidates: []model.GameRecord{
				{AppID: "steam:10"},
				{AppID: "steam:10"},
			},
			voters:   []string{"A"},
			duration: time.Minute,
		},
		{
			name:       "candidate without app id",
			candidates: []model.GameRecord{{Name: "nameless"}},
			voters:     []string{"A"},
			duration:   time.Minute,
		},
		{
			name:       "empty voter roster",
			candidates: []model.GameRecord{{AppID: "steam:10"}},
			voters:     nil,
			duration:   time.Minute,
		},
		{
			name:       "non-positive duration",
			candidates: []model.GameRecord{{AppID: "steam:10"}},
			voters:     []string{"A"},
			duration:   0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			session, err := registry.Create(tc.candidates, tc.voters, tc.duration)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	session, err := registry.Create(candidates("G1"), []string{"A"}, time.Minute)
	require.NoError(t, err)

	got, err := registry.Get(session.ID())
	assert.NoError(t, err)
	assert.Same(t, session, got)
	assert.True(t, registry.Exists(session.ID()))

	_, err = registry.Get("no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, registry.Exists("no-such-session"))

	_, err = registry.CastVote("no-such-session", "A", "steam:10")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = registry.Results("no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = registry.Close("no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistrySessionIDsAreUnique(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		session, err := registry.Create(candidates("G1"), []string{"A"}, time.Minute)
		require.NoError(t, err)

		_, dup := seen[session.ID()]
		require.False(t, dup)
		seen[session.ID()] = struct{}{}
	}
}

func TestRegistryOperationsDelegate(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	session, err := registry.Create(candidates("G1", "G2"), []string{"A", "B"}, time.Minute)
	require.NoError(t, err)

	outcome, err := registry.CastVote(session.ID(), "A", "steam:10")
	require.NoError(t, err)
	assert.True(t, outcome.Recorded)

	cast, eligible, err := registry.Progress(session.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, cast)
	assert.Equal(t, 2, eligible)

	tallies, err := registry.Results(session.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, tallies["steam:10"].Count)

	winner, err := registry.Close(session.ID())
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, "steam:10", winner.AppID)
}

func TestSweepHonorsRetention(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	registry := NewRegistry(
		WithClock(clock.Now),
		WithRetention(10*time.Minute),
	)

	closed, err := registry.Create(candidates("G1"), []string{"A"}, time.Minute)
	require.NoError(t, err)
	registry.Close(closed.ID())

	open, err := registry.Create(candidates("G1"), []string{"A"}, time.Hour)
	require.NoError(t, err)

	// Inside the retention window a just-closed session stays readable.
	assert.Equal(t, 0, registry.Sweep())
	assert.True(t, registry.Exists(closed.ID()))

	clock.Advance(10 * time.Minute)

	assert.Equal(t, 1, registry.Sweep())
	assert.False(t, registry.Exists(closed.ID()))
	assert.True(t, registry.Exists(open.ID()))
}

func TestSweepClosesExpiredSessionsBeforeRetiring(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	registry := NewRegistry(
		WithClock(clock.Now),
		WithRetention(10*time.Minute),
	)

	session, err := registry.Create(candidates("G1"), []string{"A"}, time.Minute)
	require.NoError(t, err)

	// The deadline passes without anyone observing the session; the sweep
	// itself performs the close transition, then retention counts from
	// that observation.
	clock.Advance(time.Hour)
	assert.Equal(t, 0, registry.Sweep())
	assert.Equal(t, model.SessionClosed, session.Status())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, registry.Sweep())
}
