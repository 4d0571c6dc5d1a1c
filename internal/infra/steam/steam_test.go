package infra_steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coplay/gamenight/core/internal/config"
)

func testClient(url string) *Client {
	return New(config.Steam{
		APIKey:  "test-key",
		BaseURL: url,
		Timeout: 2 * time.Second,
	})
}

func TestOwnedGames(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ownedGamesPath, r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "765611", r.URL.Query().Get("steamid"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"response": {
				"game_count": 2,
				"games": [
					{"appid": 440, "name": "Team Fortress 2", "playtime_forever": 1200},
					{"appid": 620, "name": "Portal 2", "playtime_forever": 300}
				]
			}
		}`))
	}))
	defer server.Close()

	games, err := testClient(server.URL).OwnedGames(context.Background(), "alice", "765611")
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "steam:440", games[0].AppID)
	assert.Equal(t, "Team Fortress 2", games[0].Name)
	assert.Equal(t, "steam", games[0].Platform)
	assert.Equal(t, []string{"alice"}, games[0].Owners)
	assert.Equal(t, map[string]int{"alice": 1200}, games[0].PlaytimeByOwner)
}

func TestOwnedGamesEmptyLibrary(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response": {}}`))
	}))
	defer server.Close()

	games, err := testClient(server.URL).OwnedGames(context.Background(), "alice", "765611")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestOwnedGamesBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	games, err := testClient(server.URL).OwnedGames(context.Background(), "alice", "765611")
	assert.Nil(t, games)
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestOwnedGamesUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused from now on

	games, err := testClient(server.URL).OwnedGames(context.Background(), "alice", "765611")
	assert.Nil(t, games)
	assert.ErrorIs(t, err, ErrRequestFailed)
}
