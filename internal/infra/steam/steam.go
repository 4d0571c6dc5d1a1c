package infra_steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coplay/gamenight/core/internal/config"
	"github.com/coplay/gamenight/core/internal/model"
)

var (
	ErrRequestFailed = errors.New("steam request failed")
	ErrBadStatus     = errors.New("steam returned non-200 status")
)

const ownedGamesPath = "/IPlayerService/GetOwnedGames/v0001/"

// Client talks to the Steam Web API. It is one of the library providers
// the picker can draw from; its errors are propagated as-is so a caller
// can tell a rate limit from an empty library.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(cfg config.Steam) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int `json:"game_count"`
		Games     []struct {
			AppID           int    `json:"appid"`
			Name            string `json:"name"`
			PlaytimeForever int    `json:"playtime_forever"`
		} `json:"games"`
	} `json:"response"`
}

// OwnedGames fetches the given Steam account's library and maps it onto
// GameRecords owned by owner. App ids are prefixed with the platform so
// records from different stores never collide.
func (c *Client) OwnedGames(ctx context.Context, owner, steamID string) ([]model.GameRecord, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamid", steamID)
	q.Set("include_appinfo", "1")
	q.Set("include_played_free_games", "1")
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ownedGamesPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var payload ownedGamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	games := make([]model.GameRecord, 0, len(payload.Response.Games))
	for _, g := range payload.Response.Games {
		games = append(games, model.GameRecord{
			AppID:    "steam:" + strconv.Itoa(g.AppID),
			Name:     g.Name,
			Platform: "steam",
			Owners:   []string{owner},
			PlaytimeByOwner: map[string]int{
				owner: g.PlaytimeForever,
			},
		})
	}
	return games, nil
}
