package model

// GameRecord is the unit the picker intersects and sessions vote on.
// Records are immutable once built for a given query; every fresh query
// rebuilds them from the providers.
type GameRecord struct {
	// AppID is the platform-scoped stable identifier, e.g. "steam:440".
	AppID    string `json:"app_id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`

	// Owners lists the participants that own this game. Populated by the
	// intersection; a single-user fetch carries just that user.
	Owners []string `json:"owners,omitempty"`

	// PlaytimeByOwner maps owner -> total playtime in minutes.
	PlaytimeByOwner map[string]int `json:"playtime_by_owner,omitempty"`

	// IsCoop and MaxPlayers arrive as precomputed metadata on the record.
	// MaxPlayers == 0 means unknown.
	IsCoop     bool `json:"is_coop"`
	MaxPlayers int  `json:"max_players,omitempty"`
}
