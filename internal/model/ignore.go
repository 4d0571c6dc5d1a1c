package model

import "time"

// IgnoreEntry marks a game a user never wants picked for them. Entries are
// owned by the user that created them and only removed by un-ignoring.
type IgnoreEntry struct {
	Username  string    `json:"username"`
	AppID     string    `json:"app_id"`
	GameName  string    `json:"game_name,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
