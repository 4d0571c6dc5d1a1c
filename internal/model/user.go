package model

import "github.com/google/uuid"

type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	DiscordID string

	// Per-platform account identifiers used by the library providers.
	SteamID string
}
