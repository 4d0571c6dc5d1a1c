package infra_postgres_users

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coplay/gamenight/core/internal/model"
	usecase_roster "github.com/coplay/gamenight/core/internal/usecase/roster"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type userDTO struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	DiscordID string    `db:"discord_id"`
	SteamID   string    `db:"steam_id"`
}

func (dto userDTO) toModel() model.User {
	return model.User{
		ID:        dto.ID,
		Username:  dto.Username,
		Email:     dto.Email,
		DiscordID: dto.DiscordID,
		SteamID:   dto.SteamID,
	}
}

func (d *Driver) Create(ctx context.Context, user model.User) error {
	dto := userDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		DiscordID: user.DiscordID,
		SteamID:   user.SteamID,
	}

	query := `
		INSERT INTO users (id, username, email, discord_id, steam_id)
		VALUES (:id, :username, :email, :discord_id, :steam_id)
	`

	if _, err := d.db.NamedExecContext(ctx, query, dto); err != nil {
		if strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "duplicate key") {
			return usecase_roster.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (d *Driver) ByUsername(ctx context.Context, username string) (model.User, error) {
	var dto userDTO

	query := `
		SELECT id, username, email, discord_id, steam_id
		FROM users
		WHERE username = $1
	`

	if err := d.db.GetContext(ctx, &dto, query, username); err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, usecase_roster.ErrResourceNotFound
		}
		return model.User{}, err
	}
	return dto.toModel(), nil
}

func (d *Driver) List(ctx context.Context) ([]model.User, error) {
	var dtos []userDTO

	query := `
		SELECT id, username, email, discord_id, steam_id
		FROM users
		ORDER BY username
	`

	if err := d.db.SelectContext(ctx, &dtos, query); err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(dtos))
	for _, dto := range dtos {
		users = append(users, dto.toModel())
	}
	return users, nil
}
