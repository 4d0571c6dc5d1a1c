package infra_postgres_ignores

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/coplay/gamenight/core/internal/model"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type ignoreDTO struct {
	Username  string    `db:"username"`
	AppID     string    `db:"app_id"`
	GameName  string    `db:"game_name"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

func (d *Driver) Entries(ctx context.Context, username string) ([]model.IgnoreEntry, error) {
	var rows []ignoreDTO

	query := `
		SELECT username, app_id, game_name, reason, created_at
		FROM ignored_games
		WHERE username = $1
		ORDER BY created_at
	`

	if err := d.db.SelectContext(ctx, &rows, query, username); err != nil {
		return nil, err
	}

	entries := make([]model.IgnoreEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, model.IgnoreEntry{
			Username:  row.Username,
			AppID:     row.AppID,
			GameName:  row.GameName,
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

// FetchIgnores satisfies the picker's IgnoreProvider.
func (d *Driver) FetchIgnores(ctx context.Context, username string) (map[string]struct{}, error) {
	var appIDs []string

	query := `SELECT app_id FROM ignored_games WHERE username = $1`

	if err := d.db.SelectContext(ctx, &appIDs, query, username); err != nil {
		return nil, err
	}

	ignored := make(map[string]struct{}, len(appIDs))
	for _, id := range appIDs {
		ignored[id] = struct{}{}
	}
	return ignored, nil
}

// Toggle adds the entry when absent, removes it when present. Returns true
// when the game is ignored after the call.
func (d *Driver) Toggle(ctx context.Context, entry model.IgnoreEntry) (bool, error) {
	deleteQuery := `DELETE FROM ignored_games WHERE username = $1 AND app_id = $2`

	res, err := d.db.ExecContext(ctx, deleteQuery, entry.Username, entry.AppID)
	if err != nil {
		return false, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		return false, nil
	}

	insertQuery := `
		INSERT INTO ignored_games (username, app_id, game_name, reason, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := d.db.ExecContext(ctx, insertQuery, entry.Username, entry.AppID, entry.GameName, entry.Reason); err != nil {
		return false, err
	}
	return true, nil
}

// SharedIgnores returns the app ids present on every given user's ignore
// list, i.e. the games a unanimous-ignore rule would exclude.
func (d *Driver) SharedIgnores(ctx context.Context, usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return []string{}, nil
	}

	var appIDs []string

	query := `
		SELECT app_id
		FROM ignored_games
		WHERE username = ANY($1)
		GROUP BY app_id
		HAVING COUNT(DISTINCT username) = $2
	`

	if err := d.db.SelectContext(ctx, &appIDs, query, pq.Array(usernames), len(usernames)); err != nil {
		return nil, err
	}
	if appIDs == nil {
		appIDs = []string{}
	}
	return appIDs, nil
}
