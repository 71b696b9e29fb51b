package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0001_create_core_tables.sql
var createCoreTablesSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createCoreTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS help_tickets;
				DROP TABLE IF EXISTS leaderboard_entries;
				DROP TABLE IF EXISTS user_answers;
				DROP TABLE IF EXISTS users;
			`)
			return err
		},
	)
}
