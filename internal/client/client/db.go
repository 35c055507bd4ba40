package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/client/migrations"
	_ "modernc.org/sqlite"
)

// InitDatabase opens the local SQLite file at dsn and brings its schema up
// to date.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return db, nil
}
