package collections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectCollections = `SELECT uid, name, color, ctag, version, shared FROM collections`

func (r *SQLiteRepository) List(ctx context.Context) ([]models.LocalCollection, error) {
	rows, err := r.db.QueryContext(ctx, selectCollections+` ORDER BY name, uid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var result []models.LocalCollection
	for rows.Next() {
		var c models.LocalCollection
		if err := rows.Scan(&c.UID, &c.Name, &c.Color, &c.Ctag, &c.Version, &c.Shared); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, uid string) (*models.LocalCollection, error) {
	c := &models.LocalCollection{}
	err := r.db.QueryRowContext(ctx, selectCollections+` WHERE uid = ?`, uid).
		Scan(&c.UID, &c.Name, &c.Color, &c.Ctag, &c.Version, &c.Shared)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", uid, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %s: %w", uid, err)
	}
	return c, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, c models.LocalCollection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collections (uid, name, color, ctag, version, shared) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET name = excluded.name,
			color = excluded.color,
			version = excluded.version,
			shared = excluded.shared
	`, c.UID, c.Name, c.Color, c.Ctag, c.Version, c.Shared)
	if err != nil {
		return fmt.Errorf("failed to upsert collection %s: %w", c.UID, err)
	}
	return nil
}

func (r *SQLiteRepository) SetCtag(ctx context.Context, uid, ctag string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE collections SET ctag = ? WHERE uid = ?`, ctag, uid)
	if err != nil {
		return fmt.Errorf("failed to set ctag of %s: %w", uid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", uid, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE collection_uid = ?`, uid); err != nil {
		return fmt.Errorf("failed to delete tasks of %s: %w", uid, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", uid, err)
	}
	return nil
}
