package userinfo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/dbx"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, info models.UserInfo) error {
	query := `
		INSERT INTO user_info (user_id, version, public_key, content, tag)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET version = EXCLUDED.version, public_key = EXCLUDED.public_key,
		    content = EXCLUDED.content, tag = EXCLUDED.tag, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, info.UserID, info.Version, info.PublicKey, info.Content, info.Tag); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.UserInfo, error) {
	query := `
		SELECT i.user_id, i.version, i.public_key, i.content, i.tag
		FROM user_info i
		JOIN users u ON u.id = i.user_id
		WHERE u.username = $1
	`
	info := &models.UserInfo{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&info.UserID, &info.Version, &info.PublicKey, &info.Content, &info.Tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return info, nil
}
