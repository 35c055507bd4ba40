package journals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/dbx"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
	"github.com/dmitrijs2005/taskjournal/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectVisible = `
	SELECT j.uid, j.owner_id, u.username, j.version, j.info_uid, j.info_content, j.info_tag, j.head, m.wrapped_key
	FROM journals j
	JOIN users u ON u.id = j.owner_id
	LEFT JOIN journal_members m ON m.journal_uid = j.uid AND m.user_id = $1
`

func (r *PostgresRepository) Create(ctx context.Context, j *models.Journal) error {
	query := `
		INSERT INTO journals (uid, owner_id, version, info_uid, info_content, info_tag)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, j.UID, j.OwnerID, j.Version, j.InfoUID, j.InfoContent, j.InfoTag).
		Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetForUser(ctx context.Context, uid, userID string) (*models.Journal, error) {
	query := selectVisible + `
		WHERE j.uid = $2 AND (j.owner_id = $1 OR m.user_id IS NOT NULL)
	`
	j, err := scanJournal(r.db.QueryRowContext(ctx, query, userID, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return j, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Journal, error) {
	query := selectVisible + `
		WHERE j.owner_id = $1 OR m.user_id IS NOT NULL
		ORDER BY j.created_at, j.uid
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJournal(s scanner) (*models.Journal, error) {
	j := &models.Journal{}
	var wrapped []byte
	if err := s.Scan(&j.UID, &j.OwnerID, &j.Owner, &j.Version, &j.InfoUID, &j.InfoContent, &j.InfoTag, &j.Head, &wrapped); err != nil {
		return nil, err
	}
	if len(wrapped) > 0 {
		j.WrappedKey = wrapped
	}
	return j, nil
}

func (r *PostgresRepository) LockHead(ctx context.Context, uid string) (string, string, error) {
	query := `SELECT owner_id, head FROM journals WHERE uid = $1 FOR UPDATE`

	var ownerID, head string
	if err := r.db.QueryRowContext(ctx, query, uid).Scan(&ownerID, &head); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", common.ErrorNotFound
		}
		return "", "", fmt.Errorf("db error: %w", err)
	}
	return ownerID, head, nil
}

func (r *PostgresRepository) SetHead(ctx context.Context, uid, head string) error {
	query := `UPDATE journals SET head = $2, updated_at = now() WHERE uid = $1`
	return r.exec(ctx, query, uid, head)
}

func (r *PostgresRepository) UpdateInfo(ctx context.Context, uid, infoUID string, content, tag []byte) error {
	query := `
		UPDATE journals
		SET info_uid = $2, info_content = $3, info_tag = $4, updated_at = now()
		WHERE uid = $1
	`
	return r.exec(ctx, query, uid, infoUID, content, tag)
}

func (r *PostgresRepository) Delete(ctx context.Context, uid string) error {
	return r.exec(ctx, `DELETE FROM journals WHERE uid = $1`, uid)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
