package entries

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

func (r *PostgresRepository) Append(ctx context.Context, journalUID string, lastSeq int64, entries []models.Entry) error {
	query := `
		INSERT INTO entries (journal_uid, seq, uid, content, tag)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, e := range entries {
		seq := lastSeq + int64(i) + 1
		if _, err := r.db.ExecContext(ctx, query, journalUID, seq, e.UID, e.Content, e.Tag); err != nil {
			if pgerr.IsUniqueViolation(err) {
				return fmt.Errorf("entry %s: %w", e.UID, common.ErrorAlreadyExists)
			}
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) SeqOf(ctx context.Context, journalUID, uid string) (int64, error) {
	query := `SELECT seq FROM entries WHERE journal_uid = $1 AND uid = $2`

	var seq int64
	if err := r.db.QueryRowContext(ctx, query, journalUID, uid).Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return seq, nil
}

func (r *PostgresRepository) LastSeq(ctx context.Context, journalUID string) (int64, error) {
	query := `SELECT COALESCE(MAX(seq), 0) FROM entries WHERE journal_uid = $1`

	var seq int64
	if err := r.db.QueryRowContext(ctx, query, journalUID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return seq, nil
}

func (r *PostgresRepository) ListAfter(ctx context.Context, journalUID string, afterSeq int64, limit int) ([]models.Entry, error) {
	query := `
		SELECT seq, uid, content, tag
		FROM entries
		WHERE journal_uid = $1 AND seq > $2
		ORDER BY seq
	`
	args := []any{journalUID, afterSeq}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		e := models.Entry{JournalUID: journalUID}
		if err := rows.Scan(&e.Seq, &e.UID, &e.Content, &e.Tag); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
