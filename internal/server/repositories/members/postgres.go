package members

import (
	"context"
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

func (r *PostgresRepository) Add(ctx context.Context, m models.Member) error {
	query := `
		INSERT INTO journal_members (journal_uid, user_id, wrapped_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (journal_uid, user_id) DO UPDATE SET wrapped_key = EXCLUDED.wrapped_key
	`
	if _, err := r.db.ExecContext(ctx, query, m.JournalUID, m.UserID, m.WrappedKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, journalUID, userID string) error {
	query := `DELETE FROM journal_members WHERE journal_uid = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, journalUID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, journalUID string) ([]models.Member, error) {
	query := `
		SELECT user_id, wrapped_key
		FROM journal_members
		WHERE journal_uid = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, journalUID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Member
	for rows.Next() {
		m := models.Member{JournalUID: journalUID}
		if err := rows.Scan(&m.UserID, &m.WrappedKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
