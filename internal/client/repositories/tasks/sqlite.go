package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const selectTasks = `SELECT id, collection_uid, remote_id, title, notes, priority, completed_at, due_at,
	parent_remote_id, payload, dirty, deleted, last_sync FROM tasks`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (models.Task, error) {
	var (
		t                        models.Task
		remoteID                 sql.NullString
		completed, due, lastSync sql.NullTime
	)
	err := s.Scan(&t.ID, &t.CollectionUID, &remoteID, &t.Title, &t.Notes, &t.Priority, &completed, &due,
		&t.ParentRemoteID, &t.Payload, &t.Dirty, &t.Deleted, &lastSync)
	if err != nil {
		return models.Task{}, err
	}
	t.RemoteID = remoteID.String
	if completed.Valid {
		v := completed.Time
		t.CompletedAt = &v
	}
	if due.Valid {
		v := due.Time
		t.DueAt = &v
	}
	if lastSync.Valid {
		t.LastSync = lastSync.Time
	}
	return t, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	var result []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) one(ctx context.Context, what, q string, args ...any) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", what, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", what, err)
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func (r *SQLiteRepository) Insert(ctx context.Context, t *models.Task) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (collection_uid, remote_id, title, notes, priority, completed_at, due_at,
			parent_remote_id, payload, dirty, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.CollectionUID, nullString(t.RemoteID), t.Title, t.Notes, t.Priority, nullTime(t.CompletedAt), nullTime(t.DueAt),
		t.ParentRemoteID, t.Payload, t.Dirty, t.Deleted)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get task id: %w", err)
	}
	t.ID = id
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t *models.Task) error {
	return r.exec(ctx, fmt.Sprint(t.ID), `
		UPDATE tasks SET title = ?, notes = ?, priority = ?, completed_at = ?, due_at = ?,
			parent_remote_id = ?, dirty = ?, deleted = ?
		WHERE id = ?`,
		t.Title, t.Notes, t.Priority, nullTime(t.CompletedAt), nullTime(t.DueAt),
		t.ParentRemoteID, t.Dirty, t.Deleted, t.ID)
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.Task, error) {
	return r.one(ctx, fmt.Sprint(id), selectTasks+` WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByRemoteID(ctx context.Context, collectionUID, remoteID string) (*models.Task, error) {
	return r.one(ctx, remoteID, selectTasks+` WHERE collection_uid = ? AND remote_id = ?`, collectionUID, remoteID)
}

func (r *SQLiteRepository) List(ctx context.Context, collectionUID string) ([]models.Task, error) {
	return r.query(ctx, selectTasks+` WHERE collection_uid = ? AND deleted = 0
		ORDER BY completed_at IS NOT NULL, priority DESC, id`, collectionUID)
}

func (r *SQLiteRepository) Pending(ctx context.Context, collectionUID string) ([]models.Task, error) {
	return r.query(ctx, selectTasks+` WHERE collection_uid = ? AND (dirty = 1 OR (deleted = 1 AND payload <> ''))
		ORDER BY id`, collectionUID)
}

func (r *SQLiteRepository) StoreRemote(ctx context.Context, t *models.Task, payload string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (collection_uid, remote_id, title, notes, priority, completed_at, due_at,
			parent_remote_id, payload, dirty, deleted, last_sync)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)
		ON CONFLICT(collection_uid, remote_id) DO UPDATE SET title = excluded.title,
			notes = excluded.notes,
			priority = excluded.priority,
			completed_at = excluded.completed_at,
			due_at = excluded.due_at,
			parent_remote_id = excluded.parent_remote_id,
			payload = excluded.payload,
			dirty = 0,
			deleted = 0,
			last_sync = excluded.last_sync`,
		t.CollectionUID, t.RemoteID, t.Title, t.Notes, t.Priority, nullTime(t.CompletedAt), nullTime(t.DueAt),
		t.ParentRemoteID, payload, now.UTC())
	if err != nil {
		return fmt.Errorf("failed to store remote task %s: %w", t.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) SetPayload(ctx context.Context, collectionUID, remoteID, payload string) error {
	return r.exec(ctx, remoteID, `UPDATE tasks SET payload = ? WHERE collection_uid = ? AND remote_id = ?`,
		payload, collectionUID, remoteID)
}

func (r *SQLiteRepository) MarkRemoteDeleted(ctx context.Context, collectionUID, remoteID string) error {
	return r.exec(ctx, remoteID, `UPDATE tasks SET deleted = 1, dirty = 0, payload = ''
		WHERE collection_uid = ? AND remote_id = ?`, collectionUID, remoteID)
}

func (r *SQLiteRepository) DeleteByRemoteID(ctx context.Context, collectionUID, remoteID string) error {
	return r.exec(ctx, remoteID, `DELETE FROM tasks WHERE collection_uid = ? AND remote_id = ?`, collectionUID, remoteID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, fmt.Sprint(id), `DELETE FROM tasks WHERE id = ?`, id)
}

func (r *SQLiteRepository) SetRemoteID(ctx context.Context, id int64, remoteID string) error {
	return r.exec(ctx, fmt.Sprint(id), `UPDATE tasks SET remote_id = ? WHERE id = ?`, remoteID, id)
}

// exec runs a statement that must touch a row.
func (r *SQLiteRepository) exec(ctx context.Context, what, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to write task %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", what, common.ErrorNotFound)
	}
	return nil
}
