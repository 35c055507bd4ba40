package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/google/uuid"
)

type TaskStore interface {
	AddTask(ctx context.Context, t *models.Task) error
	UpdateTask(ctx context.Context, t *models.Task) error
	Task(ctx context.Context, id int64) (*models.Task, error)
	Tasks(ctx context.Context, uid string) ([]models.Task, error)
	AssignRemoteID(ctx context.Context, taskID int64, remoteID string) error
}

// TaskEdit lists the fields to change. Nil fields stay as they are.
type TaskEdit struct {
	Title    *string
	Notes    *string
	Priority *int
	DueAt    *time.Time
	ClearDue bool

	// Parent is the local id of the new parent task, 0 to make the task
	// top level.
	Parent *int64
}

// TaskService edits tasks locally. Every edit marks the task dirty so the
// next sync pushes it.
type TaskService struct {
	store TaskStore
	now   func() time.Time
}

func NewTaskService(s TaskStore) *TaskService {
	return &TaskService{store: s, now: time.Now}
}

// Add stores a new task. parentID, when not 0, makes it a subtask.
func (s *TaskService) Add(ctx context.Context, collectionUID string, t models.Task, parentID int64) (*models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, fmt.Errorf("%w: task title is required", common.ErrorValidation)
	}
	if t.Priority < 0 || t.Priority > 9 {
		return nil, fmt.Errorf("%w: priority must be between 0 and 9", common.ErrorValidation)
	}

	t.CollectionUID = collectionUID
	parent, err := s.resolveParent(ctx, &t, parentID)
	if err != nil {
		return nil, err
	}
	t.ParentRemoteID = parent
	if err := s.store.AddTask(ctx, &t); err != nil {
		return nil, fmt.Errorf("add task: %w", err)
	}
	return &t, nil
}

func (s *TaskService) Edit(ctx context.Context, id int64, e TaskEdit) (*models.Task, error) {
	return s.update(ctx, id, func(t *models.Task) error {
		if e.Title != nil {
			title := strings.TrimSpace(*e.Title)
			if title == "" {
				return fmt.Errorf("%w: task title is required", common.ErrorValidation)
			}
			t.Title = title
		}
		if e.Notes != nil {
			t.Notes = *e.Notes
		}
		if e.Priority != nil {
			if *e.Priority < 0 || *e.Priority > 9 {
				return fmt.Errorf("%w: priority must be between 0 and 9", common.ErrorValidation)
			}
			t.Priority = *e.Priority
		}
		switch {
		case e.ClearDue:
			t.DueAt = nil
		case e.DueAt != nil:
			due := e.DueAt.UTC()
			t.DueAt = &due
		}
		if e.Parent != nil {
			parent, err := s.resolveParent(ctx, t, *e.Parent)
			if err != nil {
				return err
			}
			t.ParentRemoteID = parent
		}
		return nil
	})
}

// resolveParent returns the remote id a subtask refers to its parent by.
// A parent that was never pushed gets its remote id now.
func (s *TaskService) resolveParent(ctx context.Context, child *models.Task, parentID int64) (string, error) {
	if parentID == 0 {
		return "", nil
	}
	if child.ID != 0 && parentID == child.ID {
		return "", fmt.Errorf("%w: task %d cannot be its own parent", common.ErrorValidation, parentID)
	}

	parent, err := s.store.Task(ctx, parentID)
	if err != nil {
		return "", err
	}
	if parent.Deleted {
		return "", fmt.Errorf("parent task %d: %w", parentID, common.ErrorNotFound)
	}
	if parent.CollectionUID != child.CollectionUID {
		return "", fmt.Errorf("%w: parent task %d is in another list", common.ErrorValidation, parentID)
	}

	if child.RemoteID != "" {
		siblings, err := s.store.Tasks(ctx, child.CollectionUID)
		if err != nil {
			return "", err
		}
		byRemoteID := make(map[string]*models.Task, len(siblings))
		for i := range siblings {
			if siblings[i].RemoteID != "" {
				byRemoteID[siblings[i].RemoteID] = &siblings[i]
			}
		}
		for up, n := parent, 0; up != nil && n <= len(siblings); n++ {
			if up.RemoteID == child.RemoteID {
				return "", fmt.Errorf("%w: task %d is already above task %d", common.ErrorValidation, child.ID, parentID)
			}
			up = byRemoteID[up.ParentRemoteID]
		}
	}

	if parent.RemoteID == "" {
		id := uuid.NewString()
		if err := s.store.AssignRemoteID(ctx, parent.ID, id); err != nil {
			return "", fmt.Errorf("assign remote id to task %d: %w", parent.ID, err)
		}
		parent.RemoteID = id
	}
	return parent.RemoteID, nil
}

// Complete marks the task done, or open again when done is false.
func (s *TaskService) Complete(ctx context.Context, id int64, done bool) (*models.Task, error) {
	return s.update(ctx, id, func(t *models.Task) error {
		switch {
		case done && t.CompletedAt == nil:
			now := s.now().UTC()
			t.CompletedAt = &now
		case !done:
			t.CompletedAt = nil
		}
		return nil
	})
}

// Delete hides the task. It is removed for good once the delete is synced.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	_, err := s.update(ctx, id, func(t *models.Task) error {
		t.Deleted = true
		return nil
	})
	return err
}

func (s *TaskService) List(ctx context.Context, collectionUID string) ([]models.Task, error) {
	return s.store.Tasks(ctx, collectionUID)
}

func (s *TaskService) update(ctx context.Context, id int64, fn func(t *models.Task) error) (*models.Task, error) {
	t, err := s.store.Task(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Deleted {
		return nil, fmt.Errorf("task %d: %w", id, common.ErrorNotFound)
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	return t, nil
}
