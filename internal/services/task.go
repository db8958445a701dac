package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/permissions"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/workflow"
)

type TaskService struct {
	db       *database.DB
	users    *UserService
	projects *ProjectService
	hub      Broadcaster
}

func NewTaskService(db *database.DB, users *UserService, projects *ProjectService, hub Broadcaster) *TaskService {
	return &TaskService{db: db, users: users, projects: projects, hub: hub}
}

// TransitionOptions tie a mutation to its originating session. SessionID is
// excluded from fan-out so the originator never hears its own echo.
// SuppressReemit marks a mutation that itself came from applying a received
// notification; it is honored unconditionally to prevent update loops.
type TransitionOptions struct {
	SessionID      string
	SuppressReemit bool
}

type CreateTaskInput struct {
	ProjectID   *uuid.UUID
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeIDs []uuid.UUID
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}

const taskColumns = `id, project_id, title, description, status, priority, created_by, version, archived_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }, task *models.Task) error {
	return row.Scan(
		&task.ID, &task.ProjectID, &task.Title, &task.Description,
		&task.Status, &task.Priority, &task.CreatedBy, &task.Version,
		&task.ArchivedAt, &task.CreatedAt, &task.UpdatedAt,
	)
}

// GetByID loads the task with its assignee references normalized to UserRef
// immediately; nothing downstream branches on representation.
func (s *TaskService) GetByID(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND archived_at IS NULL
	`, taskID), &task)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT user_id FROM task_assignees WHERE task_id = $1 ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		task.Assignees = append(task.Assignees, models.UserRef{ID: id})
	}
	return &task, nil
}

// GetForViewer is GetByID gated on view permission. A denied caller gets
// ErrTaskNotFound so denial is indistinguishable from absence.
func (s *TaskService) GetForViewer(ctx context.Context, taskID, actorID uuid.UUID) (*models.Task, error) {
	task, project, actor, err := s.loadContext(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanViewTask(actor, task, project) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) GetForProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = $1 AND archived_at IS NULL
		ORDER BY created_at DESC
	`, projectID)
}

// GetPersonal lists a user's project-less tasks.
func (s *TaskService) GetPersonal(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return s.queryTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id IS NULL AND created_by = $1 AND archived_at IS NULL
		ORDER BY created_at DESC
	`, userID)
}

func (s *TaskService) queryTasks(ctx context.Context, sql string, args ...any) ([]models.Task, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Create validates the initial status against the project's columns, inserts
// the task and its assignees, writes the creation audit entry and fans the
// event out.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput, actorID uuid.UUID, opts TransitionOptions) (*models.Task, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var project *models.Project
	if input.ProjectID != nil {
		project, err = s.projects.GetByID(ctx, *input.ProjectID)
		if err != nil {
			return nil, err
		}
	}
	if !permissions.CanCreateTasks(actor, project) {
		return nil, ErrUnauthorized
	}

	columns := workflow.ColumnsFor(project)
	status := input.Status
	if status == "" {
		status = columns[0].ID
	}
	statusID, err := workflow.Resolve(status, columns)
	if err != nil {
		return nil, ErrInvalidTransition
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	if len(input.AssigneeIDs) > 0 {
		if err := s.checkAssignable(ctx, actor, project, input.AssigneeIDs); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var task models.Task
	err = scanTask(tx.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+taskColumns+`
	`, input.ProjectID, input.Title, input.Description, statusID, priority, actorID), &task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	for _, userID := range input.AssigneeIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO task_assignees (task_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (task_id, user_id) DO NOTHING
		`, task.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to add assignee: %w", err)
		}
		task.Assignees = append(task.Assignees, models.UserRef{ID: userID})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.appendHistory(ctx, task.ID, actorID, []workflow.Change{
		{Action: models.HistoryTaskCreated, Field: "status", Old: "", New: statusID},
	})

	if !opts.SuppressReemit {
		s.hub.BroadcastTaskCreated(realtime.TaskChannel(&task), realtime.TaskEventData{
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			Title:     task.Title,
			Status:    task.Status,
			Priority:  task.Priority,
			Version:   task.Version,
			ActorID:   actorID,
		}, opts.SessionID)
	}
	return &task, nil
}

// Transition moves a task to another workflow column. The write is a single
// conditional update against the task's version; a lost race re-reads,
// re-validates the column and the actor's permission against fresh state,
// and tries again with exponential backoff until the attempt budget runs
// out. Moving a task to the column it is already in is a no-op: no write, no
// audit entry.
func (s *TaskService) Transition(ctx context.Context, taskID uuid.UUID, newStatus string, actorID uuid.UUID, opts TransitionOptions) (*models.Task, []models.TaskHistoryEntry, error) {
	lastErr := ErrVersionConflict
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(backoffDelay(attempt - 1))
		}

		task, project, actor, err := s.loadContext(ctx, taskID, actorID)
		if err != nil {
			return nil, nil, err
		}

		columns := workflow.ColumnsFor(project)
		statusID, err := workflow.Resolve(newStatus, columns)
		if err != nil {
			return nil, nil, ErrInvalidTransition
		}
		if !permissions.CanEditTask(actor, task, project) {
			return nil, nil, ErrUnauthorized
		}
		if task.Status == statusID {
			return task, nil, nil
		}

		updated := *task
		err = s.db.Pool.QueryRow(ctx, `
			UPDATE tasks SET status = $1, version = version + 1, updated_at = NOW()
			WHERE id = $2 AND version = $3
			RETURNING version, updated_at
		`, statusID, task.ID, task.Version).Scan(&updated.Version, &updated.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				lastErr = ErrVersionConflict
				continue
			}
			if isRateLimited(err) {
				lastErr = ErrRateLimited
				continue
			}
			return nil, nil, err
		}
		updated.Status = statusID

		entries := s.appendHistory(ctx, task.ID, actorID, []workflow.Change{
			{Action: models.HistoryStatusChanged, Field: "status", Old: task.Status, New: statusID},
		})

		if !opts.SuppressReemit {
			s.hub.BroadcastTaskMoved(realtime.TaskChannel(&updated), realtime.TaskMovedData{
				TaskID:    updated.ID,
				ProjectID: updated.ProjectID,
				OldStatus: task.Status,
				NewStatus: statusID,
				Version:   updated.Version,
				MovedBy:   actorID,
			}, opts.SessionID)
		}
		return &updated, entries, nil
	}
	return nil, nil, lastErr
}

// Update patches task fields with the same conditional-write discipline as
// Transition and writes one audit entry per changed field.
func (s *TaskService) Update(ctx context.Context, taskID uuid.UUID, patch UpdateTaskInput, actorID uuid.UUID, opts TransitionOptions) (*models.Task, []models.TaskHistoryEntry, error) {
	lastErr := ErrVersionConflict
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(backoffDelay(attempt - 1))
		}

		task, project, actor, err := s.loadContext(ctx, taskID, actorID)
		if err != nil {
			return nil, nil, err
		}
		if !permissions.CanEditTask(actor, task, project) {
			return nil, nil, ErrUnauthorized
		}

		updated := *task
		if patch.Title != nil {
			updated.Title = *patch.Title
		}
		if patch.Description != nil {
			updated.Description = *patch.Description
		}
		if patch.Priority != nil {
			updated.Priority = *patch.Priority
		}
		if patch.Status != nil {
			statusID, err := workflow.Resolve(*patch.Status, workflow.ColumnsFor(project))
			if err != nil {
				return nil, nil, ErrInvalidTransition
			}
			updated.Status = statusID
		}

		changes := workflow.Diff(task, &updated)
		if len(changes) == 0 {
			return task, nil, nil
		}

		err = s.db.Pool.QueryRow(ctx, `
			UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4,
			                 version = version + 1, updated_at = NOW()
			WHERE id = $5 AND version = $6
			RETURNING version, updated_at
		`, updated.Title, updated.Description, updated.Status, updated.Priority,
			task.ID, task.Version).Scan(&updated.Version, &updated.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				lastErr = ErrVersionConflict
				continue
			}
			if isRateLimited(err) {
				lastErr = ErrRateLimited
				continue
			}
			return nil, nil, err
		}

		entries := s.appendHistory(ctx, task.ID, actorID, changes)

		if !opts.SuppressReemit {
			s.hub.BroadcastTaskUpdated(realtime.TaskChannel(&updated), realtime.TaskEventData{
				TaskID:    updated.ID,
				ProjectID: updated.ProjectID,
				Title:     updated.Title,
				Status:    updated.Status,
				Priority:  updated.Priority,
				Version:   updated.Version,
				ActorID:   actorID,
			}, opts.SessionID)
		}
		return &updated, entries, nil
	}
	return nil, nil, lastErr
}

// Assign adds a user to the task after running them through the
// assignable-user filter.
func (s *TaskService) Assign(ctx context.Context, taskID, userID, actorID uuid.UUID, opts TransitionOptions) error {
	task, project, actor, err := s.loadContext(ctx, taskID, actorID)
	if err != nil {
		return err
	}
	if err := s.checkAssignable(ctx, actor, project, []uuid.UUID{userID}); err != nil {
		return err
	}

	result, err := s.db.Pool.Exec(ctx, `
		INSERT INTO task_assignees (task_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`, taskID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return nil
	}

	s.appendHistory(ctx, taskID, actorID, []workflow.Change{
		{Action: models.HistoryAssigneeAdded, Field: "assignees", Old: "", New: userID.String()},
	})

	if !opts.SuppressReemit {
		s.hub.BroadcastTaskUpdated(realtime.TaskChannel(task), realtime.TaskEventData{
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			Status:    task.Status,
			Version:   task.Version,
			ActorID:   actorID,
		}, opts.SessionID)
	}
	return nil
}

func (s *TaskService) Unassign(ctx context.Context, taskID, userID, actorID uuid.UUID, opts TransitionOptions) error {
	task, project, actor, err := s.loadContext(ctx, taskID, actorID)
	if err != nil {
		return err
	}
	if !permissions.CanAssignTasks(actor, project) {
		return ErrUnauthorized
	}

	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM task_assignees WHERE task_id = $1 AND user_id = $2
	`, taskID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return nil
	}

	s.appendHistory(ctx, taskID, actorID, []workflow.Change{
		{Action: models.HistoryAssigneeRemoved, Field: "assignees", Old: userID.String(), New: ""},
	})

	if !opts.SuppressReemit {
		s.hub.BroadcastTaskUpdated(realtime.TaskChannel(task), realtime.TaskEventData{
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			Status:    task.Status,
			Version:   task.Version,
			ActorID:   actorID,
		}, opts.SessionID)
	}
	return nil
}

// AssignableUsers returns who the actor may assign tasks to within the
// optional project scope.
func (s *TaskService) AssignableUsers(ctx context.Context, actorID uuid.UUID, projectID *uuid.UUID) ([]models.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var project *models.Project
	if projectID != nil {
		project, err = s.projects.GetByID(ctx, *projectID)
		if err != nil {
			return nil, err
		}
	}

	var pool []models.User
	if actor.Role == models.RoleSuperAdmin {
		pool, err = s.users.ListAll(ctx)
	} else {
		poolOrg := actor.OrganizationID
		if project != nil && project.OrganizationID != nil {
			poolOrg = project.OrganizationID
		}
		pool, err = s.users.AssignableCandidates(ctx, poolOrg, projectID, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	return permissions.AssignableUsers(actor, project, pool), nil
}

// Archive soft-deletes the task; history rows stay with it.
func (s *TaskService) Archive(ctx context.Context, taskID, actorID uuid.UUID, opts TransitionOptions) error {
	task, project, actor, err := s.loadContext(ctx, taskID, actorID)
	if err != nil {
		return err
	}
	if !permissions.CanEditTask(actor, task, project) {
		return ErrUnauthorized
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE tasks SET archived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL
	`, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	if !opts.SuppressReemit {
		s.hub.BroadcastTaskDeleted(realtime.TaskChannel(task), realtime.TaskEventData{
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			Status:    task.Status,
			Version:   task.Version,
			ActorID:   actorID,
		}, opts.SessionID)
	}
	return nil
}

// Delete permanently destroys the task and, through the cascade, its
// history. Reserved for super_admin.
func (s *TaskService) Delete(ctx context.Context, taskID, actorID uuid.UUID) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleSuperAdmin {
		return ErrUnauthorized
	}
	_, err = s.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	return err
}

// History lists the task's audit trail, oldest first.
func (s *TaskService) History(ctx context.Context, taskID, actorID uuid.UUID) ([]models.TaskHistoryEntry, error) {
	task, project, actor, err := s.loadContext(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanViewTask(actor, task, project) {
		return nil, ErrUnauthorized
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, task_id, action, field, old_value, new_value, actor_id, created_at
		FROM task_history WHERE task_id = $1
		ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TaskHistoryEntry
	for rows.Next() {
		var e models.TaskHistoryEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Action, &e.Field, &e.OldValue, &e.NewValue, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// loadContext reads the task, its project scope and the actor fresh. Called
// on every retry so permission checks see current membership.
func (s *TaskService) loadContext(ctx context.Context, taskID, actorID uuid.UUID) (*models.Task, *models.Project, *models.User, error) {
	task, err := s.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, nil, err
	}
	var project *models.Project
	if task.ProjectID != nil {
		project, err = s.projects.GetByID(ctx, *task.ProjectID)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, nil, err
	}
	return task, project, actor, nil
}

func (s *TaskService) checkAssignable(ctx context.Context, actor *models.User, project *models.Project, userIDs []uuid.UUID) error {
	if !permissions.CanAssignTasks(actor, project) {
		return ErrUnauthorized
	}
	for _, userID := range userIDs {
		target, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		allowed := permissions.AssignableUsers(actor, project, []models.User{*target})
		if len(allowed) == 0 {
			return ErrNotAssignable
		}
	}
	return nil
}

// appendHistory inserts the audit rows for committed changes. The appends
// are ordered, independent inserts: they never participate in the task's own
// conditional write, and a failed append is logged rather than rolling back
// an already-committed mutation.
func (s *TaskService) appendHistory(ctx context.Context, taskID, actorID uuid.UUID, changes []workflow.Change) []models.TaskHistoryEntry {
	entries := make([]models.TaskHistoryEntry, 0, len(changes))
	for _, c := range changes {
		entry := models.TaskHistoryEntry{
			TaskID:   taskID,
			Action:   c.Action,
			Field:    c.Field,
			OldValue: c.Old,
			NewValue: c.New,
			ActorID:  actorID,
		}
		err := s.db.Pool.QueryRow(ctx, `
			INSERT INTO task_history (task_id, action, field, old_value, new_value, actor_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, taskID, c.Action, c.Field, c.Old, c.New, actorID).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			log.Printf("task %s: failed to append history entry for %s: %v", taskID, c.Field, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
