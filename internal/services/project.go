package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/permissions"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/workflow"
)

type ProjectService struct {
	db    *database.DB
	users *UserService
	hub   Broadcaster
}

func NewProjectService(db *database.DB, users *UserService, hub Broadcaster) *ProjectService {
	return &ProjectService{db: db, users: users, hub: hub}
}

type CreateProjectInput struct {
	Name           string
	OrganizationID *uuid.UUID
	TeamID         *uuid.UUID
	Visibility     string
}

// Create inserts the project with the default column set and enrolls the
// creator as an admin member in the same transaction.
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput, creatorID uuid.UUID) (*models.Project, error) {
	if input.Visibility == "" {
		input.Visibility = models.VisibilityPrivate
	}
	columns := workflow.DefaultColumns()
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to encode columns: %w", err)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var project models.Project
	err = tx.QueryRow(ctx, `
		INSERT INTO projects (name, organization_id, team_id, visibility, created_by, columns)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, archived_at, created_at, updated_at
	`, input.Name, input.OrganizationID, input.TeamID, input.Visibility, creatorID, columnsJSON).Scan(
		&project.ID, &project.Version, &project.ArchivedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_by)
		VALUES ($1, $2, $3, $4)
	`, project.ID, creatorID, models.ProjectRoleAdmin, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	project.Name = input.Name
	project.OrganizationID = input.OrganizationID
	project.TeamID = input.TeamID
	project.Visibility = input.Visibility
	project.CreatedBy = creatorID
	project.Columns = columns
	project.Members = []models.ProjectMember{{
		ProjectID: project.ID, UserID: creatorID,
		Role: models.ProjectRoleAdmin, AddedBy: creatorID,
	}}
	return &project, nil
}

// GetByID loads the project with its column set and member list, everything
// a permission check needs.
func (s *ProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	var columnsJSON []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, organization_id, team_id, visibility, created_by, columns, version,
		       archived_at, created_at, updated_at
		FROM projects WHERE id = $1 AND archived_at IS NULL
	`, projectID).Scan(
		&project.ID, &project.Name, &project.OrganizationID, &project.TeamID,
		&project.Visibility, &project.CreatedBy, &columnsJSON, &project.Version,
		&project.ArchivedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, ErrProjectNotFound
	}
	if err := json.Unmarshal(columnsJSON, &project.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	if len(project.Columns) == 0 {
		project.Columns = workflow.DefaultColumns()
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, project_id, user_id, role, added_by, added_at
		FROM project_members WHERE project_id = $1
		ORDER BY added_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.AddedBy, &m.AddedAt); err != nil {
			return nil, err
		}
		project.Members = append(project.Members, m)
	}
	return &project, nil
}

// GetForUser lists projects visible to the user: created, explicit
// membership, or same-organization projects with organization visibility.
func (s *ProjectService) GetForUser(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, name, organization_id, team_id, visibility, created_by, columns, version,
		       archived_at, created_at, updated_at
		FROM projects
		WHERE archived_at IS NULL AND (
			created_by = $1
			OR id IN (SELECT project_id FROM project_members WHERE user_id = $1)
			OR ($2::uuid IS NOT NULL AND organization_id = $2 AND visibility = 'organization')
			OR visibility = 'public'
		)
		ORDER BY created_at DESC
	`, userID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		var columnsJSON []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.OrganizationID, &p.TeamID,
			&p.Visibility, &p.CreatedBy, &columnsJSON, &p.Version,
			&p.ArchivedAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(columnsJSON, &p.Columns); err != nil {
			return nil, fmt.Errorf("failed to decode columns: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, projectID uuid.UUID, name, visibility string) (*models.Project, error) {
	var project models.Project
	var columnsJSON []byte
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE projects SET name = $1, visibility = $2, updated_at = NOW()
		WHERE id = $3 AND archived_at IS NULL
		RETURNING id, name, organization_id, team_id, visibility, created_by, columns, version,
		          archived_at, created_at, updated_at
	`, name, visibility, projectID).Scan(
		&project.ID, &project.Name, &project.OrganizationID, &project.TeamID,
		&project.Visibility, &project.CreatedBy, &columnsJSON, &project.Version,
		&project.ArchivedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, ErrProjectNotFound
	}
	if err := json.Unmarshal(columnsJSON, &project.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	return &project, nil
}

func (s *ProjectService) Archive(ctx context.Context, projectID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE projects SET archived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL
	`, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete hard-deletes the project and everything under it. Reserved for
// super_admin.
func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	return err
}

func (s *ProjectService) AddMember(ctx context.Context, projectID, userID uuid.UUID, role string, addedBy uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, projectID, userID, role, addedBy)
	return err
}

func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM project_members WHERE project_id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// AddColumn appends a custom workflow column. The column set is guarded by
// the project version; a concurrent change restarts from a fresh read.
func (s *ProjectService) AddColumn(ctx context.Context, projectID uuid.UUID, name string, actorID uuid.UUID, sessionID string) (*models.Project, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(backoffDelay(attempt - 1))
		}

		project, actor, err := s.loadForColumnChange(ctx, projectID, actorID)
		if err != nil {
			return nil, err
		}

		columns, _, err := workflow.AddColumn(project.Columns, name)
		if err != nil {
			return nil, err
		}

		updated, err := s.writeColumns(ctx, project, columns, actor.ID, sessionID)
		if err != nil {
			if isRetryable(err) {
				continue
			}
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrVersionConflict
}

// RemoveColumn drops a custom column. Defaults are rejected unconditionally;
// a column still referenced by any task is a conflict the caller resolves by
// moving those tasks first.
func (s *ProjectService) RemoveColumn(ctx context.Context, projectID uuid.UUID, columnID string, actorID uuid.UUID, sessionID string) (*models.Project, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(backoffDelay(attempt - 1))
		}

		project, actor, err := s.loadForColumnChange(ctx, projectID, actorID)
		if err != nil {
			return nil, err
		}

		columns, err := workflow.RemoveColumn(project.Columns, columnID)
		if err != nil {
			return nil, err
		}

		var inUse int
		err = s.db.Pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM tasks
			WHERE project_id = $1 AND status = $2 AND archived_at IS NULL
		`, projectID, columnID).Scan(&inUse)
		if err != nil {
			return nil, err
		}
		if inUse > 0 {
			return nil, ErrColumnInUse
		}

		updated, err := s.writeColumns(ctx, project, columns, actor.ID, sessionID)
		if err != nil {
			if isRetryable(err) {
				continue
			}
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrVersionConflict
}

func (s *ProjectService) loadForColumnChange(ctx context.Context, projectID, actorID uuid.UUID) (*models.Project, *models.User, error) {
	project, err := s.GetByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !permissions.CanEditTask(actor, nil, project) {
		return nil, nil, ErrUnauthorized
	}
	return project, actor, nil
}

func (s *ProjectService) writeColumns(ctx context.Context, project *models.Project, columns []models.Column, actorID uuid.UUID, sessionID string) (*models.Project, error) {
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to encode columns: %w", err)
	}

	updated := *project
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE projects SET columns = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
		RETURNING version, updated_at
	`, columnsJSON, project.ID, project.Version).Scan(&updated.Version, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	updated.Columns = columns

	s.hub.BroadcastColumnsChanged(realtime.ProjectChannel(project.ID), realtime.ColumnsChangedData{
		ProjectID: project.ID,
		Columns:   columns,
		Version:   updated.Version,
		ChangedBy: actorID,
	}, sessionID)
	return &updated, nil
}
