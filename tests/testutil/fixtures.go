package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/oauth"
	"github.com/taskhive/taskhive-api/internal/workflow"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		Provider:   "github",
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
		Role:       models.RoleMember,
		Status:     models.StatusActive,
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, role, status, organization_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL, user.Provider, user.ProviderID,
		user.Role, user.Status, user.OrganizationID).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithRole sets the user's global role
func WithRole(role string) UserOption {
	return func(u *models.User) {
		u.Role = role
	}
}

// WithStatus sets the user's account status
func WithStatus(status string) UserOption {
	return func(u *models.User) {
		u.Status = status
	}
}

// WithOrganization places the user in an organization
func WithOrganization(org *models.Organization) UserOption {
	return func(u *models.User) {
		u.OrganizationID = &org.ID
	}
}

// CreateOrganization creates a test organization owned by the given user
func (f *Fixtures) CreateOrganization(t *testing.T, owner *models.User) *models.Organization {
	t.Helper()
	f.counter++

	org := &models.Organization{
		Name:              fmt.Sprintf("Test Org %d", f.counter),
		OwnerID:           owner.ID,
		DefaultVisibility: models.VisibilityOrganization,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO organizations (name, owner_id, default_visibility)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, org.Name, org.OwnerID, org.DefaultVisibility).Scan(
		&org.ID, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	_, err = f.db.Pool.Exec(ctx, `
		UPDATE users SET organization_id = $1 WHERE id = $2
	`, org.ID, owner.ID)
	if err != nil {
		t.Fatalf("failed to attach owner to organization: %v", err)
	}
	owner.OrganizationID = &org.ID

	return org
}

// CreateTeam creates a test team inside an organization
func (f *Fixtures) CreateTeam(t *testing.T, org *models.Organization, lead *models.User) *models.Team {
	t.Helper()
	f.counter++

	team := &models.Team{
		OrganizationID: org.ID,
		Name:           fmt.Sprintf("Test Team %d", f.counter),
		LeadID:         lead.ID,
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO teams (organization_id, name, lead_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, team.OrganizationID, team.Name, team.LeadID).Scan(
		&team.ID, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, team.ID, lead.ID, models.TeamRoleLead)
	if err != nil {
		t.Fatalf("failed to add lead as member: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return team
}

// AddTeamMember adds a member to a team
func (f *Fixtures) AddTeamMember(t *testing.T, team *models.Team, user *models.User, role string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, team.ID, user.ID, role)
	if err != nil {
		t.Fatalf("failed to add team member: %v", err)
	}
}

// CreateProject creates a test project with the default column set and the
// creator enrolled as an admin member
func (f *Fixtures) CreateProject(t *testing.T, creator *models.User, opts ...ProjectOption) *models.Project {
	t.Helper()
	f.counter++

	project := &models.Project{
		Name:       fmt.Sprintf("Test Project %d", f.counter),
		Visibility: models.VisibilityPrivate,
		CreatedBy:  creator.ID,
		Columns:    workflow.DefaultColumns(),
	}

	for _, opt := range opts {
		opt(project)
	}

	columnsJSON, err := json.Marshal(project.Columns)
	if err != nil {
		t.Fatalf("failed to encode columns: %v", err)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO projects (name, organization_id, team_id, visibility, created_by, columns)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at
	`, project.Name, project.OrganizationID, project.TeamID, project.Visibility,
		project.CreatedBy, columnsJSON).Scan(
		&project.ID, &project.Version, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_by)
		VALUES ($1, $2, $3, $4)
	`, project.ID, creator.ID, models.ProjectRoleAdmin, creator.ID)
	if err != nil {
		t.Fatalf("failed to add creator as member: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return project
}

// ProjectOption configures a test project
type ProjectOption func(*models.Project)

// InOrganization scopes the project to an organization
func InOrganization(org *models.Organization) ProjectOption {
	return func(p *models.Project) {
		p.OrganizationID = &org.ID
	}
}

// WithVisibility sets the project's visibility
func WithVisibility(visibility string) ProjectOption {
	return func(p *models.Project) {
		p.Visibility = visibility
	}
}

// WithColumns sets the project's workflow columns
func WithColumns(columns []models.Column) ProjectOption {
	return func(p *models.Project) {
		p.Columns = columns
	}
}

// AddProjectMember adds a member to a project
func (f *Fixtures) AddProjectMember(t *testing.T, project *models.Project, user *models.User, role string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, added_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, project.ID, user.ID, role, project.CreatedBy)
	if err != nil {
		t.Fatalf("failed to add project member: %v", err)
	}
}

// CreateTask creates a test task, optionally scoped to a project
func (f *Fixtures) CreateTask(t *testing.T, creator *models.User, project *models.Project, opts ...TaskOption) *models.Task {
	t.Helper()
	f.counter++

	task := &models.Task{
		Title:     fmt.Sprintf("Test Task %d", f.counter),
		Status:    "todo",
		Priority:  models.PriorityMedium,
		CreatedBy: creator.ID,
	}
	if project != nil {
		task.ProjectID = &project.ID
	}

	for _, opt := range opts {
		opt(task)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at
	`, task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		task.CreatedBy).Scan(
		&task.ID, &task.Version, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// TaskOption configures a test task
type TaskOption func(*models.Task)

// WithTitle sets the task title
func WithTitle(title string) TaskOption {
	return func(task *models.Task) {
		task.Title = title
	}
}

// WithTaskStatus sets the task's workflow column
func WithTaskStatus(status string) TaskOption {
	return func(task *models.Task) {
		task.Status = status
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  provider,
	}
}
