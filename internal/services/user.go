package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/oauth"
)

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, email, name, avatar_url, provider, provider_id, role, status, organization_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.Role, &user.Status,
		&user.OrganizationID, &user.CreatedAt, &user.UpdatedAt,
	)
}

// FindOrCreateFromOAuth resolves a login. Pending users were created by an
// invitation: the login claims the account, flips it active, and binds the
// provider identity. Suspended and inactive accounts cannot log in.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID), &user)
	if err == nil {
		switch user.Status {
		case models.StatusActive:
			return &user, nil
		default:
			return nil, ErrAccountNotUsable
		}
	}

	// An invited account exists by email but has never logged in.
	err = scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = $1 AND status = $2
	`, info.Email, models.StatusPending), &user)
	if err == nil {
		err = scanUser(s.db.Pool.QueryRow(ctx, `
			UPDATE users
			SET provider = $1, provider_id = $2, name = $3, avatar_url = $4,
			    status = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING `+userColumns+`
		`, info.Provider, info.ID, info.Name, nullableString(info.AvatarURL),
			models.StatusActive, user.ID), &user)
		if err != nil {
			return nil, fmt.Errorf("failed to claim invited user: %w", err)
		}
		return &user, nil
	}

	err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns+`
	`, info.Email, info.Name, nullableString(info.AvatarURL), info.Provider, info.ID,
		models.RoleMember, models.StatusActive), &user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetByID loads the user together with their team memberships so permission
// checks downstream are a pure lookup.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id), &user)
	if err != nil {
		return nil, ErrUserNotFound
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT team_id, role FROM team_members WHERE user_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.TeamMembership
		if err := rows.Scan(&m.TeamID, &m.Role); err != nil {
			return nil, err
		}
		user.Teams = append(user.Teams, m)
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email), &user)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns+`
	`, name, id), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetRole changes a user's global role. Used by the promote-admin CLI and
// organization admin management.
func (s *UserService) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2
	`, role, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListAll returns every user in the system.
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// AssignableCandidates returns the raw pool the assignable-user filter
// narrows: everyone in the organization, the project's explicit members and
// creator, and the actor themselves. The permissions layer does the rest.
func (s *UserService) AssignableCandidates(ctx context.Context, orgID, projectID *uuid.UUID, selfID uuid.UUID) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1::uuid IS NOT NULL AND organization_id = $1)
		   OR ($2::uuid IS NOT NULL AND id IN (
				SELECT user_id FROM project_members WHERE project_id = $2
				UNION
				SELECT created_by FROM projects WHERE id = $2))
		   OR id = $3
		ORDER BY created_at
	`, orgID, projectID, selfID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
