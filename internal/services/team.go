package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
)

type TeamService struct {
	db *database.DB
}

func NewTeamService(db *database.DB) *TeamService {
	return &TeamService{db: db}
}

// Create inserts the team and enrolls the lead as a member with role lead in
// one transaction. Team names are unique per organization.
func (s *TeamService) Create(ctx context.Context, orgID uuid.UUID, name string, leadID uuid.UUID) (*models.Team, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var team models.Team
	err = tx.QueryRow(ctx, `
		INSERT INTO teams (organization_id, name, lead_id)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, name, lead_id, archived_at, created_at, updated_at
	`, orgID, name, leadID).Scan(
		&team.ID, &team.OrganizationID, &team.Name, &team.LeadID,
		&team.ArchivedAt, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTeamNameTaken
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, team.ID, leadID, models.TeamRoleLead)
	if err != nil {
		return nil, fmt.Errorf("failed to add lead as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &team, nil
}

func (s *TeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, organization_id, name, lead_id, archived_at, created_at, updated_at
		FROM teams WHERE id = $1 AND archived_at IS NULL
	`, teamID).Scan(
		&team.ID, &team.OrganizationID, &team.Name, &team.LeadID,
		&team.ArchivedAt, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func (s *TeamService) GetByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Team, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, organization_id, name, lead_id, archived_at, created_at, updated_at
		FROM teams WHERE organization_id = $1 AND archived_at IS NULL
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(
			&t.ID, &t.OrganizationID, &t.Name, &t.LeadID,
			&t.ArchivedAt, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func (s *TeamService) Update(ctx context.Context, teamID uuid.UUID, name string) (*models.Team, error) {
	var team models.Team
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE teams SET name = $1, updated_at = NOW()
		WHERE id = $2 AND archived_at IS NULL
		RETURNING id, organization_id, name, lead_id, archived_at, created_at, updated_at
	`, name, teamID).Scan(
		&team.ID, &team.OrganizationID, &team.Name, &team.LeadID,
		&team.ArchivedAt, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTeamNameTaken
		}
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func (s *TeamService) Archive(ctx context.Context, teamID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE teams SET archived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL
	`, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (s *TeamService) Delete(ctx context.Context, teamID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	return err
}

func (s *TeamService) GetMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT tm.id, tm.team_id, tm.user_id, tm.role, tm.created_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.provider_id,
		       u.role, u.status, u.organization_id, u.created_at, u.updated_at
		FROM team_members tm
		JOIN users u ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY tm.created_at
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.TeamMember
	for rows.Next() {
		var member models.TeamMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.TeamID, &member.UserID, &member.Role, &member.CreatedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.Provider, &user.ProviderID,
			&user.Role, &user.Status, &user.OrganizationID, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, nil
}

func (s *TeamService) AddMember(ctx context.Context, teamID, userID uuid.UUID, role string) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, teamID, userID, role)
	return err
}

// RemoveMember drops a member. The lead cannot be removed; reassign the lead
// first.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	var leadID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT lead_id FROM teams WHERE id = $1`, teamID).Scan(&leadID)
	if err != nil {
		return ErrTeamNotFound
	}
	if leadID == userID {
		return ErrCannotRemoveOwner
	}

	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM team_members WHERE team_id = $1 AND user_id = $2
	`, teamID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
