package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
)

type OrganizationService struct {
	db *database.DB
}

func NewOrganizationService(db *database.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// Create makes the owner an org_admin and binds them to the organization in
// the same transaction; the owner is implicitly an admin from then on.
func (s *OrganizationService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Organization, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var org models.Organization
	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_id, default_visibility, require_approval, archived_at, created_at, updated_at
	`, name, ownerID).Scan(
		&org.ID, &org.Name, &org.OwnerID, &org.DefaultVisibility,
		&org.RequireApproval, &org.ArchivedAt, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET organization_id = $1, role = $2, updated_at = NOW()
		WHERE id = $3 AND role NOT IN ($4, $5)
	`, org.ID, models.RoleOrgAdmin, ownerID, models.RoleSuperAdmin, models.RoleOrgAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to bind owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &org, nil
}

func (s *OrganizationService) GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, owner_id, default_visibility, require_approval, archived_at, created_at, updated_at
		FROM organizations WHERE id = $1 AND archived_at IS NULL
	`, orgID).Scan(
		&org.ID, &org.Name, &org.OwnerID, &org.DefaultVisibility,
		&org.RequireApproval, &org.ArchivedAt, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, ErrOrgNotFound
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT user_id FROM organization_admins WHERE organization_id = $1
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		org.AdminIDs = append(org.AdminIDs, id)
	}
	return &org, nil
}

func (s *OrganizationService) Update(ctx context.Context, orgID uuid.UUID, name, defaultVisibility string, requireApproval bool) (*models.Organization, error) {
	var org models.Organization
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE organizations
		SET name = $1, default_visibility = $2, require_approval = $3, updated_at = NOW()
		WHERE id = $4 AND archived_at IS NULL
		RETURNING id, name, owner_id, default_visibility, require_approval, archived_at, created_at, updated_at
	`, name, defaultVisibility, requireApproval, orgID).Scan(
		&org.ID, &org.Name, &org.OwnerID, &org.DefaultVisibility,
		&org.RequireApproval, &org.ArchivedAt, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, ErrOrgNotFound
	}
	return &org, nil
}

// Archive soft-deactivates the organization. Referenced records stay put.
func (s *OrganizationService) Archive(ctx context.Context, orgID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE organizations SET archived_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL
	`, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrgNotFound
	}
	return nil
}

// Delete cascades through teams, projects and tasks. Reserved for
// super_admin; the handler enforces that.
func (s *OrganizationService) Delete(ctx context.Context, orgID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, orgID)
	return err
}

func (s *OrganizationService) AddAdmin(ctx context.Context, orgID, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO organization_admins (organization_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (organization_id, user_id) DO NOTHING
	`, orgID, userID)
	return err
}

func (s *OrganizationService) RemoveAdmin(ctx context.Context, orgID, userID uuid.UUID) error {
	var ownerID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT owner_id FROM organizations WHERE id = $1`, orgID).Scan(&ownerID)
	if err != nil {
		return ErrOrgNotFound
	}
	if ownerID == userID {
		return ErrCannotRemoveOwner
	}
	_, err = s.db.Pool.Exec(ctx, `
		DELETE FROM organization_admins WHERE organization_id = $1 AND user_id = $2
	`, orgID, userID)
	return err
}

func (s *OrganizationService) GetMembers(ctx context.Context, orgID uuid.UUID) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE organization_id = $1
		ORDER BY created_at
	`, orgID)
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

// InviteByEmail invites a user into the organization. Unknown emails get a
// placeholder pending account that becomes usable only once the invite is
// accepted and the user logs in.
func (s *OrganizationService) InviteByEmail(ctx context.Context, orgID, inviterID uuid.UUID, email string) (*models.OrganizationInvite, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var invitee models.User
	err = tx.QueryRow(ctx, `
		SELECT id, organization_id FROM users WHERE email = $1
	`, email).Scan(&invitee.ID, &invitee.OrganizationID)
	if err != nil {
		err = tx.QueryRow(ctx, `
			INSERT INTO users (email, name, provider, provider_id, role, status)
			VALUES ($1, $1, 'invite', $2, $3, $4)
			RETURNING id
		`, email, uuid.New().String(), models.RoleMember, models.StatusPending).Scan(&invitee.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create invited user: %w", err)
		}
	} else if invitee.OrganizationID != nil && *invitee.OrganizationID == orgID {
		return nil, ErrAlreadyMember
	}

	var invite models.OrganizationInvite
	err = tx.QueryRow(ctx, `
		INSERT INTO organization_invites (organization_id, inviter_id, invitee_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, invitee_id) DO UPDATE SET
			inviter_id = EXCLUDED.inviter_id,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, organization_id, inviter_id, invitee_id, status, created_at, updated_at
	`, orgID, inviterID, invitee.ID, models.InviteStatusPending).Scan(
		&invite.ID, &invite.OrganizationID, &invite.InviterID, &invite.InviteeID,
		&invite.Status, &invite.CreatedAt, &invite.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &invite, nil
}

func (s *OrganizationService) GetUserPendingInvites(ctx context.Context, userID uuid.UUID) ([]models.OrganizationInvite, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, organization_id, inviter_id, invitee_id, status, created_at, updated_at
		FROM organization_invites
		WHERE invitee_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, userID, models.InviteStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.OrganizationInvite
	for rows.Next() {
		var inv models.OrganizationInvite
		if err := rows.Scan(
			&inv.ID, &inv.OrganizationID, &inv.InviterID, &inv.InviteeID,
			&inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, nil
}

// AcceptInvite binds the invitee to the organization. A pending placeholder
// account stays pending until its first login claims it.
func (s *OrganizationService) AcceptInvite(ctx context.Context, inviteID, userID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var invite models.OrganizationInvite
	err = tx.QueryRow(ctx, `
		SELECT id, organization_id, invitee_id, status FROM organization_invites WHERE id = $1
	`, inviteID).Scan(&invite.ID, &invite.OrganizationID, &invite.InviteeID, &invite.Status)
	if err != nil {
		return ErrInviteNotFound
	}
	if invite.InviteeID != userID || invite.Status != models.InviteStatusPending {
		return ErrInviteNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE organization_invites SET status = $1, updated_at = NOW() WHERE id = $2
	`, models.InviteStatusAccepted, inviteID)
	if err != nil {
		return fmt.Errorf("failed to update invite: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET organization_id = $1, updated_at = NOW() WHERE id = $2
	`, invite.OrganizationID, userID)
	if err != nil {
		return fmt.Errorf("failed to bind member: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *OrganizationService) DeclineInvite(ctx context.Context, inviteID, userID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE organization_invites SET status = $1, updated_at = NOW()
		WHERE id = $2 AND invitee_id = $3 AND status = $4
	`, models.InviteStatusDeclined, inviteID, userID, models.InviteStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}
