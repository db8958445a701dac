package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'member',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, provider_id)
	)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		default_visibility VARCHAR(20) NOT NULL DEFAULT 'organization',
		require_approval BOOLEAN NOT NULL DEFAULT FALSE,
		archived_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// users.organization_id comes after organizations so the FK resolves
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS organization_id UUID REFERENCES organizations(id) ON DELETE SET NULL`,

	`CREATE TABLE IF NOT EXISTS organization_admins (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(organization_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS organization_invites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		inviter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		invitee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(organization_id, invitee_id)
	)`,

	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		lead_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		archived_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(organization_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL DEFAULT 'member',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(team_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		organization_id UUID REFERENCES organizations(id) ON DELETE SET NULL,
		team_id UUID REFERENCES teams(id) ON DELETE SET NULL,
		visibility VARCHAR(20) NOT NULL DEFAULT 'private',
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		columns JSONB NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 1,
		archived_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS project_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL DEFAULT 'member',
		added_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		added_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(project_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID REFERENCES projects(id) ON DELETE CASCADE,
		title VARCHAR(500) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(100) NOT NULL DEFAULT 'todo',
		priority VARCHAR(20) NOT NULL DEFAULT 'medium',
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		version INTEGER NOT NULL DEFAULT 1,
		archived_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS task_assignees (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(task_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS task_history (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		action VARCHAR(50) NOT NULL,
		field VARCHAR(100) NOT NULL,
		old_value TEXT NOT NULL DEFAULT '',
		new_value TEXT NOT NULL DEFAULT '',
		actor_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS project_api_keys (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		key_hash VARCHAR(255) NOT NULL UNIQUE,
		key_prefix VARCHAR(50) NOT NULL,
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMP WITH TIME ZONE,
		revoked_at TIMESTAMP WITH TIME ZONE,
		last_used_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_organization_id ON users(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_organization_admins_org_id ON organization_admins(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_organization_invites_invitee_id ON organization_invites(invitee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_teams_organization_id ON teams(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_team_id ON team_members(team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_organization_id ON projects(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_project_members_project_id ON project_members(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_project_members_user_id ON project_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project_status ON tasks(project_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_task_assignees_task_id ON task_assignees(task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_assignees_user_id ON task_assignees(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_history_task_id ON task_history(task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_project_api_keys_project_id ON project_api_keys(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
