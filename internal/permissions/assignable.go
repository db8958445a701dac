package permissions

import (
	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/models"
)

// AssignableUsers narrows pool to the users the actor may assign tasks to
// within the optional project scope. Empty when the actor may not assign at
// all. Inactive users and global viewers are never assignable, whatever the
// narrowing step produced.
func AssignableUsers(actor *models.User, scope *models.Project, pool []models.User) []models.User {
	if !CanAssignTasks(actor, scope) {
		return nil
	}

	var candidates []models.User
	switch {
	case actor.Role == models.RoleSuperAdmin:
		candidates = pool

	case (actor.Role == models.RoleOrgAdmin || actor.Role == models.RoleTeamLead) &&
		actor.OrganizationID != nil:
		candidates = sameOrganization(pool, *actor.OrganizationID)

	case scope != nil && scope.OrganizationID != nil:
		// Same-organization members plus explicit project members from
		// outside the organization.
		org := *scope.OrganizationID
		for _, u := range pool {
			if u.InOrganization(org) || isProjectMember(scope, u.ID) {
				candidates = append(candidates, u)
			}
		}

	case scope != nil:
		for _, u := range pool {
			if isProjectMember(scope, u.ID) || u.ID == scope.CreatedBy {
				candidates = append(candidates, u)
			}
		}

	case actor.OrganizationID != nil:
		candidates = sameOrganization(pool, *actor.OrganizationID)

	default:
		// No scope, no organization: self-assignment only.
		candidates = []models.User{*actor}
	}

	out := make([]models.User, 0, len(candidates))
	for _, u := range candidates {
		if u.Status != models.StatusActive || u.Role == models.RoleViewer {
			continue
		}
		out = append(out, u)
	}
	return out
}

func sameOrganization(pool []models.User, orgID uuid.UUID) []models.User {
	var out []models.User
	for _, u := range pool {
		if u.InOrganization(orgID) {
			out = append(out, u)
		}
	}
	return out
}

func isProjectMember(project *models.Project, userID uuid.UUID) bool {
	_, ok := project.MemberRole(userID)
	return ok
}
