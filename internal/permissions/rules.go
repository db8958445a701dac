package permissions

import "github.com/taskhive/taskhive-api/internal/models"

// orderedRules is the resolution order, most privileged first. The first
// rule that answers Allow or Deny wins; Skip falls through.
var orderedRules = []Rule{
	{Name: "super-admin", Evaluate: superAdmin},
	{Name: "org-admin", Evaluate: orgAdmin},
	{Name: "team-lead", Evaluate: teamLead},
	{Name: "direct-relationship", Evaluate: directRelationship},
	{Name: "personal-scope", Evaluate: personalScope},
	{Name: "visibility", Evaluate: visibility},
}

func superAdmin(req Request) Decision {
	if req.Actor.Role == models.RoleSuperAdmin {
		return Allow
	}
	return Skip
}

// orgAdmin grants within the actor's own organization. A resource with no
// organization is also granted when the actor has one; that fallback covers
// legacy org-less projects and is a deliberate policy keep.
func orgAdmin(req Request) Decision {
	if req.Actor.Role != models.RoleOrgAdmin || req.Actor.OrganizationID == nil {
		return Skip
	}
	if req.Project == nil || req.Project.OrganizationID == nil {
		return Allow
	}
	if *req.Project.OrganizationID == *req.Actor.OrganizationID {
		return Allow
	}
	return Skip
}

// teamLead grants inside projects the lead created or belongs to, broadly
// within the lead's own organization, and always for personal resources.
func teamLead(req Request) Decision {
	if req.Actor.Role != models.RoleTeamLead {
		return Skip
	}
	if req.Project == nil {
		return Allow
	}
	if role, ok := req.Project.MemberRole(req.Actor.ID); ok {
		if role == models.ProjectRoleAdmin || role == models.ProjectRoleMember {
			return Allow
		}
	}
	if req.Actor.OrganizationID != nil && req.Project.OrganizationID != nil &&
		*req.Actor.OrganizationID == *req.Project.OrganizationID {
		return Allow
	}
	return Skip
}

// directRelationship covers the task creator, assigned users (view and edit
// only), and explicit project membership. Project admins and members get all
// actions; a project-scoped viewer may only view.
func directRelationship(req Request) Decision {
	if req.Task != nil {
		if req.Task.CreatedBy == req.Actor.ID {
			return Allow
		}
		if req.Task.IsAssigned(req.Actor.ID) &&
			(req.Action == ActionView || req.Action == ActionEdit) {
			return Allow
		}
	}
	if req.Project != nil {
		if role, ok := req.Project.MemberRole(req.Actor.ID); ok {
			switch role {
			case models.ProjectRoleAdmin, models.ProjectRoleMember:
				return Allow
			case models.ProjectRoleViewer:
				if req.Action == ActionView {
					return Allow
				}
			}
		}
	}
	return Skip
}

// personalScope lets any (non-viewer, via the ceiling) user create and
// assign personal tasks when no project scope is in play. Editing someone
// else's personal task stays with directRelationship.
func personalScope(req Request) Decision {
	if req.Project == nil && req.Task == nil &&
		(req.Action == ActionCreate || req.Action == ActionAssign) {
		return Allow
	}
	return Skip
}

// visibility is the last grant: organization-visible projects open view and
// create to same-organization users, team-visible ones to the project's
// team, public ones to anyone.
func visibility(req Request) Decision {
	if req.Project == nil {
		return Skip
	}
	if req.Action != ActionView && req.Action != ActionCreate {
		return Skip
	}
	switch req.Project.Visibility {
	case models.VisibilityPublic:
		return Allow
	case models.VisibilityOrganization:
		if req.Project.OrganizationID != nil && req.Actor.InOrganization(*req.Project.OrganizationID) {
			return Allow
		}
	case models.VisibilityTeam:
		if req.Project.TeamID != nil {
			if _, ok := req.Actor.TeamRole(*req.Project.TeamID); ok {
				return Allow
			}
		}
	}
	return Skip
}
