package permissions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taskhive/taskhive-api/internal/models"
)

func activeUser(role string) *models.User {
	return &models.User{
		ID:     uuid.New(),
		Role:   role,
		Status: models.StatusActive,
	}
}

func orgUser(role string, orgID uuid.UUID) *models.User {
	u := activeUser(role)
	u.OrganizationID = &orgID
	return u
}

func orgProject(orgID uuid.UUID) *models.Project {
	return &models.Project{
		ID:             uuid.New(),
		OrganizationID: &orgID,
		Visibility:     models.VisibilityPrivate,
		CreatedBy:      uuid.New(),
	}
}

func TestResolve_NilActorDenied(t *testing.T) {
	assert.False(t, Resolve(Request{Action: ActionView}))
}

func TestResolve_InactiveActorDeniedEverything(t *testing.T) {
	for _, status := range []string{models.StatusInactive, models.StatusPending, models.StatusSuspended} {
		actor := activeUser(models.RoleSuperAdmin)
		actor.Status = status

		for _, action := range []Action{ActionView, ActionCreate, ActionEdit, ActionAssign} {
			assert.False(t, Resolve(Request{Actor: actor, Action: action}),
				"status %s action %d", status, action)
		}
	}
}

func TestSuperAdmin_AllowedEverywhere(t *testing.T) {
	actor := activeUser(models.RoleSuperAdmin)
	otherOrg := uuid.New()
	project := orgProject(otherOrg)
	task := &models.Task{ID: uuid.New(), ProjectID: &project.ID, CreatedBy: uuid.New()}

	assert.True(t, CanViewTask(actor, task, project))
	assert.True(t, CanEditTask(actor, task, project))
	assert.True(t, CanCreateTasks(actor, project))
	assert.True(t, CanAssignTasks(actor, project))
}

func TestOrgAdmin_SameOrganizationAllowed(t *testing.T) {
	orgID := uuid.New()
	actor := orgUser(models.RoleOrgAdmin, orgID)
	project := orgProject(orgID)

	assert.True(t, CanViewTask(actor, nil, project))
	assert.True(t, CanEditTask(actor, nil, project))
	assert.True(t, CanAssignTasks(actor, project))
}

func TestOrgAdmin_DifferentOrganizationDenied(t *testing.T) {
	actor := orgUser(models.RoleOrgAdmin, uuid.New())
	project := orgProject(uuid.New())

	assert.False(t, CanViewTask(actor, nil, project))
	assert.False(t, CanEditTask(actor, nil, project))
	assert.False(t, CanAssignTasks(actor, project))
}

func TestOrgAdmin_OrglessProjectAllowed(t *testing.T) {
	actor := orgUser(models.RoleOrgAdmin, uuid.New())
	project := &models.Project{ID: uuid.New(), Visibility: models.VisibilityPrivate, CreatedBy: uuid.New()}

	assert.True(t, CanEditTask(actor, nil, project))
}

func TestTeamLead_ProjectMembershipAllowed(t *testing.T) {
	actor := activeUser(models.RoleTeamLead)
	project := orgProject(uuid.New())
	project.Members = []models.ProjectMember{
		{UserID: actor.ID, Role: models.ProjectRoleMember},
	}

	assert.True(t, CanEditTask(actor, nil, project))
	assert.True(t, CanAssignTasks(actor, project))
}

func TestTeamLead_SameOrganizationAllowed(t *testing.T) {
	orgID := uuid.New()
	actor := orgUser(models.RoleTeamLead, orgID)
	project := orgProject(orgID)

	assert.True(t, CanCreateTasks(actor, project))
}

func TestTeamLead_ForeignPrivateProjectDenied(t *testing.T) {
	actor := orgUser(models.RoleTeamLead, uuid.New())
	project := orgProject(uuid.New())

	assert.False(t, CanEditTask(actor, nil, project))
}

func TestTaskCreator_CanEditOwnTask(t *testing.T) {
	actor := activeUser(models.RoleMember)
	task := &models.Task{ID: uuid.New(), CreatedBy: actor.ID}

	assert.True(t, CanViewTask(actor, task, nil))
	assert.True(t, CanEditTask(actor, task, nil))
}

func TestAssignee_CanViewAndEditButNotAssign(t *testing.T) {
	actor := activeUser(models.RoleMember)
	project := orgProject(uuid.New())
	task := &models.Task{
		ID:        uuid.New(),
		ProjectID: &project.ID,
		CreatedBy: uuid.New(),
		Assignees: []models.UserRef{{ID: actor.ID}},
	}

	assert.True(t, CanViewTask(actor, task, project))
	assert.True(t, CanEditTask(actor, task, project))
	assert.False(t, CanAssignTasks(actor, project))
}

func TestProjectMember_AllActions(t *testing.T) {
	actor := activeUser(models.RoleMember)
	project := orgProject(uuid.New())
	project.Members = []models.ProjectMember{
		{UserID: actor.ID, Role: models.ProjectRoleMember},
	}

	assert.True(t, CanViewTask(actor, nil, project))
	assert.True(t, CanCreateTasks(actor, project))
	assert.True(t, CanEditTask(actor, nil, project))
	assert.True(t, CanAssignTasks(actor, project))
}

func TestProjectViewer_ViewOnly(t *testing.T) {
	actor := activeUser(models.RoleMember)
	project := orgProject(uuid.New())
	project.Members = []models.ProjectMember{
		{UserID: actor.ID, Role: models.ProjectRoleViewer},
	}

	assert.True(t, CanViewTask(actor, nil, project))
	assert.False(t, CanCreateTasks(actor, project))
	assert.False(t, CanEditTask(actor, nil, project))
	assert.False(t, CanAssignTasks(actor, project))
}

func TestProjectCreator_ImplicitAdmin(t *testing.T) {
	actor := activeUser(models.RoleMember)
	project := orgProject(uuid.New())
	project.CreatedBy = actor.ID

	assert.True(t, CanEditTask(actor, nil, project))
	assert.True(t, CanAssignTasks(actor, project))
}

// A member with no organization and no project scope may still create and
// self-assign personal tasks.
func TestPersonalScope_MemberWithoutOrganization(t *testing.T) {
	actor := activeUser(models.RoleMember)

	assert.True(t, CanCreateTasks(actor, nil))
	assert.True(t, CanAssignTasks(actor, nil))
}

func TestPersonalScope_DoesNotGrantEditOnForeignTask(t *testing.T) {
	actor := activeUser(models.RoleMember)
	task := &models.Task{ID: uuid.New(), CreatedBy: uuid.New()}

	assert.False(t, CanEditTask(actor, task, nil))
}

// The viewer ceiling holds regardless of which rule granted: even a viewer
// who is an explicit project member never creates or assigns.
func TestViewerCeiling(t *testing.T) {
	actor := activeUser(models.RoleViewer)
	project := orgProject(uuid.New())
	project.Members = []models.ProjectMember{
		{UserID: actor.ID, Role: models.ProjectRoleMember},
	}

	assert.True(t, CanViewTask(actor, nil, project))
	assert.False(t, CanCreateTasks(actor, project))
	assert.False(t, CanAssignTasks(actor, project))
}

func TestViewerCeiling_PersonalScope(t *testing.T) {
	actor := activeUser(models.RoleViewer)

	assert.False(t, CanCreateTasks(actor, nil))
	assert.False(t, CanAssignTasks(actor, nil))
}

func TestVisibility_PublicProjectViewableByAnyone(t *testing.T) {
	actor := activeUser(models.RoleMember)
	project := orgProject(uuid.New())
	project.Visibility = models.VisibilityPublic

	assert.True(t, CanViewTask(actor, nil, project))
	assert.True(t, CanCreateTasks(actor, project))
	assert.False(t, CanEditTask(actor, nil, project))
}

func TestVisibility_OrganizationScoped(t *testing.T) {
	orgID := uuid.New()
	project := orgProject(orgID)
	project.Visibility = models.VisibilityOrganization

	sameOrg := orgUser(models.RoleMember, orgID)
	assert.True(t, CanViewTask(sameOrg, nil, project))

	otherOrg := orgUser(models.RoleMember, uuid.New())
	assert.False(t, CanViewTask(otherOrg, nil, project))
}

func TestVisibility_TeamScoped(t *testing.T) {
	teamID := uuid.New()
	project := orgProject(uuid.New())
	project.Visibility = models.VisibilityTeam
	project.TeamID = &teamID

	onTeam := activeUser(models.RoleMember)
	onTeam.Teams = []models.TeamMembership{{TeamID: teamID, Role: models.TeamRoleMember}}
	assert.True(t, CanViewTask(onTeam, nil, project))

	offTeam := activeUser(models.RoleMember)
	assert.False(t, CanViewTask(offTeam, nil, project))
}

func TestPrivateProject_NonMemberDenied(t *testing.T) {
	actor := orgUser(models.RoleMember, uuid.New())
	project := orgProject(*actor.OrganizationID)

	assert.False(t, CanViewTask(actor, nil, project))
	assert.False(t, CanEditTask(actor, nil, project))
}
