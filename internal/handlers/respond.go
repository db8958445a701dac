package handlers

import (
	"time"

	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

func timeString(t time.Time) string {
	return t.Format(time.RFC3339)
}

func timeStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timeString(*t)
	return &s
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		AvatarURL:      u.AvatarURL,
		Provider:       u.Provider,
		Role:           u.Role,
		Status:         u.Status,
		OrganizationID: u.OrganizationID,
	}
}

func toOrganizationResponse(o *models.Organization) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		ID:                o.ID,
		Name:              o.Name,
		OwnerID:           o.OwnerID,
		DefaultVisibility: o.DefaultVisibility,
		RequireApproval:   o.RequireApproval,
		AdminIDs:          o.AdminIDs,
		CreatedAt:         timeString(o.CreatedAt),
	}
}

func toTeamResponse(t *models.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Name:           t.Name,
		LeadID:         t.LeadID,
		CreatedAt:      timeString(t.CreatedAt),
	}
}

func toProjectResponse(p *models.Project) dto.ProjectResponse {
	columns := make([]dto.ColumnResponse, len(p.Columns))
	for i, col := range p.Columns {
		columns[i] = dto.ColumnResponse{ID: col.ID, Name: col.Name}
	}
	return dto.ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
		TeamID:         p.TeamID,
		Visibility:     p.Visibility,
		Columns:        columns,
		Version:        p.Version,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      timeString(p.CreatedAt),
	}
}

func toTaskResponse(t *models.Task) dto.TaskResponse {
	assignees := make([]dto.AssigneeRef, 0, len(t.Assignees))
	for _, ref := range t.Assignees {
		a := dto.AssigneeRef{ID: ref.ID}
		if ref.User != nil {
			u := toUserResponse(ref.User)
			a.User = &u
		}
		assignees = append(assignees, a)
	}
	return dto.TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedBy:   t.CreatedBy,
		Assignees:   assignees,
		Version:     t.Version,
		CreatedAt:   timeString(t.CreatedAt),
		UpdatedAt:   timeString(t.UpdatedAt),
	}
}

func toTransitionResponse(t *models.Task, entries []models.TaskHistoryEntry) dto.TransitionTaskResponse {
	response := dto.TransitionTaskResponse{Task: toTaskResponse(t)}
	for i := range entries {
		response.History = append(response.History, toHistoryResponse(&entries[i]))
	}
	return response
}

func toHistoryResponse(e *models.TaskHistoryEntry) dto.TaskHistoryResponse {
	return dto.TaskHistoryResponse{
		ID:        e.ID,
		TaskID:    e.TaskID,
		Action:    e.Action,
		Field:     e.Field,
		OldValue:  e.OldValue,
		NewValue:  e.NewValue,
		ActorID:   e.ActorID,
		CreatedAt: timeString(e.CreatedAt),
	}
}
