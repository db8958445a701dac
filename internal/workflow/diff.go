package workflow

import "github.com/taskhive/taskhive-api/internal/models"

// Change is one discrete field change on a task. A single update touching
// three fields yields three changes, and three history rows downstream.
type Change struct {
	Action string
	Field  string
	Old    string
	New    string
}

// Diff computes the per-field changes between two snapshots of a task.
func Diff(before, after *models.Task) []Change {
	var changes []Change
	if before.Title != after.Title {
		changes = append(changes, Change{models.HistoryFieldChanged, "title", before.Title, after.Title})
	}
	if before.Description != after.Description {
		changes = append(changes, Change{models.HistoryFieldChanged, "description", before.Description, after.Description})
	}
	if before.Status != after.Status {
		changes = append(changes, Change{models.HistoryStatusChanged, "status", before.Status, after.Status})
	}
	if before.Priority != after.Priority {
		changes = append(changes, Change{models.HistoryFieldChanged, "priority", before.Priority, after.Priority})
	}
	return changes
}
