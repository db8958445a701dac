package workflow

import (
	"errors"
	"strings"

	"github.com/taskhive/taskhive-api/internal/models"
)

var (
	ErrUnknownColumn   = errors.New("status does not match any column on the project")
	ErrDefaultColumn   = errors.New("default columns cannot be removed")
	ErrDuplicateColumn = errors.New("column already exists on the project")
)

// Default column identifiers. Every project keeps these four; project-less
// personal tasks resolve against them directly.
const (
	ColumnTodo       = "todo"
	ColumnInProgress = "in-progress"
	ColumnReview     = "review"
	ColumnDone       = "done"
)

// DefaultColumns returns a fresh copy of the four fixed workflow stages.
func DefaultColumns() []models.Column {
	return []models.Column{
		{ID: ColumnTodo, Name: "Todo"},
		{ID: ColumnInProgress, Name: "In Progress"},
		{ID: ColumnReview, Name: "Review"},
		{ID: ColumnDone, Name: "Done"},
	}
}

// IsDefault reports whether id is one of the fixed columns.
func IsDefault(id string) bool {
	switch id {
	case ColumnTodo, ColumnInProgress, ColumnReview, ColumnDone:
		return true
	}
	return false
}

// Normalize converts a display-form status ("In Progress") to its canonical
// column identifier ("in-progress"): lowercased, trimmed, whitespace runs
// collapsed to single hyphens. Normalize(Normalize(x)) == Normalize(x).
func Normalize(status string) string {
	return strings.Join(strings.Fields(strings.ToLower(status)), "-")
}

// ColumnsFor returns the project's column set, or the defaults when the
// task has no project or the project declares none.
func ColumnsFor(project *models.Project) []models.Column {
	if project == nil || len(project.Columns) == 0 {
		return DefaultColumns()
	}
	return project.Columns
}

// Resolve matches a status (identifier or display form, case and space
// insensitive) against the column set and returns the canonical identifier.
func Resolve(status string, columns []models.Column) (string, error) {
	n := Normalize(status)
	for _, col := range columns {
		if col.ID == n || Normalize(col.Name) == n {
			return col.ID, nil
		}
	}
	return "", ErrUnknownColumn
}

// Display returns the display name for a column identifier.
func Display(id string, columns []models.Column) (string, error) {
	for _, col := range columns {
		if col.ID == id {
			return col.Name, nil
		}
	}
	return "", ErrUnknownColumn
}

// AddColumn appends a custom column derived from the display name and
// returns the new set. The existing slice is not mutated.
func AddColumn(columns []models.Column, name string) ([]models.Column, models.Column, error) {
	col := models.Column{ID: Normalize(name), Name: strings.TrimSpace(name)}
	if col.ID == "" {
		return nil, models.Column{}, ErrUnknownColumn
	}
	for _, existing := range columns {
		if existing.ID == col.ID {
			return nil, models.Column{}, ErrDuplicateColumn
		}
	}
	out := make([]models.Column, len(columns), len(columns)+1)
	copy(out, columns)
	return append(out, col), col, nil
}

// RemoveColumn drops a custom column and returns the new set. Default
// columns are rejected unconditionally; whether tasks still reference the
// column is the caller's check, since it needs the store.
func RemoveColumn(columns []models.Column, id string) ([]models.Column, error) {
	if IsDefault(id) {
		return nil, ErrDefaultColumn
	}
	out := make([]models.Column, 0, len(columns))
	found := false
	for _, col := range columns {
		if col.ID == id {
			found = true
			continue
		}
		out = append(out, col)
	}
	if !found {
		return nil, ErrUnknownColumn
	}
	return out, nil
}
