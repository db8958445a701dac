// Package permissions resolves what an actor may do to a resource across the
// organization/team/project/task scope chain. Everything here is pure: rules
// evaluate fully loaded snapshots and never touch storage or transport.
package permissions

import (
	"github.com/taskhive/taskhive-api/internal/models"
)

type Action int

const (
	ActionView Action = iota
	ActionCreate
	ActionEdit
	ActionAssign
)

// Request is one permission question: may Actor perform Action on Task
// within the optional Project scope?
type Request struct {
	Actor   *models.User
	Project *models.Project
	Task    *models.Task
	Action  Action
}

type Decision int

const (
	// Skip means the rule does not apply; evaluation moves on.
	Skip Decision = iota
	Allow
	Deny
)

// Rule is one named step in the resolution order. Keeping the precedence as
// an explicit list makes the contract auditable rule by rule.
type Rule struct {
	Name     string
	Evaluate func(Request) Decision
}

// Resolve walks the ordered rule list until a rule answers, then applies the
// viewer ceiling: a global viewer never creates or assigns, no matter which
// scope said yes.
func Resolve(req Request) bool {
	if req.Actor == nil || !req.Actor.IsActive() {
		return false
	}

	allowed := false
	for _, rule := range orderedRules {
		switch rule.Evaluate(req) {
		case Allow:
			allowed = true
		case Deny:
			return false
		case Skip:
			continue
		}
		break
	}

	if allowed && (req.Action == ActionCreate || req.Action == ActionAssign) {
		if req.Actor.Role == models.RoleViewer {
			return false
		}
	}
	return allowed
}

// CanAssignTasks reports whether actor may assign tasks within scope. With
// no scope and no organization the grant still holds, but only for
// self-assignment; AssignableUsers enforces the narrowing.
func CanAssignTasks(actor *models.User, scope *models.Project) bool {
	return Resolve(Request{Actor: actor, Project: scope, Action: ActionAssign})
}

// CanCreateTasks reports whether actor may create tasks within scope.
func CanCreateTasks(actor *models.User, scope *models.Project) bool {
	return Resolve(Request{Actor: actor, Project: scope, Action: ActionCreate})
}

// CanEditTask reports whether actor may mutate the task.
func CanEditTask(actor *models.User, task *models.Task, scope *models.Project) bool {
	return Resolve(Request{Actor: actor, Project: scope, Task: task, Action: ActionEdit})
}

// CanViewTask reports whether actor may read the task.
func CanViewTask(actor *models.User, task *models.Task, scope *models.Project) bool {
	return Resolve(Request{Actor: actor, Project: scope, Task: task, Action: ActionView})
}
