package services

import "errors"

// Failure taxonomy shared by the task-board services. Unauthorized and
// InvalidTransition are deterministic and never retried; VersionConflict and
// RateLimited are retried inside the write path and only surfaced once the
// attempt budget is spent.
var (
	ErrUnauthorized      = errors.New("actor is not allowed to perform this action")
	ErrInvalidTransition = errors.New("target column does not exist on the project")
	ErrVersionConflict   = errors.New("version conflict: record has been modified")
	ErrColumnInUse       = errors.New("column still has tasks referencing it")
	ErrRateLimited       = errors.New("store is rate limiting writes")

	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrOrgNotFound     = errors.New("organization not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrMemberNotFound    = errors.New("member not found")
	ErrInviteNotFound    = errors.New("invite not found")
	ErrAlreadyMember     = errors.New("user is already a member")
	ErrTeamNameTaken     = errors.New("team name already used in this organization")
	ErrNotAssignable     = errors.New("user is not assignable in this scope")
	ErrAccountNotUsable  = errors.New("account is not active")
	ErrNoFieldsToUpdate  = errors.New("no fields to update")
	ErrCannotRemoveOwner = errors.New("cannot remove the organization owner")
)
