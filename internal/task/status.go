package task

import (
	"fmt"

	"tracker-service/internal/domain"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps "" to medium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, s)
	}
}

// Status is the workflow position of a project task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

var statusOrder = map[Status]int{
	StatusTodo:       0,
	StatusInProgress: 1,
	StatusDone:       2,
}

// ParseStatus maps "" to todo.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusTodo, nil
	}
	if _, ok := statusOrder[Status(s)]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s)
	}
	return Status(s), nil
}

// Adjacent reports whether a move from s to target is one step along todo, in_progress, done.
func (s Status) Adjacent(target Status) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[target]
	if !ok {
		return false
	}
	return from-to == 1 || to-from == 1
}

// Completion is either Binary (standalone task) or Staged (project task).
// The zero value is Binary(false).
type Completion struct {
	staged bool
	done   bool
	status Status
}

func Binary(done bool) Completion {
	return Completion{done: done}
}

func Staged(status Status) Completion {
	return Completion{staged: true, status: status}
}

func (c Completion) IsStaged() bool {
	return c.staged
}

// IsDone is true for Binary(true) and Staged(done).
func (c Completion) IsDone() bool {
	if c.staged {
		return c.status == StatusDone
	}
	return c.done
}

// Status returns the workflow status of a staged completion.
func (c Completion) Status() (Status, bool) {
	return c.status, c.staged
}

// SetCompleted toggles a binary completion.
func (c Completion) SetCompleted(value bool) (Completion, error) {
	if c.staged {
		return c, fmt.Errorf("%w: project tasks move through statuses, not a completed flag", domain.ErrInvalidTransition)
	}
	return Binary(value), nil
}

// Move advances a staged completion by one step. Moving to the current status is a no-op.
func (c Completion) Move(target Status) (Completion, error) {
	if !c.staged {
		return c, fmt.Errorf("%w: standalone tasks have no status", domain.ErrInvalidTransition)
	}
	if _, ok := statusOrder[target]; !ok {
		return c, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, target)
	}
	if target == c.status {
		return c, nil
	}
	if !c.status.Adjacent(target) {
		return c, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, c.status, target)
	}
	return Staged(target), nil
}

func (c Completion) String() string {
	if c.staged {
		return "staged(" + string(c.status) + ")"
	}
	return fmt.Sprintf("binary(%t)", c.done)
}
