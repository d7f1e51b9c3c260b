package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Task is either standalone (ProjectID nil, Binary completion) or belongs to
// one project (Staged completion). OwnerID of a project task equals the project's owner.
type Task struct {
	ID          int64
	OwnerID     int64
	SubjectID   *int64
	ProjectID   *int64
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Completion  Completion
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type taskJSON struct {
	ID          int64      `json:"id"`
	StudentID   int64      `json:"studentId"`
	SubjectID   *int64     `json:"subjectId,omitempty"`
	ProjectID   *int64     `json:"projectId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    Priority   `json:"priority"`
	Completed   *bool      `json:"completed,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// MarshalJSON emits "completed" for standalone tasks and "status" for project tasks.
func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{
		ID:          t.ID,
		StudentID:   t.OwnerID,
		SubjectID:   t.SubjectID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if status, ok := t.Completion.Status(); ok {
		out.Status = &status
	} else {
		done := t.Completion.IsDone()
		out.Completed = &done
	}
	return json.Marshal(out)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Task{
		ID:          in.ID,
		OwnerID:     in.StudentID,
		SubjectID:   in.SubjectID,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		CompletedAt: in.CompletedAt,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
	switch {
	case in.Status != nil && in.Completed != nil:
		return fmt.Errorf("task %d carries both completed and status", in.ID)
	case in.Status != nil:
		t.Completion = Staged(*in.Status)
	case in.Completed != nil:
		t.Completion = Binary(*in.Completed)
	}
	return nil
}

// Record is the persisted row of a task. Exactly one of Completed and Status is non-null.
type Record struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          int64      `bun:"id,pk,autoincrement"`
	OwnerID     int64      `bun:"owner_id,notnull"`
	SubjectID   *int64     `bun:"subject_id"`
	ProjectID   *int64     `bun:"project_id"`
	Title       string     `bun:"title,notnull"`
	Description string     `bun:"description,notnull"`
	DueDate     *time.Time `bun:"due_date"`
	Priority    Priority   `bun:"priority,notnull"`
	Completed   *bool      `bun:"completed"`
	Status      *Status    `bun:"status"`
	CompletedAt *time.Time `bun:"completed_at"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func recordFromTask(t *Task) *Record {
	rec := &Record{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		SubjectID:   t.SubjectID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if status, ok := t.Completion.Status(); ok {
		rec.Status = &status
	} else {
		done := t.Completion.IsDone()
		rec.Completed = &done
	}
	return rec
}

func (r *Record) toTask() (*Task, error) {
	t := &Task{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		SubjectID:   r.SubjectID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    r.Priority,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	switch {
	case r.Status != nil && r.Completed == nil && r.ProjectID != nil:
		t.Completion = Staged(*r.Status)
	case r.Completed != nil && r.Status == nil && r.ProjectID == nil:
		t.Completion = Binary(*r.Completed)
	default:
		return nil, fmt.Errorf("task %d has inconsistent completion columns", r.ID)
	}
	return t, nil
}

type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	OwnerID     int64     `bun:"owner_id,notnull" json:"studentId"`
	SubjectID   int64     `bun:"subject_id,notnull" json:"subjectId"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description,notnull" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	SubjectID   int64      `json:"subjectId" validate:"required,gt=0"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	SubjectID   *int64     `json:"subjectId" validate:"omitempty,gt=0"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Completed   *bool      `json:"completed"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	SubjectID   int64  `json:"subjectId" validate:"required,gt=0"`
}

type CreateProjectTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
}

type UpdateProjectTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status" validate:"omitempty,oneof=todo in_progress done"`
}
