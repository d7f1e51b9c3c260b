package memstore

import (
	"context"
	"fmt"
	"time"

	"tracker-service/internal/domain"
	"tracker-service/internal/task"
)

type tasks struct{ s *Store }

func copyTask(t task.Task) task.Task {
	t.SubjectID = clonePtr(t.SubjectID)
	t.ProjectID = clonePtr(t.ProjectID)
	t.DueDate = clonePtr(t.DueDate)
	t.CompletedAt = clonePtr(t.CompletedAt)
	return t
}

func (r *tasks) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	defer r.s.lock(ctx)()

	now := r.s.now()
	t.ID = r.s.nextID("tasks")
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	r.s.data.tasks[t.ID] = copyTask(*t)
	return t, nil
}

func (r *tasks) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.data.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	t = copyTask(t)
	return &t, nil
}

func (r *tasks) UpdateTask(ctx context.Context, t *task.Task) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.data.tasks[t.ID]
	if !ok {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, t.ID)
	}

	t.UpdatedAt = r.s.now()
	next := copyTask(*t)
	next.OwnerID = stored.OwnerID
	next.ProjectID = stored.ProjectID
	next.CreatedAt = stored.CreatedAt
	if stored.Completion.IsStaged() {
		next.Completion = stored.Completion
		next.CompletedAt = stored.CompletedAt
	}
	r.s.data.tasks[t.ID] = next
	return nil
}

func (r *tasks) UpdateStatus(ctx context.Context, id int64, from, to task.Status, completedAt *time.Time) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.data.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	if current, staged := stored.Completion.Status(); !staged || current != from {
		return fmt.Errorf("%w: task %d is no longer %s", domain.ErrConflict, id, from)
	}

	stored.Completion = task.Staged(to)
	stored.CompletedAt = clonePtr(completedAt)
	stored.UpdatedAt = r.s.now()
	r.s.data.tasks[id] = stored
	return nil
}

func (r *tasks) DeleteTask(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.tasks[id]; !ok {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	delete(r.s.data.tasks, id)
	return nil
}

func (r *tasks) ListTasksByOwner(ctx context.Context, ownerID int64) ([]task.Task, error) {
	return r.list(ctx, func(t task.Task) bool { return t.OwnerID == ownerID }), nil
}

func (r *tasks) ListTasksByProject(ctx context.Context, projectID int64) ([]task.Task, error) {
	return r.list(ctx, func(t task.Task) bool {
		return t.ProjectID != nil && *t.ProjectID == projectID
	}), nil
}

func (r *tasks) list(ctx context.Context, keep func(task.Task) bool) []task.Task {
	defer r.s.lock(ctx)()

	out := ordered(r.s.data.tasks, keep)
	for i := range out {
		out[i] = copyTask(out[i])
	}
	return out
}

func (r *tasks) CreateProject(ctx context.Context, p *task.Project) (*task.Project, error) {
	defer r.s.lock(ctx)()

	p.ID = r.s.nextID("projects")
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.s.now()
	}
	r.s.data.projects[p.ID] = *p
	return p, nil
}

func (r *tasks) GetProject(ctx context.Context, id int64) (*task.Project, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.data.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %d", domain.ErrNotFound, id)
	}
	return &p, nil
}

func (r *tasks) ListProjectsByOwner(ctx context.Context, ownerID int64) ([]task.Project, error) {
	defer r.s.lock(ctx)()

	return ordered(r.s.data.projects, func(p task.Project) bool { return p.OwnerID == ownerID }), nil
}

func (r *tasks) CountProjectsByOwner(ctx context.Context, ownerID int64) (int, error) {
	projects, err := r.ListProjectsByOwner(ctx, ownerID)
	return len(projects), err
}
