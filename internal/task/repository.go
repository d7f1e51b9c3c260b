package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tracker-service/common/metrics"
	"tracker-service/internal/db"
	"tracker-service/internal/domain"

	"github.com/uptrace/bun"
)

type Repository interface {
	CreateTask(ctx context.Context, t *Task) (*Task, error)
	GetTask(ctx context.Context, id int64) (*Task, error)
	// UpdateTask writes every mutable field except the workflow status.
	UpdateTask(ctx context.Context, t *Task) error
	// UpdateStatus moves a project task from -> to and fails with
	// domain.ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to Status, completedAt *time.Time) error
	DeleteTask(ctx context.Context, id int64) error
	// ListTasksByOwner returns standalone and project tasks in creation order.
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]Task, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]Task, error)

	CreateProject(ctx context.Context, p *Project) (*Project, error)
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID int64) ([]Project, error)
	CountProjectsByOwner(ctx context.Context, ownerID int64) (int, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) CreateTask(ctx context.Context, t *Task) (*Task, error) {
	start := time.Now()
	rec := recordFromTask(t)
	_, err := db.Conn(ctx, r.db).NewInsert().Model(rec).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "tasks", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return rec.toTask()
}

func (r *repository) GetTask(ctx context.Context, id int64) (*Task, error) {
	start := time.Now()
	rec := new(Record)
	err := db.Conn(ctx, r.db).NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "tasks", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return rec.toTask()
}

func (r *repository) UpdateTask(ctx context.Context, t *Task) error {
	start := time.Now()
	t.UpdatedAt = time.Now().UTC()
	rec := recordFromTask(t)

	columns := []string{"title", "description", "subject_id", "due_date", "priority", "updated_at"}
	if !t.Completion.IsStaged() {
		columns = append(columns, "completed", "completed_at")
	}

	res, err := db.Conn(ctx, r.db).NewUpdate().
		Model(rec).
		Column(columns...).
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "tasks", time.Since(start), err)

	if err != nil {
		return err
	}
	return requireAffected(res, fmt.Errorf("%w: task %d", domain.ErrNotFound, t.ID))
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status, completedAt *time.Time) error {
	start := time.Now()
	res, err := db.Conn(ctx, r.db).NewUpdate().
		Model((*Record)(nil)).
		Set("status = ?", string(to)).
		Set("completed_at = ?", completedAt).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", string(from)).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "tasks", time.Since(start), err)

	if err != nil {
		return err
	}
	return requireAffected(res, fmt.Errorf("%w: task %d is no longer %s", domain.ErrConflict, id, from))
}

func (r *repository) DeleteTask(ctx context.Context, id int64) error {
	start := time.Now()
	res, err := db.Conn(ctx, r.db).NewDelete().
		Model((*Record)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "tasks", time.Since(start), err)

	if err != nil {
		return err
	}
	return requireAffected(res, fmt.Errorf("%w: task %d", domain.ErrNotFound, id))
}

func (r *repository) ListTasksByOwner(ctx context.Context, ownerID int64) ([]Task, error) {
	return r.listTasks(ctx, "owner_id = ?", ownerID)
}

func (r *repository) ListTasksByProject(ctx context.Context, projectID int64) ([]Task, error) {
	return r.listTasks(ctx, "project_id = ?", projectID)
}

func (r *repository) listTasks(ctx context.Context, where string, arg int64) ([]Task, error) {
	start := time.Now()
	var records []Record
	err := db.Conn(ctx, r.db).NewSelect().
		Model(&records).
		Where(where, arg).
		Order("id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "tasks", time.Since(start), err)

	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(records))
	for i := range records {
		t, err := records[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (r *repository) CreateProject(ctx context.Context, p *Project) (*Project, error) {
	start := time.Now()
	_, err := db.Conn(ctx, r.db).NewInsert().Model(p).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "projects", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) GetProject(ctx context.Context, id int64) (*Project, error) {
	start := time.Now()
	p := new(Project)
	err := db.Conn(ctx, r.db).NewSelect().Model(p).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "projects", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: project %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) ListProjectsByOwner(ctx context.Context, ownerID int64) ([]Project, error) {
	start := time.Now()
	projects := []Project{}
	err := db.Conn(ctx, r.db).NewSelect().
		Model(&projects).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "projects", time.Since(start), err)

	return projects, err
}

func (r *repository) CountProjectsByOwner(ctx context.Context, ownerID int64) (int, error) {
	start := time.Now()
	count, err := db.Conn(ctx, r.db).NewSelect().
		Model((*Project)(nil)).
		Where("owner_id = ?", ownerID).
		Count(ctx)

	r.metrics.Database.RecordQuery(ctx, "count", "projects", time.Since(start), err)

	return count, err
}

func requireAffected(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}
