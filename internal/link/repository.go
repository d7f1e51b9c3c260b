package link

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
	// Insert adds the edge unless the pair already exists and returns the stored edge.
	Insert(ctx context.Context, parentID, studentID int64) (*Edge, bool, error)
	Get(ctx context.Context, parentID, studentID int64) (*Edge, error)
	ListByParent(ctx context.Context, parentID int64) ([]Edge, error)
	ListByStudent(ctx context.Context, studentID int64) ([]Edge, error)
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

func (r *repository) Insert(ctx context.Context, parentID, studentID int64) (*Edge, bool, error) {
	start := time.Now()
	edge := &Edge{ParentID: parentID, StudentID: studentID}
	res, err := db.Conn(ctx, r.db).NewInsert().
		Model(edge).
		On("CONFLICT (parent_id, student_id) DO NOTHING").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "link_edges", time.Since(start), err)

	if err != nil {
		return nil, false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	stored, err := r.Get(ctx, parentID, studentID)
	if err != nil {
		return nil, false, err
	}
	return stored, affected > 0, nil
}

func (r *repository) Get(ctx context.Context, parentID, studentID int64) (*Edge, error) {
	start := time.Now()
	edge := new(Edge)
	err := db.Conn(ctx, r.db).NewSelect().
		Model(edge).
		Where("parent_id = ?", parentID).
		Where("student_id = ?", studentID).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "link_edges", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: parent %d is not linked to student %d", domain.ErrNotFound, parentID, studentID)
		}
		return nil, err
	}
	return edge, nil
}

func (r *repository) ListByParent(ctx context.Context, parentID int64) ([]Edge, error) {
	start := time.Now()
	edges := []Edge{}
	err := db.Conn(ctx, r.db).NewSelect().
		Model(&edges).
		Where("parent_id = ?", parentID).
		Order("id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "link_edges", time.Since(start), err)

	return edges, err
}

func (r *repository) ListByStudent(ctx context.Context, studentID int64) ([]Edge, error) {
	start := time.Now()
	edges := []Edge{}
	err := db.Conn(ctx, r.db).NewSelect().
		Model(&edges).
		Where("student_id = ?", studentID).
		Order("id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "link_edges", time.Since(start), err)

	return edges, err
}
