package subject

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
	Create(ctx context.Context, s *Subject) (*Subject, error)
	CreateMany(ctx context.Context, subjects []Subject) error
	GetByID(ctx context.Context, id int64) (*Subject, error)
	// ListByOwner returns subjects in creation order.
	ListByOwner(ctx context.Context, ownerID int64) ([]Subject, error)
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

func (r *repository) Create(ctx context.Context, s *Subject) (*Subject, error) {
	start := time.Now()
	_, err := db.Conn(ctx, r.db).NewInsert().Model(s).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "subjects", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repository) CreateMany(ctx context.Context, subjects []Subject) error {
	if len(subjects) == 0 {
		return nil
	}

	start := time.Now()
	_, err := db.Conn(ctx, r.db).NewInsert().Model(&subjects).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "subjects", time.Since(start), err)

	return err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Subject, error) {
	start := time.Now()
	s := new(Subject)
	err := db.Conn(ctx, r.db).NewSelect().Model(s).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "subjects", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: subject %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return s, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID int64) ([]Subject, error) {
	start := time.Now()
	subjects := []Subject{}
	err := db.Conn(ctx, r.db).NewSelect().
		Model(&subjects).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "subjects", time.Since(start), err)

	return subjects, err
}
