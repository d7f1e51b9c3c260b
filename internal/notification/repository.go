package notification

import (
	"context"
	"fmt"
	"time"

	"tracker-service/common/metrics"
	"tracker-service/internal/db"
	"tracker-service/internal/domain"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) (*Notification, error)
	// ListByUser returns the newest notifications first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
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

func (r *repository) Create(ctx context.Context, n *Notification) (*Notification, error) {
	start := time.Now()
	_, err := db.Conn(ctx, r.db).NewInsert().Model(n).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "notifications", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	start := time.Now()
	notifications := []Notification{}
	err := db.Conn(ctx, r.db).NewSelect().
		Model(&notifications).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "notifications", time.Since(start), err)

	return notifications, err
}

func (r *repository) MarkRead(ctx context.Context, id, userID int64) error {
	start := time.Now()
	res, err := db.Conn(ctx, r.db).NewUpdate().
		Model((*Notification)(nil)).
		Set("is_read = TRUE").
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "notifications", time.Since(start), err)

	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
	}
	return nil
}
