package invite

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

// ErrDuplicateCode means the generated code is already taken; generate another.
var ErrDuplicateCode = errors.New("invite code already exists")

type Repository interface {
	Create(ctx context.Context, inv *Invite) (*Invite, error)
	GetByCode(ctx context.Context, code string) (*Invite, error)
	// Consume flips consumed from false to true exactly once. It fails with
	// domain.ErrNotFound for unknown codes and domain.ErrAlreadyConsumed otherwise.
	Consume(ctx context.Context, code string, parentID int64, at time.Time) (*Invite, error)
	// ListByStudent returns the newest invites first.
	ListByStudent(ctx context.Context, studentID int64) ([]Invite, error)
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

func (r *repository) Create(ctx context.Context, inv *Invite) (*Invite, error) {
	start := time.Now()
	_, err := db.Conn(ctx, r.db).NewInsert().Model(inv).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "invites", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return inv, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Invite, error) {
	start := time.Now()
	inv := new(Invite)
	err := db.Conn(ctx, r.db).NewSelect().Model(inv).Where("code = ?", code).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "invites", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: invite code %q", domain.ErrNotFound, code)
		}
		return nil, err
	}
	return inv, nil
}

func (r *repository) Consume(ctx context.Context, code string, parentID int64, at time.Time) (*Invite, error) {
	start := time.Now()
	inv := new(Invite)
	err := db.Conn(ctx, r.db).NewUpdate().
		Model(inv).
		Set("consumed = TRUE").
		Set("consumed_by = ?", parentID).
		Set("consumed_at = ?", at).
		Where("code = ?", code).
		Where("consumed = FALSE").
		Returning("*").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "invites", time.Since(start), err)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err == nil && inv.ID != 0 {
		return inv, nil
	}

	// Lost the swap: tell unknown codes apart from spent ones.
	if _, err := r.GetByCode(ctx, code); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: invite code %q", domain.ErrAlreadyConsumed, code)
}

func (r *repository) ListByStudent(ctx context.Context, studentID int64) ([]Invite, error) {
	start := time.Now()
	invites := []Invite{}
	err := db.Conn(ctx, r.db).NewSelect().
		Model(&invites).
		Where("student_id = ?", studentID).
		Order("id DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "invites", time.Since(start), err)

	return invites, err
}
