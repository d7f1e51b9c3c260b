package memstore

import (
	"context"
	"fmt"

	"tracker-service/internal/domain"
	"tracker-service/internal/subject"
)

type subjects struct{ s *Store }

func (r *subjects) Create(ctx context.Context, sub *subject.Subject) (*subject.Subject, error) {
	defer r.s.lock(ctx)()

	r.insert(sub)
	return sub, nil
}

func (r *subjects) CreateMany(ctx context.Context, list []subject.Subject) error {
	defer r.s.lock(ctx)()

	for i := range list {
		r.insert(&list[i])
	}
	return nil
}

func (r *subjects) insert(sub *subject.Subject) {
	sub.ID = r.s.nextID("subjects")
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = r.s.now()
	}
	r.s.data.subjects[sub.ID] = *sub
}

func (r *subjects) GetByID(ctx context.Context, id int64) (*subject.Subject, error) {
	defer r.s.lock(ctx)()

	sub, ok := r.s.data.subjects[id]
	if !ok {
		return nil, fmt.Errorf("%w: subject %d", domain.ErrNotFound, id)
	}
	return &sub, nil
}

func (r *subjects) ListByOwner(ctx context.Context, ownerID int64) ([]subject.Subject, error) {
	defer r.s.lock(ctx)()

	return ordered(r.s.data.subjects, func(sub subject.Subject) bool {
		return sub.OwnerID == ownerID
	}), nil
}
