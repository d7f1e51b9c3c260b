package memstore

import (
	"context"
	"fmt"

	"tracker-service/internal/domain"
	"tracker-service/internal/user"
)

type users struct{ s *Store }

func (r *users) Create(ctx context.Context, u *user.User) (*user.User, error) {
	defer r.s.lock(ctx)()

	email := user.NormalizeEmail(u.Email)
	for _, existing := range r.s.data.users {
		if existing.Email == email {
			return nil, user.ErrEmailTaken
		}
	}

	stored := *u
	stored.ID = r.s.nextID("users")
	stored.Email = email
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.s.now()
	}
	r.s.data.users[stored.ID] = stored

	*u = stored
	return u, nil
}

func (r *users) GetByID(ctx context.Context, id int64) (*user.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return &u, nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	defer r.s.lock(ctx)()

	email = user.NormalizeEmail(email)
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, email)
}

func (r *users) GetByIDs(ctx context.Context, ids []int64) ([]user.User, error) {
	defer r.s.lock(ctx)()

	out := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.data.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
