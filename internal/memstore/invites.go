package memstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"tracker-service/internal/domain"
	"tracker-service/internal/invite"
)

type invites struct{ s *Store }

func (r *invites) Create(ctx context.Context, inv *invite.Invite) (*invite.Invite, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.find(inv.Code); ok {
		return nil, invite.ErrDuplicateCode
	}

	inv.ID = r.s.nextID("invites")
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = r.s.now()
	}
	r.s.data.invites[inv.ID] = *inv
	return inv, nil
}

func (r *invites) GetByCode(ctx context.Context, code string) (*invite.Invite, error) {
	defer r.s.lock(ctx)()

	inv, ok := r.find(code)
	if !ok {
		return nil, fmt.Errorf("%w: invite code %q", domain.ErrNotFound, code)
	}
	return &inv, nil
}

func (r *invites) Consume(ctx context.Context, code string, parentID int64, at time.Time) (*invite.Invite, error) {
	defer r.s.lock(ctx)()

	inv, ok := r.find(code)
	if !ok {
		return nil, fmt.Errorf("%w: invite code %q", domain.ErrNotFound, code)
	}
	if inv.Consumed {
		return nil, fmt.Errorf("%w: invite code %q", domain.ErrAlreadyConsumed, code)
	}

	inv.Consumed = true
	inv.ConsumedBy = &parentID
	inv.ConsumedAt = &at
	r.s.data.invites[inv.ID] = inv
	return &inv, nil
}

func (r *invites) find(code string) (invite.Invite, bool) {
	for _, inv := range r.s.data.invites {
		if inv.Code == code {
			return inv, true
		}
	}
	return invite.Invite{}, false
}

func (r *invites) ListByStudent(ctx context.Context, studentID int64) ([]invite.Invite, error) {
	defer r.s.lock(ctx)()

	out := ordered(r.s.data.invites, func(inv invite.Invite) bool { return inv.StudentID == studentID })
	slices.Reverse(out)
	return out, nil
}
