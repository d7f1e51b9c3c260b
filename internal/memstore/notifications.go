package memstore

import (
	"context"
	"fmt"
	"slices"

	"tracker-service/internal/domain"
	"tracker-service/internal/notification"
)

type notifications struct{ s *Store }

func (r *notifications) Create(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	defer r.s.lock(ctx)()

	n.ID = r.s.nextID("notifications")
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	r.s.data.notifications[n.ID] = *n
	return n, nil
}

// ListByUser orders by id descending, which matches creation order here.
func (r *notifications) ListByUser(ctx context.Context, userID int64, limit int) ([]notification.Notification, error) {
	defer r.s.lock(ctx)()

	out := ordered(r.s.data.notifications, func(n notification.Notification) bool { return n.UserID == userID })
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notifications) MarkRead(ctx context.Context, id, userID int64) error {
	defer r.s.lock(ctx)()

	n, ok := r.s.data.notifications[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
	}
	n.Read = true
	r.s.data.notifications[id] = n
	return nil
}
