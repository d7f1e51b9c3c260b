package notification

import (
	"context"
	"fmt"

	"tracker-service/internal/domain"
)

type Service interface {
	List(ctx context.Context, caller domain.Identity) ([]Notification, error)
	MarkRead(ctx context.Context, caller domain.Identity, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, caller domain.Identity) ([]Notification, error) {
	if !caller.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrRoleMismatch, caller.Role)
	}
	return s.repo.ListByUser(ctx, caller.UserID, InboxLimit)
}

// MarkRead only touches the caller's own notifications; others read as not found.
func (s *service) MarkRead(ctx context.Context, caller domain.Identity, id int64) error {
	if !caller.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrRoleMismatch, caller.Role)
	}
	return s.repo.MarkRead(ctx, id, caller.UserID)
}
