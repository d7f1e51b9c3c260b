package link

import (
	"context"
	"errors"
	"fmt"

	"tracker-service/internal/domain"
	"tracker-service/internal/user"
)

// UserReader is the slice of the user store the registry validates roles against.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type Service interface {
	// AddEdge is idempotent; created is false when the pair was already linked.
	// A role mismatch on either side fails with domain.ErrRoleMismatch.
	AddEdge(ctx context.Context, parentID, studentID int64) (edge *Edge, created bool, err error)
	// ListStudents returns linked student ids in link order, without duplicates.
	ListStudents(ctx context.Context, parentID int64) ([]int64, error)
	ListParents(ctx context.Context, studentID int64) ([]int64, error)
	IsLinked(ctx context.Context, parentID, studentID int64) (bool, error)
}

type service struct {
	repo  Repository
	users UserReader
}

func NewService(repo Repository, users UserReader) Service {
	return &service{
		repo:  repo,
		users: users,
	}
}

func (s *service) AddEdge(ctx context.Context, parentID, studentID int64) (*Edge, bool, error) {
	if err := s.requireRole(ctx, parentID, domain.RoleParent); err != nil {
		return nil, false, err
	}
	if err := s.requireRole(ctx, studentID, domain.RoleStudent); err != nil {
		return nil, false, err
	}

	return s.repo.Insert(ctx, parentID, studentID)
}

func (s *service) requireRole(ctx context.Context, userID int64, role domain.Role) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: user %d does not exist", domain.ErrRoleMismatch, userID)
		}
		return err
	}
	if u.Role != role {
		return fmt.Errorf("%w: user %d is a %s, expected %s", domain.ErrRoleMismatch, userID, u.Role, role)
	}
	return nil
}

func (s *service) ListStudents(ctx context.Context, parentID int64) ([]int64, error) {
	edges, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return uniqueIDs(edges, func(e Edge) int64 { return e.StudentID }), nil
}

func (s *service) ListParents(ctx context.Context, studentID int64) ([]int64, error) {
	edges, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return uniqueIDs(edges, func(e Edge) int64 { return e.ParentID }), nil
}

func (s *service) IsLinked(ctx context.Context, parentID, studentID int64) (bool, error) {
	_, err := s.repo.Get(ctx, parentID, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func uniqueIDs(edges []Edge, pick func(Edge) int64) []int64 {
	ids := make([]int64, 0, len(edges))
	seen := make(map[int64]struct{}, len(edges))
	for _, e := range edges {
		id := pick(e)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
