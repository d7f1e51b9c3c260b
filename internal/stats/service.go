package stats

import (
	"context"
	"fmt"

	"tracker-service/internal/domain"
	"tracker-service/internal/task"
	"tracker-service/internal/user"
)

type TaskReader interface {
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]task.Task, error)
	CountProjectsByOwner(ctx context.Context, ownerID int64) (int, error)
}

type LinkReader interface {
	ListStudents(ctx context.Context, parentID int64) ([]int64, error)
	IsLinked(ctx context.Context, parentID, studentID int64) (bool, error)
}

type UserReader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]user.User, error)
}

// StudentStats is one row of the parent dashboard.
type StudentStats struct {
	Student user.Summary `json:"student"`
	Stats   Stats        `json:"stats"`
}

type Service interface {
	Compute(ctx context.Context, studentID int64) (Stats, error)
	// ForViewer lets a student read their own stats and a parent read a linked student's.
	ForViewer(ctx context.Context, caller domain.Identity, studentID int64) (Stats, error)
	// Dashboard lists every linked student with fresh stats, in link order.
	Dashboard(ctx context.Context, caller domain.Identity) ([]StudentStats, error)
}

type service struct {
	tasks TaskReader
	links LinkReader
	users UserReader
}

func NewService(tasks TaskReader, links LinkReader, users UserReader) Service {
	return &service{
		tasks: tasks,
		links: links,
		users: users,
	}
}

func (s *service) Compute(ctx context.Context, studentID int64) (Stats, error) {
	tasks, err := s.tasks.ListTasksByOwner(ctx, studentID)
	if err != nil {
		return Stats{}, err
	}
	projects, err := s.tasks.CountProjectsByOwner(ctx, studentID)
	if err != nil {
		return Stats{}, err
	}
	return Reduce(tasks, projects), nil
}

func (s *service) ForViewer(ctx context.Context, caller domain.Identity, studentID int64) (Stats, error) {
	switch caller.Role {
	case domain.RoleStudent:
		if caller.UserID != studentID {
			return Stats{}, fmt.Errorf("%w: students only see their own stats", domain.ErrRoleMismatch)
		}
	case domain.RoleParent:
		linked, err := s.links.IsLinked(ctx, caller.UserID, studentID)
		if err != nil {
			return Stats{}, err
		}
		if !linked {
			return Stats{}, fmt.Errorf("%w: student %d is not linked", domain.ErrNotFound, studentID)
		}
	default:
		return Stats{}, fmt.Errorf("%w: unknown role %q", domain.ErrRoleMismatch, caller.Role)
	}
	return s.Compute(ctx, studentID)
}

func (s *service) Dashboard(ctx context.Context, caller domain.Identity) ([]StudentStats, error) {
	if err := domain.RequireRole(caller, domain.RoleParent); err != nil {
		return nil, err
	}

	studentIDs, err := s.links.ListStudents(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	users, err := s.users.GetByIDs(ctx, studentIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*user.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	rows := make([]StudentStats, 0, len(studentIDs))
	for _, id := range studentIDs {
		u, ok := byID[id]
		if !ok || u.Role != domain.RoleStudent {
			continue
		}
		st, err := s.Compute(ctx, id)
		if err != nil {
			return nil, err
		}
		rows = append(rows, StudentStats{Student: u.Summary(), Stats: st})
	}
	return rows, nil
}
