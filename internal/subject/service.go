package subject

import (
	"context"
	"fmt"
	"strings"

	"tracker-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

// LinkReader resolves the students a parent may observe.
type LinkReader interface {
	ListStudents(ctx context.Context, parentID int64) ([]int64, error)
}

type Service interface {
	Create(ctx context.Context, caller domain.Identity, name, color string) (*Subject, error)
	List(ctx context.Context, caller domain.Identity) ([]Subject, error)
	// GetOwned loads a subject and checks it belongs to ownerID.
	GetOwned(ctx context.Context, ownerID, subjectID int64) (*Subject, error)
	SeedDefaults(ctx context.Context, studentID int64) error
}

type service struct {
	repo     Repository
	links    LinkReader
	validate *validator.Validate
}

func NewService(repo Repository, links LinkReader) Service {
	return &service{
		repo:     repo,
		links:    links,
		validate: validator.New(),
	}
}

func (s *service) Create(ctx context.Context, caller domain.Identity, name, color string) (*Subject, error) {
	if err := domain.RequireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}

	req := CreateSubjectRequest{Name: strings.TrimSpace(name), Color: strings.ToUpper(strings.TrimSpace(color))}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	return s.repo.Create(ctx, &Subject{
		OwnerID: caller.UserID,
		Name:    req.Name,
		Color:   req.Color,
	})
}

func (s *service) List(ctx context.Context, caller domain.Identity) ([]Subject, error) {
	switch caller.Role {
	case domain.RoleStudent:
		return s.repo.ListByOwner(ctx, caller.UserID)
	case domain.RoleParent:
		studentIDs, err := s.links.ListStudents(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		subjects := []Subject{}
		for _, id := range studentIDs {
			owned, err := s.repo.ListByOwner(ctx, id)
			if err != nil {
				return nil, err
			}
			subjects = append(subjects, owned...)
		}
		return subjects, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrRoleMismatch, caller.Role)
	}
}

func (s *service) GetOwned(ctx context.Context, ownerID, subjectID int64) (*Subject, error) {
	subj, err := s.repo.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subj.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: subject %d belongs to another student", domain.ErrOwnershipViolation, subjectID)
	}
	return subj, nil
}

func (s *service) SeedDefaults(ctx context.Context, studentID int64) error {
	subjects := make([]Subject, 0, len(Defaults))
	for _, d := range Defaults {
		subjects = append(subjects, Subject{OwnerID: studentID, Name: d.Name, Color: d.Color})
	}
	return s.repo.CreateMany(ctx, subjects)
}
