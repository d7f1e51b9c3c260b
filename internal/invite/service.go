package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tracker-service/internal/db"
	"tracker-service/internal/domain"
	"tracker-service/internal/link"
	"tracker-service/internal/notification"
	"tracker-service/internal/user"

	"github.com/go-playground/validator/v10"
)

type Linker interface {
	AddEdge(ctx context.Context, parentID, studentID int64) (*link.Edge, bool, error)
	IsLinked(ctx context.Context, parentID, studentID int64) (bool, error)
}

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type Service interface {
	Create(ctx context.Context, caller domain.Identity, parentEmail *string) (*Invite, error)
	// Accept consumes code and links the caller to the issuing student.
	// Consumption and linking commit together or not at all.
	Accept(ctx context.Context, caller domain.Identity, code string) (*link.Edge, error)
	ListForStudent(ctx context.Context, caller domain.Identity) ([]Invite, error)
}

type Config struct {
	MaxAttempts int
}

type service struct {
	repo      Repository
	links     Linker
	users     UserLookup
	tx        db.TxRunner
	codes     CodeGenerator
	publisher notification.Publisher
	cfg       Config
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewService(repo Repository, links Linker, users UserLookup, tx db.TxRunner, codes CodeGenerator, publisher notification.Publisher, cfg Config, logger *slog.Logger) Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &service{
		repo:      repo,
		links:     links,
		users:     users,
		tx:        tx,
		codes:     codes,
		publisher: publisher,
		cfg:       cfg,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *service) Create(ctx context.Context, caller domain.Identity, parentEmail *string) (*Invite, error) {
	if err := domain.RequireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}

	email, err := s.normalizeEmail(parentEmail)
	if err != nil {
		return nil, err
	}
	if email != nil {
		if err := s.ensureNotLinked(ctx, *email, caller.UserID); err != nil {
			return nil, err
		}
	}

	var inv *Invite
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}

		inv, err = s.repo.Create(ctx, &Invite{
			Code:        code,
			StudentID:   caller.UserID,
			ParentEmail: email,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "invite code collision, retrying", "attempt", attempt)
		inv = nil
	}
	if inv == nil {
		return nil, fmt.Errorf("failed to allocate a unique invite code after %d attempts", s.cfg.MaxAttempts)
	}

	event := notification.NewEvent(notification.EventInviteCreated, caller.UserID)
	event.Code = inv.Code
	if email != nil {
		event.ParentEmail = *email
	}
	notification.Notify(ctx, s.publisher, s.logger, event)

	return inv, nil
}

func (s *service) normalizeEmail(parentEmail *string) (*string, error) {
	if parentEmail == nil {
		return nil, nil
	}
	email := user.NormalizeEmail(*parentEmail)
	if email == "" {
		return nil, nil
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: parent email %q", domain.ErrInvalidInput, *parentEmail)
	}
	return &email, nil
}

func (s *service) ensureNotLinked(ctx context.Context, email string, studentID int64) error {
	parent, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if parent.Role != domain.RoleParent {
		return nil
	}

	linked, err := s.links.IsLinked(ctx, parent.ID, studentID)
	if err != nil {
		return err
	}
	if linked {
		return fmt.Errorf("%w: %s already follows this student", domain.ErrAlreadyLinked, email)
	}
	return nil
}

func (s *service) Accept(ctx context.Context, caller domain.Identity, code string) (*link.Edge, error) {
	if err := domain.RequireRole(caller, domain.RoleParent); err != nil {
		return nil, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: invite code is required", domain.ErrInvalidInput)
	}

	var edge *link.Edge
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		inv, err := s.repo.Consume(ctx, code, caller.UserID, time.Now().UTC())
		if err != nil {
			return err
		}

		edge, _, err = s.links.AddEdge(ctx, caller.UserID, inv.StudentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	event := notification.NewEvent(notification.EventInviteAccepted, edge.StudentID)
	event.ParentID = caller.UserID
	event.Code = code
	notification.Notify(ctx, s.publisher, s.logger, event)

	return edge, nil
}

func (s *service) ListForStudent(ctx context.Context, caller domain.Identity) ([]Invite, error) {
	if err := domain.RequireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}
	return s.repo.ListByStudent(ctx, caller.UserID)
}
