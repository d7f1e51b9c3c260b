package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tracker-service/internal/db"
	"tracker-service/internal/domain"
	"tracker-service/internal/user"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

type UserStore interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// SubjectSeeder gives a new student the default subject catalog.
type SubjectSeeder interface {
	SeedDefaults(ctx context.Context, studentID int64) error
}

type Service struct {
	users  UserStore
	seeder SubjectSeeder
	tx     db.TxRunner
	tokens *TokenIssuer
}

func NewService(users UserStore, seeder SubjectSeeder, tx db.TxRunner, tokens *TokenIssuer) *Service {
	return &Service{
		users:  users,
		seeder: seeder,
		tx:     tx,
		tokens: tokens,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var created *user.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
			return ErrEmailExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		created, err = s.users.Create(ctx, &user.User{
			Email:        req.Email,
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: string(hash),
			Role:         role,
		})
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				return ErrEmailExists
			}
			return err
		}

		if role == domain.RoleStudent {
			return s.seeder.SeedDefaults(ctx, created.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.respond(created)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.respond(u)
}

func (s *Service) Me(ctx context.Context, caller domain.Identity) (*user.User, error) {
	return s.users.GetByID(ctx, caller.UserID)
}

func (s *Service) respond(u *user.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        u,
	}, nil
}
