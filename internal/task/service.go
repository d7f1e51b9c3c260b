package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tracker-service/internal/db"
	"tracker-service/internal/domain"
	"tracker-service/internal/notification"
	"tracker-service/internal/subject"

	"github.com/go-playground/validator/v10"
)

type SubjectReader interface {
	GetOwned(ctx context.Context, ownerID, subjectID int64) (*subject.Subject, error)
}

type LinkReader interface {
	ListStudents(ctx context.Context, parentID int64) ([]int64, error)
	IsLinked(ctx context.Context, parentID, studentID int64) (bool, error)
}

type Service interface {
	CreateTask(ctx context.Context, caller domain.Identity, req CreateTaskRequest) (*Task, error)
	UpdateTask(ctx context.Context, caller domain.Identity, taskID int64, req UpdateTaskRequest) (*Task, error)
	SetCompleted(ctx context.Context, caller domain.Identity, taskID int64, value bool) (*Task, error)
	DeleteTask(ctx context.Context, caller domain.Identity, taskID int64) error
	// ListTasks returns standalone tasks: the caller's own, or those of every linked student.
	ListTasks(ctx context.Context, caller domain.Identity) ([]Task, error)
	// TasksForOwner returns every task of ownerID in creation order.
	TasksForOwner(ctx context.Context, caller domain.Identity, ownerID int64) ([]Task, error)

	CreateProject(ctx context.Context, caller domain.Identity, req CreateProjectRequest) (*Project, error)
	ListProjects(ctx context.Context, caller domain.Identity) ([]Project, error)
	CreateProjectTask(ctx context.Context, caller domain.Identity, projectID int64, req CreateProjectTaskRequest) (*Task, error)
	TasksForProject(ctx context.Context, caller domain.Identity, projectID int64) ([]Task, error)
	UpdateProjectTask(ctx context.Context, caller domain.Identity, projectID, taskID int64, req UpdateProjectTaskRequest) (*Task, error)
	MoveStatus(ctx context.Context, caller domain.Identity, taskID int64, target Status) (*Task, error)
}

type service struct {
	repo      Repository
	subjects  SubjectReader
	links     LinkReader
	tx        db.TxRunner
	publisher notification.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, subjects SubjectReader, links LinkReader, tx db.TxRunner, publisher notification.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		subjects:  subjects,
		links:     links,
		tx:        tx,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateTask(ctx context.Context, caller domain.Identity, req CreateTaskRequest) (*Task, error) {
	if err := domain.RequireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	priority, err := ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	if _, err := s.subjects.GetOwned(ctx, caller.UserID, req.SubjectID); err != nil {
		return nil, err
	}

	subjectID := req.SubjectID
	created, err := s.repo.CreateTask(ctx, &Task{
		OwnerID:     caller.UserID,
		SubjectID:   &subjectID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		Completion:  Binary(false),
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.EventTaskCreated, created)
	return created, nil
}

func (s *service) UpdateTask(ctx context.Context, caller domain.Identity, taskID int64, req UpdateTaskRequest) (*Task, error) {
	req.Title = trimmed(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var (
		updated    *Task
		becameDone bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.ownedTask(ctx, caller, taskID)
		if err != nil {
			return err
		}
		if t.ProjectID != nil {
			if req.Completed != nil {
				_, err := t.Completion.SetCompleted(*req.Completed)
				return err
			}
			return fmt.Errorf("%w: task %d belongs to project %d", domain.ErrNotFound, taskID, *t.ProjectID)
		}

		if req.Title != nil {
			t.Title = *req.Title
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		if req.DueDate != nil {
			t.DueDate = req.DueDate
		}
		if req.Priority != nil {
			if t.Priority, err = ParsePriority(*req.Priority); err != nil {
				return err
			}
		}
		if req.SubjectID != nil {
			if _, err := s.subjects.GetOwned(ctx, caller.UserID, *req.SubjectID); err != nil {
				return err
			}
			subjectID := *req.SubjectID
			t.SubjectID = &subjectID
		}
		if req.Completed != nil {
			if becameDone, err = s.applyCompleted(t, *req.Completed); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateTask(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameDone {
		s.notify(ctx, notification.EventTaskCompleted, updated)
	}
	return updated, nil
}

func (s *service) SetCompleted(ctx context.Context, caller domain.Identity, taskID int64, value bool) (*Task, error) {
	return s.UpdateTask(ctx, caller, taskID, UpdateTaskRequest{Completed: &value})
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// applyCompleted reports whether the task went from pending to completed.
func (s *service) applyCompleted(t *Task, value bool) (bool, error) {
	wasDone := t.Completion.IsDone()
	next, err := t.Completion.SetCompleted(value)
	if err != nil {
		return false, err
	}
	t.Completion = next

	switch {
	case value && !wasDone:
		now := s.now()
		t.CompletedAt = &now
		return true, nil
	case !value:
		t.CompletedAt = nil
	}
	return false, nil
}

func (s *service) DeleteTask(ctx context.Context, caller domain.Identity, taskID int64) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.ownedTask(ctx, caller, taskID)
		if err != nil {
			return err
		}
		if t.ProjectID != nil {
			return fmt.Errorf("%w: task %d belongs to project %d", domain.ErrInvalidInput, taskID, *t.ProjectID)
		}
		return s.repo.DeleteTask(ctx, taskID)
	})
}

func (s *service) ListTasks(ctx context.Context, caller domain.Identity) ([]Task, error) {
	owners, err := s.visibleOwners(ctx, caller)
	if err != nil {
		return nil, err
	}

	tasks := []Task{}
	for _, ownerID := range owners {
		owned, err := s.repo.ListTasksByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		for _, t := range owned {
			if t.ProjectID == nil {
				tasks = append(tasks, t)
			}
		}
	}
	return tasks, nil
}

func (s *service) TasksForOwner(ctx context.Context, caller domain.Identity, ownerID int64) ([]Task, error) {
	if err := s.canRead(ctx, caller, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListTasksByOwner(ctx, ownerID)
}

func (s *service) CreateProject(ctx context.Context, caller domain.Identity, req CreateProjectRequest) (*Project, error) {
	if err := domain.RequireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, err := s.subjects.GetOwned(ctx, caller.UserID, req.SubjectID); err != nil {
		return nil, err
	}

	return s.repo.CreateProject(ctx, &Project{
		OwnerID:     caller.UserID,
		SubjectID:   req.SubjectID,
		Name:        req.Name,
		Description: req.Description,
	})
}

func (s *service) ListProjects(ctx context.Context, caller domain.Identity) ([]Project, error) {
	owners, err := s.visibleOwners(ctx, caller)
	if err != nil {
		return nil, err
	}

	projects := []Project{}
	for _, ownerID := range owners {
		owned, err := s.repo.ListProjectsByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		projects = append(projects, owned...)
	}
	return projects, nil
}

func (s *service) CreateProjectTask(ctx context.Context, caller domain.Identity, projectID int64, req CreateProjectTaskRequest) (*Task, error) {
	if err := domain.RequireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}

	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != caller.UserID {
		return nil, fmt.Errorf("%w: project %d belongs to another student", domain.ErrOwnershipViolation, projectID)
	}

	t := &Task{
		OwnerID:     project.OwnerID,
		SubjectID:   &project.SubjectID,
		ProjectID:   &project.ID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		Completion:  Staged(status),
	}
	if status == StatusDone {
		now := s.now()
		t.CompletedAt = &now
	}
	return s.repo.CreateTask(ctx, t)
}

func (s *service) TasksForProject(ctx context.Context, caller domain.Identity, projectID int64) ([]Task, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, caller, project.OwnerID); err != nil {
		return nil, err
	}
	return s.repo.ListTasksByProject(ctx, projectID)
}

func (s *service) UpdateProjectTask(ctx context.Context, caller domain.Identity, projectID, taskID int64, req UpdateProjectTaskRequest) (*Task, error) {
	req.Title = trimmed(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var (
		updated    *Task
		becameDone bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.ownedTask(ctx, caller, taskID)
		if err != nil {
			return err
		}
		if t.ProjectID == nil || *t.ProjectID != projectID {
			return fmt.Errorf("%w: task %d in project %d", domain.ErrNotFound, taskID, projectID)
		}

		if req.Title != nil || req.Description != nil || req.DueDate != nil {
			if req.Title != nil {
				t.Title = *req.Title
			}
			if req.Description != nil {
				t.Description = *req.Description
			}
			if req.DueDate != nil {
				t.DueDate = req.DueDate
			}
			if err := s.repo.UpdateTask(ctx, t); err != nil {
				return err
			}
		}

		if req.Status != nil {
			if becameDone, err = s.move(ctx, t, Status(*req.Status)); err != nil {
				return err
			}
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameDone {
		s.notify(ctx, notification.EventProjectTaskCompleted, updated)
	}
	return updated, nil
}

func (s *service) MoveStatus(ctx context.Context, caller domain.Identity, taskID int64, target Status) (*Task, error) {
	t, err := s.ownedTask(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	becameDone, err := s.move(ctx, t, target)
	if err != nil {
		return nil, err
	}

	if becameDone {
		s.notify(ctx, notification.EventProjectTaskCompleted, t)
	}
	return t, nil
}

// move applies one workflow step to t against the status it was loaded with.
func (s *service) move(ctx context.Context, t *Task, target Status) (bool, error) {
	current, _ := t.Completion.Status()
	next, err := t.Completion.Move(target)
	if err != nil {
		return false, err
	}
	if next == t.Completion {
		return false, nil
	}

	var completedAt *time.Time
	if target == StatusDone {
		now := s.now()
		completedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, t.ID, current, target, completedAt); err != nil {
		return false, err
	}

	t.Completion = next
	t.CompletedAt = completedAt
	t.UpdatedAt = s.now()
	return target == StatusDone, nil
}

func (s *service) ownedTask(ctx context.Context, caller domain.Identity, taskID int64) (*Task, error) {
	if err := domain.RequireRole(caller, domain.RoleStudent); err != nil {
		return nil, err
	}
	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != caller.UserID {
		return nil, fmt.Errorf("%w: task %d belongs to another student", domain.ErrOwnershipViolation, taskID)
	}
	return t, nil
}

// canRead allows the owner and parents linked to the owner.
func (s *service) canRead(ctx context.Context, caller domain.Identity, ownerID int64) error {
	switch caller.Role {
	case domain.RoleStudent:
		if caller.UserID != ownerID {
			return fmt.Errorf("%w: records of student %d", domain.ErrOwnershipViolation, ownerID)
		}
		return nil
	case domain.RoleParent:
		linked, err := s.links.IsLinked(ctx, caller.UserID, ownerID)
		if err != nil {
			return err
		}
		if !linked {
			return fmt.Errorf("%w: student %d is not linked", domain.ErrOwnershipViolation, ownerID)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", domain.ErrRoleMismatch, caller.Role)
	}
}

func (s *service) visibleOwners(ctx context.Context, caller domain.Identity) ([]int64, error) {
	switch caller.Role {
	case domain.RoleStudent:
		return []int64{caller.UserID}, nil
	case domain.RoleParent:
		return s.links.ListStudents(ctx, caller.UserID)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrRoleMismatch, caller.Role)
	}
}

func (s *service) notify(ctx context.Context, eventType notification.EventType, t *Task) {
	event := notification.NewEvent(eventType, t.OwnerID)
	event.Title = t.Title
	notification.Notify(ctx, s.publisher, s.logger, event)
}
