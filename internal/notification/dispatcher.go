package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tracker-service/internal/metrics"
	"tracker-service/internal/user"
)

// Mailer delivers an email. Delivery is best effort.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outgoing mail to the log instead of an SMTP relay.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "email notification", "to", to, "subject", subject, "body", body)
	return nil
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type ParentLister interface {
	ListParents(ctx context.Context, studentID int64) ([]int64, error)
}

const seenCapacity = 4096

// Dispatcher turns events into inbox entries and emails.
type Dispatcher struct {
	repo    Repository
	users   UserReader
	parents ParentLister
	mailer  Mailer
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	seen map[string]int
	ring []string
	next int
}

func NewDispatcher(repo Repository, users UserReader, parents ParentLister, mailer Mailer, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		repo:    repo,
		users:   users,
		parents: parents,
		mailer:  mailer,
		logger:  logger,
		metrics: m,
		seen:    make(map[string]int, seenCapacity),
		ring:    make([]string, seenCapacity),
	}
}

// Dispatch handles one event. Events already handled are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	if !d.claim(event.ID) {
		d.logger.DebugContext(ctx, "duplicate event skipped", "event_id", event.ID)
		return nil
	}

	var err error
	switch event.Type {
	case EventInviteCreated:
		err = d.inviteCreated(ctx, event)
	case EventInviteAccepted:
		err = d.inviteAccepted(ctx, event)
	case EventTaskCreated:
		err = d.notifyParents(ctx, event.StudentID, "New task created: "+event.Title)
	case EventTaskCompleted:
		err = d.notifyParents(ctx, event.StudentID, "Task completed: "+event.Title)
	case EventProjectTaskCompleted:
		err = d.notifyParents(ctx, event.StudentID, "Project task completed: "+event.Title)
	default:
		d.logger.WarnContext(ctx, "unknown event type", "event_id", event.ID, "event_type", event.Type)
		return nil
	}
	if err != nil {
		d.release(event.ID)
		return fmt.Errorf("dispatch %s %s: %w", event.Type, event.ID, err)
	}

	d.metrics.RecordNotificationDispatched(ctx, string(event.Type))
	return nil
}

func (d *Dispatcher) inviteCreated(ctx context.Context, event Event) error {
	if event.ParentEmail == "" {
		return nil
	}
	student, err := d.users.GetByID(ctx, event.StudentID)
	if err != nil {
		return err
	}
	return d.mailer.Send(ctx, event.ParentEmail,
		"School Work Tracker - Invitation from "+student.Name,
		fmt.Sprintf("You've been invited by %s to track their school work. Use invite code: %s", student.Name, event.Code),
	)
}

func (d *Dispatcher) inviteAccepted(ctx context.Context, event Event) error {
	parent, err := d.users.GetByID(ctx, event.ParentID)
	if err != nil {
		return err
	}
	_, err = d.repo.Create(ctx, &Notification{
		UserID:  event.StudentID,
		Title:   "Parent Connected",
		Message: parent.Name + " is now following your progress",
		Type:    TypeLink,
	})
	return err
}

func (d *Dispatcher) notifyParents(ctx context.Context, studentID int64, text string) error {
	parentIDs, err := d.parents.ListParents(ctx, studentID)
	if err != nil {
		return err
	}
	if len(parentIDs) == 0 {
		return nil
	}

	student, err := d.users.GetByID(ctx, studentID)
	if err != nil {
		return err
	}

	for _, parentID := range parentIDs {
		parent, err := d.users.GetByID(ctx, parentID)
		if err != nil {
			d.logger.WarnContext(ctx, "linked parent not found", "parent_id", parentID, "error", err)
			continue
		}

		if _, err := d.repo.Create(ctx, &Notification{
			UserID:  parent.ID,
			Title:   "Student Update",
			Message: student.Name + ": " + text,
			Type:    TypeTaskUpdate,
		}); err != nil {
			return err
		}

		if err := d.mailer.Send(ctx, parent.Email, "School Work Update - "+student.Name, text); err != nil {
			d.logger.WarnContext(ctx, "failed to send email", "to", parent.Email, "error", err)
		}
	}
	return nil
}

// claim records id as handled and reports whether it was new. An empty id
// is never deduplicated.
func (d *Dispatcher) claim(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return false
	}
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.seen[id] = d.next
	d.next = (d.next + 1) % len(d.ring)
	return true
}

// release forgets a claimed id so a redelivery is handled again.
func (d *Dispatcher) release(id string) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if slot, ok := d.seen[id]; ok {
		delete(d.seen, id)
		d.ring[slot] = ""
	}
}
