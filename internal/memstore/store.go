// Package memstore keeps every record in process memory. It backs the
// "memory" database driver and the service tests.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"tracker-service/internal/invite"
	"tracker-service/internal/link"
	"tracker-service/internal/notification"
	"tracker-service/internal/subject"
	"tracker-service/internal/task"
	"tracker-service/internal/user"
)

type state struct {
	seq           map[string]int64
	users         map[int64]user.User
	subjects      map[int64]subject.Subject
	tasks         map[int64]task.Task
	projects      map[int64]task.Project
	invites       map[int64]invite.Invite
	edges         map[int64]link.Edge
	notifications map[int64]notification.Notification
}

func newState() state {
	return state{
		seq:           map[string]int64{},
		users:         map[int64]user.User{},
		subjects:      map[int64]subject.Subject{},
		tasks:         map[int64]task.Task{},
		projects:      map[int64]task.Project{},
		invites:       map[int64]invite.Invite{},
		edges:         map[int64]link.Edge{},
		notifications: map[int64]notification.Notification{},
	}
}

func (s state) clone() state {
	return state{
		seq:           maps.Clone(s.seq),
		users:         maps.Clone(s.users),
		subjects:      maps.Clone(s.subjects),
		tasks:         maps.Clone(s.tasks),
		projects:      maps.Clone(s.projects),
		invites:       maps.Clone(s.invites),
		edges:         maps.Clone(s.edges),
		notifications: maps.Clone(s.notifications),
	}
}

// Store is safe for concurrent use. Transactions run one at a time and are
// rolled back by restoring a snapshot. Access from outside a transaction waits
// for the running one to finish, so a rollback only undoes its own writes.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data state
	now  func() time.Time
}

func New() *Store {
	return &Store{
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// lock guards one repository call and returns its unlock. Outside a
// transaction the call also holds txMu, as a single-statement transaction.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}

	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) nextID(table string) int64 {
	s.data.seq[table]++
	return s.data.seq[table]
}

func (s *Store) Users() user.Repository                 { return &users{s} }
func (s *Store) Subjects() subject.Repository           { return &subjects{s} }
func (s *Store) Tasks() task.Repository                 { return &tasks{s} }
func (s *Store) Invites() invite.Repository             { return &invites{s} }
func (s *Store) Links() link.Repository                 { return &links{s} }
func (s *Store) Notifications() notification.Repository { return &notifications{s} }

// ordered returns the values of m whose id passes keep, sorted by id.
func ordered[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
