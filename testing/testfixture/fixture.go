// Package testfixture holds helpers shared by service and handler tests.
package testfixture

import (
	"context"
	"sync"
	"testing"

	"tracker-service/internal/domain"
	"tracker-service/internal/notification"
	"tracker-service/internal/user"

	"github.com/stretchr/testify/require"
)

// Publisher records every published event.
type Publisher struct {
	mu     sync.Mutex
	events []notification.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, event notification.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *Publisher) Events() []notification.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notification.Event(nil), p.events...)
}

func (p *Publisher) Types() []notification.EventType {
	events := p.Events()
	types := make([]notification.EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

// User stores a user and returns its identity.
func User(t *testing.T, users user.Repository, email string, role domain.Role) domain.Identity {
	t.Helper()

	u, err := users.Create(context.Background(), &user.User{
		Email: email,
		Name:  email,
		Role:  role,
	})
	require.NoError(t, err)

	return domain.Identity{UserID: u.ID, Role: u.Role}
}
