package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the business counters of the tracker.
type Metrics struct {
	usersRegistered         metric.Int64Counter
	tasksCreated            metric.Int64Counter
	tasksCompleted          metric.Int64Counter
	statusMoves             metric.Int64Counter
	projectsCreated         metric.Int64Counter
	invitesCreated          metric.Int64Counter
	invitesAccepted         metric.Int64Counter
	invitesRejected         metric.Int64Counter
	dashboardViews          metric.Int64Counter
	notificationsDispatched metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	counters := []struct {
		dst         *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.usersRegistered, "tracker.users.registered", "Accounts registered, by role", "{user}"},
		{&m.tasksCreated, "tracker.tasks.created", "Tasks created, standalone or in a project", "{task}"},
		{&m.tasksCompleted, "tracker.tasks.completed", "Tasks marked completed", "{task}"},
		{&m.statusMoves, "tracker.tasks.status_moves", "Project task status moves, by target status", "{move}"},
		{&m.projectsCreated, "tracker.projects.created", "Projects created", "{project}"},
		{&m.invitesCreated, "tracker.invites.created", "Invite codes issued", "{invite}"},
		{&m.invitesAccepted, "tracker.invites.accepted", "Invite codes accepted", "{invite}"},
		{&m.invitesRejected, "tracker.invites.rejected", "Invite acceptances rejected, by reason", "{invite}"},
		{&m.dashboardViews, "tracker.dashboard.views", "Parent dashboard reads", "{view}"},
		{&m.notificationsDispatched, "tracker.notifications.dispatched", "Notifications dispatched, by event type", "{notification}"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	return m, nil
}

func add(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *Metrics) RecordUserRegistered(ctx context.Context, role string) {
	if m != nil {
		add(ctx, m.usersRegistered, attribute.String("role", role))
	}
}

func (m *Metrics) RecordTaskCreated(ctx context.Context, inProject bool) {
	if m != nil {
		add(ctx, m.tasksCreated, attribute.Bool("project", inProject))
	}
}

func (m *Metrics) RecordTaskCompleted(ctx context.Context, inProject bool) {
	if m != nil {
		add(ctx, m.tasksCompleted, attribute.Bool("project", inProject))
	}
}

func (m *Metrics) RecordStatusMove(ctx context.Context, target string) {
	if m == nil {
		return
	}
	add(ctx, m.statusMoves, attribute.String("target", target))
	if target == "done" {
		add(ctx, m.tasksCompleted, attribute.Bool("project", true))
	}
}

func (m *Metrics) RecordProjectCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.projectsCreated)
	}
}

func (m *Metrics) RecordInviteCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.invitesCreated)
	}
}

func (m *Metrics) RecordInviteAccepted(ctx context.Context) {
	if m != nil {
		add(ctx, m.invitesAccepted)
	}
}

func (m *Metrics) RecordInviteRejected(ctx context.Context, reason string) {
	if m != nil {
		add(ctx, m.invitesRejected, attribute.String("reason", reason))
	}
}

func (m *Metrics) RecordDashboardViewed(ctx context.Context) {
	if m != nil {
		add(ctx, m.dashboardViews)
	}
}

func (m *Metrics) RecordNotificationDispatched(ctx context.Context, eventType string) {
	if m != nil {
		add(ctx, m.notificationsDispatched, attribute.String("event_type", eventType))
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{}
}
