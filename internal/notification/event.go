package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInviteCreated        EventType = "invite.created"
	EventInviteAccepted       EventType = "invite.accepted"
	EventTaskCreated          EventType = "task.created"
	EventTaskCompleted        EventType = "task.completed"
	EventProjectTaskCompleted EventType = "project_task.completed"
)

// Event is what the tracker emits after a state change. ID is unique per
// occurrence so consumers can drop redeliveries.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	StudentID   int64     `json:"studentId"`
	ParentID    int64     `json:"parentId,omitempty"`
	ParentEmail string    `json:"parentEmail,omitempty"`
	Code        string    `json:"code,omitempty"`
	Title       string    `json:"title,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func NewEvent(eventType EventType, studentID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		StudentID:  studentID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher hands events to a transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Notify publishes event and logs a failure instead of returning it.
// A nil publisher drops the event.
func Notify(ctx context.Context, publisher Publisher, logger *slog.Logger, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"student_id", event.StudentID,
			"error", err,
		)
	}
}

// LocalPublisher dispatches in process, without a broker.
type LocalPublisher struct {
	dispatcher *Dispatcher
}

func NewLocalPublisher(dispatcher *Dispatcher) *LocalPublisher {
	return &LocalPublisher{dispatcher: dispatcher}
}

func (p *LocalPublisher) Publish(ctx context.Context, event Event) error {
	return p.dispatcher.Dispatch(ctx, event)
}
