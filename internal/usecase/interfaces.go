package usecase

import (
	"context"

	"github.com/xavierca1/sales-operator/internal/infra/queue"
)

// EventPublisher is satisfied by queue.Producer and queue.NoopPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.Event) error
}

const (
	EventLeadCreated       = "lead.created"
	EventLeadStatusChanged = "lead.status_changed"
	EventTaskCreated       = "task.created"
	EventTaskUpdated       = "task.updated"
	EventTaskCompleted     = "task.completed"
	EventTaskActionLogged  = "task.action_logged"
)
