package usecase

import (
	"cmp"
	"context"
	"log"
	"slices"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/queue"
)

type TaskService struct {
	Repo   entity.TaskRepository
	Events EventPublisher
	now    func() time.Time
}

func NewTaskService(repo entity.TaskRepository, events EventPublisher) *TaskService {
	if events == nil {
		events = queue.NoopPublisher{}
	}
	return &TaskService{Repo: repo, Events: events, now: time.Now}
}

// ScoredTask is a task together with its priority score at ranking time.
type ScoredTask struct {
	*entity.Task
	Score float64 `json:"score"`
}

func (s *TaskService) Create(ctx context.Context, in entity.NewTaskInput) (*entity.Task, error) {
	id, err := s.Repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	task, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [TASKS] created task %d (%s)", task.ID, task.Title)
	s.publish(ctx, EventTaskCreated, task)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*entity.Task, error) {
	return s.Repo.Get(ctx, id)
}

// Update applies upd. Completing a task publishes task.completed instead of
// task.updated.
func (s *TaskService) Update(ctx context.Context, id int64, upd entity.TaskUpdate) (*entity.Task, error) {
	task, err := s.Repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	event := EventTaskUpdated
	if upd.Status != nil && *upd.Status == entity.TaskStatusDone {
		event = EventTaskCompleted
	}
	s.publish(ctx, event, task)
	return task, nil
}

func (s *TaskService) MarkDone(ctx context.Context, id int64) (*entity.Task, error) {
	status := entity.TaskStatusDone
	return s.Update(ctx, id, entity.TaskUpdate{Status: &status})
}

func (s *TaskService) Reopen(ctx context.Context, id int64) (*entity.Task, error) {
	status := entity.TaskStatusOpen
	return s.Update(ctx, id, entity.TaskUpdate{Status: &status})
}

// LogAction records contact with the customer. A zero at means now.
func (s *TaskService) LogAction(ctx context.Context, id int64, at time.Time) (*entity.Task, error) {
	if at.IsZero() {
		at = s.now()
	}
	if err := s.Repo.LogAction(ctx, id, at); err != nil {
		return nil, err
	}

	task, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventTaskActionLogged, task)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, filter entity.TaskFilter) ([]*entity.Task, error) {
	return entity.Collect(s.Repo.List(ctx, filter))
}

// OpenTasks lists unfinished tasks, the next follow-up (or creation time
// when none is scheduled) first.
func (s *TaskService) OpenTasks(ctx context.Context, limit int) ([]*entity.Task, error) {
	return s.List(ctx, entity.TaskFilter{
		ExcludeDone: true,
		OrderBy:     entity.TaskOrderFollowupOrCreated,
		Ascending:   true,
		Limit:       limit,
	})
}

// QuickTasks lists unfinished quick tasks by due date; undated ones last.
func (s *TaskService) QuickTasks(ctx context.Context, limit int) ([]*entity.Task, error) {
	quick := entity.TaskTypeQuick
	return s.List(ctx, entity.TaskFilter{
		Type:        &quick,
		ExcludeDone: true,
		OrderBy:     entity.TaskOrderDueDate,
		Ascending:   true,
		Limit:       limit,
	})
}

// Prioritized ranks unfinished tasks by score, highest first. Equal scores
// keep the oldest task first. A limit of zero returns every task.
func (s *TaskService) Prioritized(ctx context.Context, limit int) ([]ScoredTask, error) {
	if limit < 0 {
		return nil, entity.ValidationError{Field: "limit", Message: "must not be negative"}
	}

	tasks, err := s.List(ctx, entity.TaskFilter{ExcludeDone: true, OrderBy: entity.TaskOrderID, Ascending: true})
	if err != nil {
		return nil, err
	}

	now := s.now()
	ranked := make([]ScoredTask, 0, len(tasks))
	for _, task := range tasks {
		ranked = append(ranked, ScoredTask{Task: task, Score: task.Score(now)})
	}
	slices.SortStableFunc(ranked, func(a, b ScoredTask) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *TaskService) publish(ctx context.Context, eventType string, data any) {
	event := queue.Event{Type: eventType, OccurredAt: s.now().UTC(), Data: data}
	if err := s.Events.Publish(ctx, event); err != nil {
		log.Printf("⚠️ [TASKS] failed to publish %s: %v", eventType, err)
	}
}
