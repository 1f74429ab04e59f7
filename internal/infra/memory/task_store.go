package memory

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
)

// TaskStore keeps tasks in a map. Stored tasks are never handed out
// directly; every read returns a clone.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[int64]*entity.Task
	nextID int64
	now    func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[int64]*entity.Task), now: time.Now}
}

func (s *TaskStore) Create(ctx context.Context, in entity.NewTaskInput) (int64, error) {
	task, err := entity.NewTask(in, s.now())
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	task.ID = s.nextID
	s.tasks[task.ID] = task
	return task.ID, nil
}

func (s *TaskStore) Get(ctx context.Context, id int64) (*entity.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, entity.NotFoundError{Entity: "task", ID: id}
	}
	return task.Clone(), nil
}

// Update applies upd to a copy and swaps it in only when it is valid, so a
// rejected update leaves the stored task untouched.
func (s *TaskStore) Update(ctx context.Context, id int64, upd entity.TaskUpdate) (*entity.Task, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[id]
	if !ok {
		return nil, entity.NotFoundError{Entity: "task", ID: id}
	}

	next := current.Clone()
	if err := next.Apply(upd, s.now()); err != nil {
		return nil, err
	}
	s.tasks[id] = next
	return next.Clone(), nil
}

func (s *TaskStore) LogAction(ctx context.Context, id int64, at time.Time) error {
	if at.IsZero() {
		at = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return entity.NotFoundError{Entity: "task", ID: id}
	}
	stamp := entity.Timestamp(at)
	task.LastActionDate = &stamp
	return nil
}

func (s *TaskStore) List(ctx context.Context, filter entity.TaskFilter) iter.Seq2[*entity.Task, error] {
	return func(yield func(*entity.Task, error) bool) {
		if err := filter.Validate(); err != nil {
			yield(nil, err)
			return
		}

		s.mu.RLock()
		var out []*entity.Task
		for _, task := range s.tasks {
			if filter.Matches(task) {
				out = append(out, task.Clone())
			}
		}
		s.mu.RUnlock()

		slices.SortFunc(out, func(a, b *entity.Task) int {
			return entity.CompareTasks(a, b, filter.Order(), filter.Ascending)
		})
		if filter.Limit > 0 && len(out) > filter.Limit {
			out = out[:filter.Limit]
		}

		for _, task := range out {
			if err := ctx.Err(); err != nil {
				yield(nil, entity.NewStorageError("list tasks", err))
				return
			}
			if !yield(task, nil) {
				return
			}
		}
	}
}
