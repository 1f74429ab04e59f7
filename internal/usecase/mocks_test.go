package usecase

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/queue"
)

type mockLeadRepo struct{ mock.Mock }

func (m *mockLeadRepo) Create(ctx context.Context, in entity.NewLeadInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLeadRepo) Get(ctx context.Context, id int64) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	lead, _ := args.Get(0).(*entity.Lead)
	return lead, args.Error(1)
}

func (m *mockLeadRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockLeadRepo) List(ctx context.Context, filter entity.LeadFilter) iter.Seq2[*entity.Lead, error] {
	args := m.Called(ctx, filter)
	return seqOf(args.Get(0).([]*entity.Lead))
}

func (m *mockLeadRepo) FindByEmail(ctx context.Context, email string) ([]*entity.Lead, error) {
	args := m.Called(ctx, email)
	leads, _ := args.Get(0).([]*entity.Lead)
	return leads, args.Error(1)
}

type mockTaskRepo struct{ mock.Mock }

func (m *mockTaskRepo) Create(ctx context.Context, in entity.NewTaskInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTaskRepo) Get(ctx context.Context, id int64) (*entity.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*entity.Task)
	return task, args.Error(1)
}

func (m *mockTaskRepo) Update(ctx context.Context, id int64, upd entity.TaskUpdate) (*entity.Task, error) {
	args := m.Called(ctx, id, upd)
	task, _ := args.Get(0).(*entity.Task)
	return task, args.Error(1)
}

func (m *mockTaskRepo) LogAction(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockTaskRepo) List(ctx context.Context, filter entity.TaskFilter) iter.Seq2[*entity.Task, error] {
	args := m.Called(ctx, filter)
	return seqOf(args.Get(0).([]*entity.Task))
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, event queue.Event) error {
	return m.Called(ctx, event).Error(0)
}

func seqOf[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range slices.Clone(items) {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func eventOfType(eventType string) any {
	return mock.MatchedBy(func(e queue.Event) bool { return e.Type == eventType })
}
