package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/storetest"
)

func TestStores(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (entity.LeadRepository, entity.TaskRepository) {
		return NewLeadStore(), NewTaskStore()
	})
}

func TestTaskStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()

	id, err := store.Create(ctx, entity.NewTaskInput{Title: "Original"})
	require.NoError(t, err)

	task, err := store.Get(ctx, id)
	require.NoError(t, err)
	task.Title = "mutated"
	task.Status = entity.TaskStatusDone

	stored, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Original", stored.Title)
	assert.Equal(t, entity.TaskStatusOpen, stored.Status)
}

func TestLeadStore_ListHonoursCancelledContext(t *testing.T) {
	store := NewLeadStore()
	_, err := store.Create(context.Background(), entity.NewLeadInput{Name: "Ana"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = entity.Collect(store.List(ctx, entity.LeadFilter{}))
	assert.ErrorIs(t, err, entity.ErrStorage)
}
