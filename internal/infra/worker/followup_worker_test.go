package worker

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/memory"
	"github.com/xavierca1/sales-operator/internal/usecase"
)

func ptr[T any](v T) *T { return &v }

func TestFollowupWorker_WakesDueTasks(t *testing.T) {
	ctx := context.Background()
	svc := usecase.NewTaskService(memory.NewTaskStore(), nil)
	now := time.Now()

	create := func(title string, status entity.TaskStatus, followup *time.Time) int64 {
		task, err := svc.Create(ctx, entity.NewTaskInput{Title: title, NextFollowupDate: followup})
		require.NoError(t, err)
		if status != entity.TaskStatusOpen {
			_, err = svc.Update(ctx, task.ID, entity.TaskUpdate{Status: &status})
			require.NoError(t, err)
		}
		return task.ID
	}

	due := create("due", entity.TaskStatusWaiting, ptr(now.Add(-time.Hour)))
	future := create("future", entity.TaskStatusWaiting, ptr(now.Add(24*time.Hour)))
	undated := create("undated", entity.TaskStatusWaiting, nil)
	done := create("done", entity.TaskStatusDone, ptr(now.Add(-time.Hour)))

	w := NewFollowupWorker(svc, time.Minute)
	w.now = func() time.Time { return now }

	assert.Equal(t, 1, w.wakeDueFollowups(ctx))

	for id, want := range map[int64]entity.TaskStatus{
		due:     entity.TaskStatusOpen,
		future:  entity.TaskStatusWaiting,
		undated: entity.TaskStatusWaiting,
		done:    entity.TaskStatusDone,
	} {
		task, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, task.Status, "task %d", id)
	}

	assert.Zero(t, w.wakeDueFollowups(ctx))
}

func TestFollowupWorker_StopsOnCancel(t *testing.T) {
	svc := usecase.NewTaskService(memory.NewTaskStore(), nil)
	w := NewFollowupWorker(svc, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestFollowupWorker_LogsTaggedLines(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	ctx := context.Background()
	svc := usecase.NewTaskService(memory.NewTaskStore(), nil)
	now := time.Now()
	task, err := svc.Create(ctx, entity.NewTaskInput{Title: "ping", NextFollowupDate: ptr(now.Add(-time.Hour))})
	require.NoError(t, err)
	_, err = svc.Update(ctx, task.ID, entity.TaskUpdate{Status: ptr(entity.TaskStatusWaiting)})
	require.NoError(t, err)

	w := NewFollowupWorker(svc, time.Minute)
	w.now = func() time.Time { return now }
	require.Equal(t, 1, w.wakeDueFollowups(ctx))

	assert.Contains(t, buf.String(), "⏱️ [FOLLOWUP] task")
	assert.Contains(t, buf.String(), "✅ [FOLLOWUP] 1 task(s) moved back to open")
}
