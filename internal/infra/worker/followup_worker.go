package worker

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
)

// TaskSweeper is the part of the task service the follow-up worker needs.
type TaskSweeper interface {
	List(ctx context.Context, filter entity.TaskFilter) ([]*entity.Task, error)
	Reopen(ctx context.Context, id int64) (*entity.Task, error)
}

// FollowupWorker moves waiting tasks back to open once their next
// follow-up date has passed.
type FollowupWorker struct {
	tasks        TaskSweeper
	tickInterval time.Duration
	now          func() time.Time
}

func NewFollowupWorker(tasks TaskSweeper, tickInterval time.Duration) *FollowupWorker {
	return &FollowupWorker{
		tasks:        tasks,
		tickInterval: tickInterval,
		now:          time.Now,
	}
}

func (w *FollowupWorker) Start(ctx context.Context) {
	log.Printf("🕒 [FOLLOWUP] worker started (every %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.wakeDueFollowups(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ [FOLLOWUP] worker stopped")
			return
		case <-ticker.C:
			w.wakeDueFollowups(ctx)
		}
	}
}

// wakeDueFollowups returns how many tasks it reopened.
func (w *FollowupWorker) wakeDueFollowups(ctx context.Context) int {
	waiting := entity.TaskStatusWaiting
	tasks, err := w.tasks.List(ctx, entity.TaskFilter{
		Status:    &waiting,
		OrderBy:   entity.TaskOrderNextFollowupDate,
		Ascending: true,
	})
	if err != nil {
		log.Printf("❌ [FOLLOWUP] failed to list waiting tasks: %v", err)
		return 0
	}

	now := w.now()
	woken := 0
	for _, task := range tasks {
		// Sorted ascending with NULLs last, so the first future date ends the scan.
		if task.NextFollowupDate == nil || task.NextFollowupDate.After(now) {
			break
		}
		if _, err := w.tasks.Reopen(ctx, task.ID); err != nil {
			log.Printf("❌ [FOLLOWUP] failed to reopen task %d: %v", task.ID, err)
			continue
		}
		log.Printf("⏱️ [FOLLOWUP] task %d is due (follow-up %s)", task.ID, task.NextFollowupDate.Format(time.RFC3339))
		woken++
	}

	if woken > 0 {
		log.Printf("✅ [FOLLOWUP] %d task(s) moved back to open", woken)
	}
	return woken
}
