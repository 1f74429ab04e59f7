// Package storetest holds the behaviour every LeadRepository and
// TaskRepository implementation must share. Adapters call Run from their own
// tests with a factory that hands out empty repositories.
package storetest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/sales-operator/internal/entity"
)

// Factory returns empty repositories backed by the same store.
type Factory func(t *testing.T) (entity.LeadRepository, entity.TaskRepository)

func Run(t *testing.T, newRepos Factory) {
	t.Run("leads", func(t *testing.T) { RunLeads(t, newRepos) })
	t.Run("tasks", func(t *testing.T) { RunTasks(t, newRepos) })
}

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	require.ErrorIs(t, err, entity.ErrValidation)
	ve, ok := entity.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, field, ve.Field)
}

// between asserts got lies in [before, after] at the precision the stores keep.
func between(t *testing.T, got *time.Time, before, after time.Time) {
	t.Helper()
	require.NotNil(t, got)
	assert.False(t, got.Before(entity.Timestamp(before)), "%v is before %v", got, before)
	assert.False(t, got.After(after), "%v is after %v", got, after)
}

func RunLeads(t *testing.T, newRepos Factory) {
	ctx := context.Background()

	t.Run("create applies defaults", func(t *testing.T) {
		leads, _ := newRepos(t)
		before := time.Now()

		id, err := leads.Create(ctx, entity.NewLeadInput{Name: "  Ana Souza ", Company: "Acme", Email: "ana@acme.com"})
		require.NoError(t, err)
		assert.Positive(t, id)

		lead, err := leads.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, lead.ID)
		assert.Equal(t, "Ana Souza", lead.Name)
		assert.Equal(t, "Acme", lead.Company)
		assert.Equal(t, "ana@acme.com", lead.Email)
		assert.Equal(t, entity.LeadStatusNew, lead.Status)
		between(t, &lead.CreatedAt, before, time.Now())
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		leads, _ := newRepos(t)

		_, err := leads.Create(ctx, entity.NewLeadInput{Name: " "})
		requireField(t, err, "name")

		_, err = leads.Create(ctx, entity.NewLeadInput{Name: strings.Repeat("n", 101)})
		requireField(t, err, "name")

		_, err = leads.Create(ctx, entity.NewLeadInput{Name: "ok", Email: strings.Repeat("e", 256)})
		requireField(t, err, "email")

		all, err := entity.Collect(leads.List(ctx, entity.LeadFilter{}))
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("ids are distinct", func(t *testing.T) {
		leads, _ := newRepos(t)
		a, err := leads.Create(ctx, entity.NewLeadInput{Name: "A"})
		require.NoError(t, err)
		b, err := leads.Create(ctx, entity.NewLeadInput{Name: "B"})
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("get unknown id", func(t *testing.T) {
		leads, _ := newRepos(t)
		_, err := leads.Get(ctx, 4242)
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("update status", func(t *testing.T) {
		leads, _ := newRepos(t)
		id, err := leads.Create(ctx, entity.NewLeadInput{Name: "Bruno"})
		require.NoError(t, err)

		require.NoError(t, leads.UpdateStatus(ctx, id, "contacted"))
		lead, err := leads.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "contacted", lead.Status)

		// Any non-empty status is accepted.
		require.NoError(t, leads.UpdateStatus(ctx, id, "waiting on legal"))

		requireField(t, leads.UpdateStatus(ctx, id, "  "), "status")
		assert.ErrorIs(t, leads.UpdateStatus(ctx, id+100, "lost"), entity.ErrNotFound)
	})

	t.Run("find by email returns duplicates newest first", func(t *testing.T) {
		leads, _ := newRepos(t)
		first, err := leads.Create(ctx, entity.NewLeadInput{Name: "One", Email: "dup@example.com"})
		require.NoError(t, err)
		_, err = leads.Create(ctx, entity.NewLeadInput{Name: "Other", Email: "other@example.com"})
		require.NoError(t, err)
		_, err = leads.Create(ctx, entity.NewLeadInput{Name: "No email"})
		require.NoError(t, err)
		second, err := leads.Create(ctx, entity.NewLeadInput{Name: "Two", Email: "dup@example.com"})
		require.NoError(t, err)

		found, err := leads.FindByEmail(ctx, "dup@example.com")
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, second, found[0].ID)
		assert.Equal(t, first, found[1].ID)

		found, err = leads.FindByEmail(ctx, "DUP@example.com")
		require.NoError(t, err)
		assert.Empty(t, found)

		_, err = leads.FindByEmail(ctx, "")
		requireField(t, err, "email")
	})

	t.Run("list filters and orders", func(t *testing.T) {
		leads, _ := newRepos(t)
		c, err := leads.Create(ctx, entity.NewLeadInput{Name: "Carla", Company: "Zeta"})
		require.NoError(t, err)
		a, err := leads.Create(ctx, entity.NewLeadInput{Name: "Alice"})
		require.NoError(t, err)
		b, err := leads.Create(ctx, entity.NewLeadInput{Name: "Bia", Company: "Acme"})
		require.NoError(t, err)
		require.NoError(t, leads.UpdateStatus(ctx, b, "qualified"))

		all, err := entity.Collect(leads.List(ctx, entity.LeadFilter{}))
		require.NoError(t, err)
		assert.Equal(t, []int64{b, a, c}, leadIDs(all))

		byName, err := entity.Collect(leads.List(ctx, entity.LeadFilter{OrderBy: entity.LeadOrderName, Ascending: true}))
		require.NoError(t, err)
		assert.Equal(t, []int64{a, b, c}, leadIDs(byName))

		// Leads without a company sort last in both directions.
		asc, err := entity.Collect(leads.List(ctx, entity.LeadFilter{OrderBy: entity.LeadOrderCompany, Ascending: true}))
		require.NoError(t, err)
		assert.Equal(t, []int64{b, c, a}, leadIDs(asc))
		desc, err := entity.Collect(leads.List(ctx, entity.LeadFilter{OrderBy: entity.LeadOrderCompany}))
		require.NoError(t, err)
		assert.Equal(t, []int64{c, b, a}, leadIDs(desc))

		qualified, err := entity.Collect(leads.List(ctx, entity.LeadFilter{Status: ptr("qualified")}))
		require.NoError(t, err)
		assert.Equal(t, []int64{b}, leadIDs(qualified))

		limited, err := entity.Collect(leads.List(ctx, entity.LeadFilter{OrderBy: entity.LeadOrderName, Ascending: true, Limit: 2}))
		require.NoError(t, err)
		assert.Equal(t, []int64{a, b}, leadIDs(limited))

		_, err = entity.Collect(leads.List(ctx, entity.LeadFilter{OrderBy: "phone"}))
		requireField(t, err, "order_by")
	})

	t.Run("list can be ranged twice", func(t *testing.T) {
		leads, _ := newRepos(t)
		_, err := leads.Create(ctx, entity.NewLeadInput{Name: "Only"})
		require.NoError(t, err)

		seq := leads.List(ctx, entity.LeadFilter{})
		first, err := entity.Collect(seq)
		require.NoError(t, err)
		second, err := entity.Collect(seq)
		require.NoError(t, err)
		assert.Equal(t, leadIDs(first), leadIDs(second))
		assert.Len(t, second, 1)
	})

	t.Run("list stops early", func(t *testing.T) {
		leads, _ := newRepos(t)
		for _, name := range []string{"A", "B", "C"} {
			_, err := leads.Create(ctx, entity.NewLeadInput{Name: name})
			require.NoError(t, err)
		}

		seen := 0
		for _, err := range leads.List(ctx, entity.LeadFilter{}) {
			require.NoError(t, err)
			seen++
			if seen == 2 {
				break
			}
		}
		assert.Equal(t, 2, seen)
	})
	t.Run("get twice without writes returns the same lead", func(t *testing.T) {
		leads, _ := newRepos(t)
		id, err := leads.Create(ctx, entity.NewLeadInput{Name: "Ana", Company: "Acme", Email: "ana@acme.io"})
		require.NoError(t, err)
		require.NoError(t, leads.UpdateStatus(ctx, id, "contacted"))

		first, err := leads.Get(ctx, id)
		require.NoError(t, err)
		second, err := leads.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("update status while ranging a list", func(t *testing.T) {
		leads, _ := newRepos(t)
		for _, name := range []string{"A", "B"} {
			_, err := leads.Create(ctx, entity.NewLeadInput{Name: name})
			require.NoError(t, err)
		}

		tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		seen := 0
		for lead, err := range leads.List(tctx, entity.LeadFilter{}) {
			require.NoError(t, err)
			require.NoError(t, leads.UpdateStatus(tctx, lead.ID, "contacted"))
			seen++
		}
		assert.Equal(t, 2, seen)

		got, err := entity.Collect(leads.List(ctx, entity.LeadFilter{}))
		require.NoError(t, err)
		for _, lead := range got {
			assert.Equal(t, "contacted", lead.Status)
		}
	})
}

func RunTasks(t *testing.T, newRepos Factory) {
	ctx := context.Background()

	t.Run("create applies defaults", func(t *testing.T) {
		_, tasks := newRepos(t)
		before := time.Now()

		id, err := tasks.Create(ctx, entity.NewTaskInput{Title: "Call Acme", CustomerTier: entity.TierA, Type: entity.TaskTypeQuick})
		require.NoError(t, err)

		task, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Call Acme", task.Title)
		assert.Equal(t, entity.TaskStatusOpen, task.Status)
		assert.Equal(t, entity.TaskTypeQuick, task.Type)
		assert.Equal(t, entity.TierA, task.CustomerTier)
		assert.Nil(t, task.CompletedAt)
		assert.Nil(t, task.LastActionDate)
		assert.Nil(t, task.PotentialRevenue)
		between(t, &task.CreatedAt, before, time.Now())

		id, err = tasks.Create(ctx, entity.NewTaskInput{Title: "Plain"})
		require.NoError(t, err)
		task, err = tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.TaskTypeNormal, task.Type)
		assert.Equal(t, entity.Tier(""), task.CustomerTier)
	})

	t.Run("create keeps optional fields", func(t *testing.T) {
		_, tasks := newRepos(t)
		followup := time.Date(2025, 4, 2, 9, 15, 30, 123456000, time.UTC)

		id, err := tasks.Create(ctx, entity.NewTaskInput{
			Title:            "Proposal",
			Description:      "send pricing",
			CustomerName:     "Acme",
			CustomerTier:     entity.TierB,
			PotentialRevenue: ptr(12500.5),
			DueDate:          ptr(time.Date(2025, 4, 5, 18, 45, 0, 0, time.UTC)),
			NextFollowupDate: &followup,
		})
		require.NoError(t, err)

		task, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "send pricing", task.Description)
		assert.Equal(t, "Acme", task.CustomerName)
		require.NotNil(t, task.PotentialRevenue)
		assert.InDelta(t, 12500.5, *task.PotentialRevenue, 1e-9)
		require.NotNil(t, task.DueDate)
		assert.True(t, day(2025, 4, 5).Equal(*task.DueDate), "due date %v", task.DueDate)
		require.NotNil(t, task.NextFollowupDate)
		assert.True(t, followup.Equal(*task.NextFollowupDate), "follow-up %v", task.NextFollowupDate)
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		_, tasks := newRepos(t)

		_, err := tasks.Create(ctx, entity.NewTaskInput{Title: ""})
		requireField(t, err, "title")
		_, err = tasks.Create(ctx, entity.NewTaskInput{Title: "t", CustomerTier: "D"})
		requireField(t, err, "customer_tier")
		_, err = tasks.Create(ctx, entity.NewTaskInput{Title: "t", Type: "urgent"})
		requireField(t, err, "type")

		all, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{}))
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, tasks := newRepos(t)
		_, err := tasks.Get(ctx, 999)
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("done and reopen maintain completed_at", func(t *testing.T) {
		_, tasks := newRepos(t)
		id, err := tasks.Create(ctx, entity.NewTaskInput{Title: "Call Acme", CustomerTier: entity.TierA, Type: entity.TaskTypeQuick})
		require.NoError(t, err)

		before := time.Now()
		done, err := tasks.Update(ctx, id, entity.TaskUpdate{Status: ptr(entity.TaskStatusDone)})
		require.NoError(t, err)
		between(t, done.CompletedAt, before, time.Now())

		stored, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.TaskStatusDone, stored.Status)
		require.NotNil(t, stored.CompletedAt)
		assert.True(t, done.CompletedAt.Equal(*stored.CompletedAt))

		// Marking it done again keeps the first completion time.
		again, err := tasks.Update(ctx, id, entity.TaskUpdate{Status: ptr(entity.TaskStatusDone)})
		require.NoError(t, err)
		require.NotNil(t, again.CompletedAt)
		assert.True(t, done.CompletedAt.Equal(*again.CompletedAt))

		_, err = tasks.Update(ctx, id, entity.TaskUpdate{Status: ptr(entity.TaskStatusOpen)})
		require.NoError(t, err)
		stored, err = tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.TaskStatusOpen, stored.Status)
		assert.Nil(t, stored.CompletedAt)
		assert.NoError(t, stored.CheckCompletion())
	})

	t.Run("waiting clears completed_at", func(t *testing.T) {
		_, tasks := newRepos(t)
		id, err := tasks.Create(ctx, entity.NewTaskInput{Title: "Wait"})
		require.NoError(t, err)

		_, err = tasks.Update(ctx, id, entity.TaskUpdate{Status: ptr(entity.TaskStatusDone)})
		require.NoError(t, err)
		task, err := tasks.Update(ctx, id, entity.TaskUpdate{Status: ptr(entity.TaskStatusWaiting)})
		require.NoError(t, err)
		assert.Equal(t, entity.TaskStatusWaiting, task.Status)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("update changes only given fields", func(t *testing.T) {
		_, tasks := newRepos(t)
		id, err := tasks.Create(ctx, entity.NewTaskInput{
			Title:        "Demo",
			Description:  "walkthrough",
			CustomerName: "Globex",
			CustomerTier: entity.TierC,
			DueDate:      ptr(day(2025, 5, 1)),
		})
		require.NoError(t, err)

		task, err := tasks.Update(ctx, id, entity.TaskUpdate{
			Title:            ptr("Demo v2"),
			PotentialRevenue: ptr(900.0),
			CustomerTier:     ptr(entity.Tier("")),
			DueDate:          &time.Time{},
		})
		require.NoError(t, err)
		assert.Equal(t, "Demo v2", task.Title)
		assert.Equal(t, "walkthrough", task.Description)
		assert.Equal(t, "Globex", task.CustomerName)
		assert.Equal(t, entity.Tier(""), task.CustomerTier)
		assert.Nil(t, task.DueDate)
		require.NotNil(t, task.PotentialRevenue)
		assert.InDelta(t, 900.0, *task.PotentialRevenue, 1e-9)

		stored, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, task.Title, stored.Title)
		assert.Equal(t, entity.Tier(""), stored.CustomerTier)
		assert.Nil(t, stored.DueDate)
		assert.Equal(t, entity.TaskStatusOpen, stored.Status)
	})

	t.Run("invalid update leaves the task untouched", func(t *testing.T) {
		_, tasks := newRepos(t)
		id, err := tasks.Create(ctx, entity.NewTaskInput{Title: "Keep", CustomerTier: entity.TierB})
		require.NoError(t, err)

		_, err = tasks.Update(ctx, id, entity.TaskUpdate{Title: ptr("changed"), CustomerTier: ptr(entity.Tier("Z"))})
		requireField(t, err, "customer_tier")
		_, err = tasks.Update(ctx, id, entity.TaskUpdate{Title: ptr("changed"), Status: ptr(entity.TaskStatus("closed"))})
		requireField(t, err, "status")

		task, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Keep", task.Title)
		assert.Equal(t, entity.TierB, task.CustomerTier)
	})

	t.Run("update unknown id", func(t *testing.T) {
		_, tasks := newRepos(t)
		_, err := tasks.Update(ctx, 77, entity.TaskUpdate{Title: ptr("x")})
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("log action stamps last action only", func(t *testing.T) {
		_, tasks := newRepos(t)
		id, err := tasks.Create(ctx, entity.NewTaskInput{Title: "Ping"})
		require.NoError(t, err)

		at := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
		require.NoError(t, tasks.LogAction(ctx, id, at))
		task, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, task.LastActionDate)
		assert.True(t, at.Equal(*task.LastActionDate))
		assert.Equal(t, entity.TaskStatusOpen, task.Status)

		before := time.Now()
		require.NoError(t, tasks.LogAction(ctx, id, time.Time{}))
		task, err = tasks.Get(ctx, id)
		require.NoError(t, err)
		between(t, task.LastActionDate, before, time.Now())

		assert.ErrorIs(t, tasks.LogAction(ctx, id+50, at), entity.ErrNotFound)
	})

	t.Run("list open tier A by due date", func(t *testing.T) {
		_, tasks := newRepos(t)
		late := mustCreate(t, tasks, entity.NewTaskInput{Title: "late", CustomerTier: entity.TierA, DueDate: ptr(day(2025, 6, 1))})
		undated := mustCreate(t, tasks, entity.NewTaskInput{Title: "undated", CustomerTier: entity.TierA})
		early := mustCreate(t, tasks, entity.NewTaskInput{Title: "early", CustomerTier: entity.TierA, DueDate: ptr(day(2025, 5, 1))})
		mustCreate(t, tasks, entity.NewTaskInput{Title: "tier b", CustomerTier: entity.TierB, DueDate: ptr(day(2025, 4, 1))})
		closed := mustCreate(t, tasks, entity.NewTaskInput{Title: "closed", CustomerTier: entity.TierA, DueDate: ptr(day(2025, 4, 1))})
		_, err := tasks.Update(ctx, closed, entity.TaskUpdate{Status: ptr(entity.TaskStatusDone)})
		require.NoError(t, err)

		filter := entity.TaskFilter{
			Status:       ptr(entity.TaskStatusOpen),
			CustomerTier: ptr(entity.TierA),
			OrderBy:      entity.TaskOrderDueDate,
			Ascending:    true,
		}
		got, err := entity.Collect(tasks.List(ctx, filter))
		require.NoError(t, err)
		assert.Equal(t, []int64{early, late, undated}, taskIDs(got))

		// NULL due dates stay last when descending too.
		filter.Ascending = false
		got, err = entity.Collect(tasks.List(ctx, filter))
		require.NoError(t, err)
		assert.Equal(t, []int64{late, early, undated}, taskIDs(got))
	})

	t.Run("list filters", func(t *testing.T) {
		_, tasks := newRepos(t)
		quick := mustCreate(t, tasks, entity.NewTaskInput{Title: "quick", Type: entity.TaskTypeQuick, CustomerName: "Acme", DueDate: ptr(day(2025, 3, 10))})
		normal := mustCreate(t, tasks, entity.NewTaskInput{Title: "normal", CustomerName: "Globex", DueDate: ptr(day(2025, 3, 12))})
		done := mustCreate(t, tasks, entity.NewTaskInput{Title: "done", Type: entity.TaskTypeQuick, CustomerName: "Acme"})
		_, err := tasks.Update(ctx, done, entity.TaskUpdate{Status: ptr(entity.TaskStatusDone)})
		require.NoError(t, err)

		byType, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{Type: ptr(entity.TaskTypeQuick), OrderBy: entity.TaskOrderID, Ascending: true}))
		require.NoError(t, err)
		assert.Equal(t, []int64{quick, done}, taskIDs(byType))

		notDone, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{ExcludeDone: true, OrderBy: entity.TaskOrderID, Ascending: true}))
		require.NoError(t, err)
		assert.Equal(t, []int64{quick, normal}, taskIDs(notDone))

		acme, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{CustomerName: ptr("Acme"), OrderBy: entity.TaskOrderID, Ascending: true}))
		require.NoError(t, err)
		assert.Equal(t, []int64{quick, done}, taskIDs(acme))

		// Due bounds are exclusive and skip undated tasks.
		before, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{DueBefore: ptr(day(2025, 3, 12))}))
		require.NoError(t, err)
		assert.Equal(t, []int64{quick}, taskIDs(before))
		after, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{DueAfter: ptr(day(2025, 3, 10))}))
		require.NoError(t, err)
		assert.Equal(t, []int64{normal}, taskIDs(after))

		limited, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{OrderBy: entity.TaskOrderID, Ascending: true, Limit: 1}))
		require.NoError(t, err)
		assert.Equal(t, []int64{quick}, taskIDs(limited))

		_, err = entity.Collect(tasks.List(ctx, entity.TaskFilter{CustomerTier: ptr(entity.Tier("Q"))}))
		requireField(t, err, "customer_tier")
	})

	t.Run("list by follow-up falls back to created_at", func(t *testing.T) {
		_, tasks := newRepos(t)
		now := time.Now()
		later := mustCreate(t, tasks, entity.NewTaskInput{Title: "later", NextFollowupDate: ptr(now.Add(48 * time.Hour))})
		none := mustCreate(t, tasks, entity.NewTaskInput{Title: "none"})
		overdue := mustCreate(t, tasks, entity.NewTaskInput{Title: "overdue", NextFollowupDate: ptr(now.Add(-48 * time.Hour))})

		got, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{OrderBy: entity.TaskOrderFollowupOrCreated, Ascending: true}))
		require.NoError(t, err)
		assert.Equal(t, []int64{overdue, none, later}, taskIDs(got))
	})

	t.Run("list by revenue keeps nulls last", func(t *testing.T) {
		_, tasks := newRepos(t)
		small := mustCreate(t, tasks, entity.NewTaskInput{Title: "small", PotentialRevenue: ptr(100.0)})
		unknown := mustCreate(t, tasks, entity.NewTaskInput{Title: "unknown"})
		big := mustCreate(t, tasks, entity.NewTaskInput{Title: "big", PotentialRevenue: ptr(40000.0)})

		got, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{OrderBy: entity.TaskOrderPotentialRevenue}))
		require.NoError(t, err)
		assert.Equal(t, []int64{big, small, unknown}, taskIDs(got))
	})
	t.Run("get twice without writes returns the same task", func(t *testing.T) {
		_, tasks := newRepos(t)
		id := mustCreate(t, tasks, entity.NewTaskInput{
			Title:            "Call Acme",
			Description:      "renewal",
			CustomerName:     "Acme",
			CustomerTier:     entity.TierA,
			PotentialRevenue: ptr(1500.0),
			DueDate:          ptr(day(2025, 6, 1)),
			NextFollowupDate: ptr(time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)),
			Type:             entity.TaskTypeQuick,
		})
		require.NoError(t, tasks.LogAction(ctx, id, time.Time{}))
		_, err := tasks.Update(ctx, id, entity.TaskUpdate{Status: ptr(entity.TaskStatusDone)})
		require.NoError(t, err)

		first, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		second, err := tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("update while ranging a list", func(t *testing.T) {
		_, tasks := newRepos(t)
		mustCreate(t, tasks, entity.NewTaskInput{Title: "one"})
		mustCreate(t, tasks, entity.NewTaskInput{Title: "two"})

		tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		seen := 0
		for task, err := range tasks.List(tctx, entity.TaskFilter{}) {
			require.NoError(t, err)
			_, err = tasks.Update(tctx, task.ID, entity.TaskUpdate{Status: ptr(entity.TaskStatusDone)})
			require.NoError(t, err)
			seen++
		}
		assert.Equal(t, 2, seen)

		open, err := entity.Collect(tasks.List(ctx, entity.TaskFilter{ExcludeDone: true}))
		require.NoError(t, err)
		assert.Empty(t, open)
	})
}

func mustCreate(t *testing.T, tasks entity.TaskRepository, in entity.NewTaskInput) int64 {
	t.Helper()
	id, err := tasks.Create(context.Background(), in)
	require.NoError(t, err)
	return id
}

func leadIDs(leads []*entity.Lead) []int64 {
	ids := make([]int64, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	return ids
}

func taskIDs(tasks []*entity.Task) []int64 {
	ids := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}
