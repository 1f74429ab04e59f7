package entity

import (
	"context"
	"iter"
	"time"
)

type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// IsValid reports whether t is one of A, B, C. The empty tier means "not
// set" and is handled by callers.
func (t Tier) IsValid() bool {
	switch t {
	case TierA, TierB, TierC:
		return true
	}
	return false
}

type TaskType string

const (
	TaskTypeNormal TaskType = "normal"
	TaskTypeQuick  TaskType = "quick"
)

func (t TaskType) IsValid() bool {
	return t == TaskTypeNormal || t == TaskTypeQuick
}

type TaskStatus string

const (
	TaskStatusOpen    TaskStatus = "open"
	TaskStatusWaiting TaskStatus = "waiting"
	TaskStatusDone    TaskStatus = "done"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusWaiting, TaskStatusDone:
		return true
	}
	return false
}

type Task struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	CustomerName     string     `json:"customer_name,omitempty"`
	CustomerTier     Tier       `json:"customer_tier,omitempty"`
	PotentialRevenue *float64   `json:"potential_revenue,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastActionDate   *time.Time `json:"last_action_date,omitempty"`
	NextFollowupDate *time.Time `json:"next_followup_date,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Type             TaskType   `json:"type"`
	Status           TaskStatus `json:"status"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type NewTaskInput struct {
	Title            string
	Description      string
	CustomerName     string
	CustomerTier     Tier
	PotentialRevenue *float64
	DueDate          *time.Time
	NextFollowupDate *time.Time
	Type             TaskType
}

// TaskUpdate carries the fields to change. A nil field is left alone; a
// pointer to the zero value clears a nullable column. The task type is
// fixed at creation and cannot be updated.
type TaskUpdate struct {
	Title            *string
	Description      *string
	CustomerName     *string
	CustomerTier     *Tier
	PotentialRevenue *float64
	DueDate          *time.Time
	NextFollowupDate *time.Time
	LastActionDate   *time.Time
	Status           *TaskStatus
}

// TaskRepository is implemented by every storage adapter. List yields a
// snapshot: the loop body may call back into the repository.
type TaskRepository interface {
	Create(ctx context.Context, in NewTaskInput) (int64, error)
	Get(ctx context.Context, id int64) (*Task, error)
	Update(ctx context.Context, id int64, upd TaskUpdate) (*Task, error)
	LogAction(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter TaskFilter) iter.Seq2[*Task, error]
}

// NewTask validates the input and builds an open task ready to be inserted.
func NewTask(in NewTaskInput, now time.Time) (*Task, error) {
	title, err := requiredText("title", in.Title, MaxTaskTitleLength)
	if err != nil {
		return nil, err
	}
	customer, err := optionalText("customer_name", in.CustomerName, MaxCustomerNameLength)
	if err != nil {
		return nil, err
	}
	if in.CustomerTier != "" && !in.CustomerTier.IsValid() {
		return nil, ValidationError{"customer_tier", "must be one of A, B, C"}
	}
	taskType := in.Type
	if taskType == "" {
		taskType = TaskTypeNormal
	}
	if !taskType.IsValid() {
		return nil, ValidationError{"type", "must be one of normal, quick"}
	}
	if err := finiteNumber("potential_revenue", in.PotentialRevenue); err != nil {
		return nil, err
	}

	var revenue *float64
	if in.PotentialRevenue != nil {
		v := *in.PotentialRevenue
		revenue = &v
	}

	return &Task{
		Title:            title,
		Description:      in.Description,
		CustomerName:     customer,
		CustomerTier:     in.CustomerTier,
		PotentialRevenue: revenue,
		CreatedAt:        Timestamp(now),
		NextFollowupDate: timestampPtr(in.NextFollowupDate),
		DueDate:          datePtr(in.DueDate),
		Type:             taskType,
		Status:           TaskStatusOpen,
	}, nil
}

// Validate checks every provided field without touching any task.
func (u TaskUpdate) Validate() error {
	if u.Title != nil {
		if _, err := requiredText("title", *u.Title, MaxTaskTitleLength); err != nil {
			return err
		}
	}
	if u.CustomerName != nil {
		if _, err := optionalText("customer_name", *u.CustomerName, MaxCustomerNameLength); err != nil {
			return err
		}
	}
	if u.CustomerTier != nil && *u.CustomerTier != "" && !u.CustomerTier.IsValid() {
		return ValidationError{"customer_tier", "must be one of A, B, C"}
	}
	if u.Status != nil && !u.Status.IsValid() {
		return ValidationError{"status", "must be one of open, waiting, done"}
	}
	return finiteNumber("potential_revenue", u.PotentialRevenue)
}

// Apply validates upd and then applies it to t. Moving to done stamps
// CompletedAt with now (a task that is already done keeps its original
// completion time); moving away from done clears it.
func (t *Task) Apply(upd TaskUpdate, now time.Time) error {
	if err := upd.Validate(); err != nil {
		return err
	}

	if upd.Title != nil {
		t.Title, _ = requiredText("title", *upd.Title, MaxTaskTitleLength)
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.CustomerName != nil {
		t.CustomerName, _ = optionalText("customer_name", *upd.CustomerName, MaxCustomerNameLength)
	}
	if upd.CustomerTier != nil {
		t.CustomerTier = *upd.CustomerTier
	}
	if upd.PotentialRevenue != nil {
		v := *upd.PotentialRevenue
		t.PotentialRevenue = &v
	}
	if upd.DueDate != nil {
		t.DueDate = datePtr(upd.DueDate)
	}
	if upd.NextFollowupDate != nil {
		t.NextFollowupDate = timestampPtr(upd.NextFollowupDate)
	}
	if upd.LastActionDate != nil {
		t.LastActionDate = timestampPtr(upd.LastActionDate)
	}
	if upd.Status != nil {
		t.setStatus(*upd.Status, now)
	}
	return nil
}

func (t *Task) setStatus(status TaskStatus, now time.Time) {
	switch {
	case status == TaskStatusDone && (t.Status != TaskStatusDone || t.CompletedAt == nil):
		completed := Timestamp(now)
		t.CompletedAt = &completed
	case status != TaskStatusDone:
		t.CompletedAt = nil
	}
	t.Status = status
}

// CheckCompletion reports a violation of "completed_at is set iff status is done".
func (t *Task) CheckCompletion() error {
	done := t.Status == TaskStatusDone
	if done != (t.CompletedAt != nil) {
		return ValidationError{"completed_at", "must be set exactly when status is done"}
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	c.PotentialRevenue = clonePtr(t.PotentialRevenue)
	c.LastActionDate = clonePtr(t.LastActionDate)
	c.NextFollowupDate = clonePtr(t.NextFollowupDate)
	c.DueDate = clonePtr(t.DueDate)
	c.CompletedAt = clonePtr(t.CompletedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
