package entity

import (
	"cmp"
	"iter"
	"strings"
	"time"
)

type LeadOrder string

const (
	LeadOrderCreatedAt LeadOrder = "created_at"
	LeadOrderName      LeadOrder = "name"
	LeadOrderCompany   LeadOrder = "company"
	LeadOrderEmail     LeadOrder = "email"
	LeadOrderStatus    LeadOrder = "status"
	LeadOrderID        LeadOrder = "id"
)

func (o LeadOrder) IsValid() bool {
	switch o {
	case LeadOrderCreatedAt, LeadOrderName, LeadOrderCompany, LeadOrderEmail, LeadOrderStatus, LeadOrderID:
		return true
	}
	return false
}

// LeadFilter selects leads. The zero value lists everything, newest first.
type LeadFilter struct {
	Status    *string
	OrderBy   LeadOrder
	Ascending bool
	Limit     int
}

func (f LeadFilter) Order() LeadOrder {
	if f.OrderBy == "" {
		return LeadOrderCreatedAt
	}
	return f.OrderBy
}

func (f LeadFilter) Validate() error {
	if !f.Order().IsValid() {
		return ValidationError{"order_by", "unsupported sort key " + string(f.OrderBy)}
	}
	if f.Limit < 0 {
		return ValidationError{"limit", "must not be negative"}
	}
	return nil
}

func (f LeadFilter) Matches(l *Lead) bool {
	return f.Status == nil || l.Status == *f.Status
}

type TaskOrder string

const (
	TaskOrderCreatedAt        TaskOrder = "created_at"
	TaskOrderDueDate          TaskOrder = "due_date"
	TaskOrderNextFollowupDate TaskOrder = "next_followup_date"
	TaskOrderLastActionDate   TaskOrder = "last_action_date"
	TaskOrderCompletedAt      TaskOrder = "completed_at"
	TaskOrderPotentialRevenue TaskOrder = "potential_revenue"
	TaskOrderCustomerName     TaskOrder = "customer_name"
	TaskOrderCustomerTier     TaskOrder = "customer_tier"
	TaskOrderStatus           TaskOrder = "status"
	TaskOrderType             TaskOrder = "type"
	TaskOrderTitle            TaskOrder = "title"
	TaskOrderID               TaskOrder = "id"
	// TaskOrderFollowupOrCreated sorts by the next follow-up, falling back
	// to the creation time for tasks without one.
	TaskOrderFollowupOrCreated TaskOrder = "followup_or_created"
)

func (o TaskOrder) IsValid() bool {
	switch o {
	case TaskOrderCreatedAt, TaskOrderDueDate, TaskOrderNextFollowupDate, TaskOrderLastActionDate,
		TaskOrderCompletedAt, TaskOrderPotentialRevenue, TaskOrderCustomerName, TaskOrderCustomerTier,
		TaskOrderStatus, TaskOrderType, TaskOrderTitle, TaskOrderID, TaskOrderFollowupOrCreated:
		return true
	}
	return false
}

// TaskFilter selects tasks. All provided conditions must hold. The zero
// value lists everything, newest first. DueBefore and DueAfter are
// exclusive day bounds; tasks without a due date never match them.
type TaskFilter struct {
	Status       *TaskStatus
	Type         *TaskType
	CustomerTier *Tier
	CustomerName *string
	DueBefore    *time.Time
	DueAfter     *time.Time
	ExcludeDone  bool
	OrderBy      TaskOrder
	Ascending    bool
	Limit        int
}

func (f TaskFilter) Order() TaskOrder {
	if f.OrderBy == "" {
		return TaskOrderCreatedAt
	}
	return f.OrderBy
}

func (f TaskFilter) Validate() error {
	if f.Status != nil && !f.Status.IsValid() {
		return ValidationError{"status", "must be one of open, waiting, done"}
	}
	if f.Type != nil && !f.Type.IsValid() {
		return ValidationError{"type", "must be one of normal, quick"}
	}
	if f.CustomerTier != nil && !f.CustomerTier.IsValid() {
		return ValidationError{"customer_tier", "must be one of A, B, C"}
	}
	if !f.Order().IsValid() {
		return ValidationError{"order_by", "unsupported sort key " + string(f.OrderBy)}
	}
	if f.Limit < 0 {
		return ValidationError{"limit", "must not be negative"}
	}
	return nil
}

func (f TaskFilter) Matches(t *Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.ExcludeDone && t.Status == TaskStatusDone {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.CustomerTier != nil && t.CustomerTier != *f.CustomerTier {
		return false
	}
	if f.CustomerName != nil && t.CustomerName != *f.CustomerName {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(Date(*f.DueBefore))) {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || !t.DueDate.After(Date(*f.DueAfter))) {
		return false
	}
	return true
}

// CompareLeads orders two leads the way the SQL adapters do: empty values
// last in both directions, ties broken by id in the same direction.
func CompareLeads(a, b *Lead, order LeadOrder, ascending bool) int {
	var c int
	switch order {
	case LeadOrderName:
		c = compareText(a.Name, b.Name, ascending)
	case LeadOrderCompany:
		c = compareText(a.Company, b.Company, ascending)
	case LeadOrderEmail:
		c = compareText(a.Email, b.Email, ascending)
	case LeadOrderStatus:
		c = compareText(a.Status, b.Status, ascending)
	case LeadOrderID:
	default:
		c = direction(a.CreatedAt.Compare(b.CreatedAt), ascending)
	}
	if c != 0 {
		return c
	}
	return direction(cmp.Compare(a.ID, b.ID), ascending)
}

// CompareTasks orders two tasks the way the SQL adapters do: NULLs last in
// both directions, ties broken by id in the same direction.
func CompareTasks(a, b *Task, order TaskOrder, ascending bool) int {
	var c int
	switch order {
	case TaskOrderDueDate:
		c = compareTime(a.DueDate, b.DueDate, ascending)
	case TaskOrderNextFollowupDate:
		c = compareTime(a.NextFollowupDate, b.NextFollowupDate, ascending)
	case TaskOrderLastActionDate:
		c = compareTime(a.LastActionDate, b.LastActionDate, ascending)
	case TaskOrderCompletedAt:
		c = compareTime(a.CompletedAt, b.CompletedAt, ascending)
	case TaskOrderFollowupOrCreated:
		c = compareTime(followupOrCreated(a), followupOrCreated(b), ascending)
	case TaskOrderPotentialRevenue:
		c = compareNullable(a.PotentialRevenue, b.PotentialRevenue, ascending, cmp.Compare[float64])
	case TaskOrderCustomerName:
		c = compareText(a.CustomerName, b.CustomerName, ascending)
	case TaskOrderCustomerTier:
		c = compareText(string(a.CustomerTier), string(b.CustomerTier), ascending)
	case TaskOrderStatus:
		c = direction(strings.Compare(string(a.Status), string(b.Status)), ascending)
	case TaskOrderType:
		c = direction(strings.Compare(string(a.Type), string(b.Type)), ascending)
	case TaskOrderTitle:
		c = direction(strings.Compare(a.Title, b.Title), ascending)
	case TaskOrderID:
	default:
		c = direction(a.CreatedAt.Compare(b.CreatedAt), ascending)
	}
	if c != 0 {
		return c
	}
	return direction(cmp.Compare(a.ID, b.ID), ascending)
}

func followupOrCreated(t *Task) *time.Time {
	if t.NextFollowupDate != nil {
		return t.NextFollowupDate
	}
	return &t.CreatedAt
}

func direction(c int, ascending bool) int {
	if ascending {
		return c
	}
	return -c
}

func compareNullable[T any](a, b *T, ascending bool, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return direction(compare(*a, *b), ascending)
}

func compareTime(a, b *time.Time, ascending bool) int {
	return compareNullable(a, b, ascending, func(x, y time.Time) int { return x.Compare(y) })
}

// compareText treats the empty string as NULL, matching how optional text
// columns are stored.
func compareText(a, b string, ascending bool) int {
	var pa, pb *string
	if a != "" {
		pa = &a
	}
	if b != "" {
		pb = &b
	}
	return compareNullable(pa, pb, ascending, strings.Compare)
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
