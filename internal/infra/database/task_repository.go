package database

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
)

const taskColumns = `id, title, description, customer_name, customer_tier, potential_revenue,
	created_at, last_action_date, next_followup_date, due_date, type, status, completed_at`

type TaskRepository struct {
	DB      *sql.DB
	Dialect Dialect
	now     func() time.Time
}

func NewTaskRepository(db *sql.DB, d Dialect) *TaskRepository {
	return &TaskRepository{DB: db, Dialect: d, now: time.Now}
}

func (r *TaskRepository) Create(ctx context.Context, in entity.NewTaskInput) (int64, error) {
	task, err := entity.NewTask(in, r.now())
	if err != nil {
		return 0, err
	}

	query := r.Dialect.Rebind(`
		INSERT INTO tasks (
			title, description, customer_name, customer_tier, potential_revenue,
			created_at, next_followup_date, due_date, type, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	var id int64
	err = r.DB.QueryRowContext(ctx, query,
		task.Title,
		nullString(task.Description),
		nullString(task.CustomerName),
		nullString(string(task.CustomerTier)),
		nullFloat(task.PotentialRevenue),
		task.CreatedAt,
		nullTime(task.NextFollowupDate),
		nullTime(task.DueDate),
		string(task.Type),
		string(task.Status),
	).Scan(&id)
	if err != nil {
		return 0, r.Dialect.classify("create task", err)
	}
	return id, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*entity.Task, error) {
	query := r.Dialect.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)

	task, err := scanTask(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundError{Entity: "task", ID: id}
	}
	if err != nil {
		return nil, r.Dialect.classify("get task", err)
	}
	return task, nil
}

// Update applies upd in a single transaction with the row locked, so the
// completed_at bookkeeping never races another writer.
func (r *TaskRepository) Update(ctx context.Context, id int64, upd entity.TaskUpdate) (*entity.Task, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, r.Dialect.classify("begin task update", err)
	}
	defer func() { _ = tx.Rollback() }()

	selectQuery := r.Dialect.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?` + r.Dialect.lockRow)
	task, err := scanTask(tx.QueryRowContext(ctx, selectQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundError{Entity: "task", ID: id}
	}
	if err != nil {
		return nil, r.Dialect.classify("load task for update", err)
	}

	if err := task.Apply(upd, r.now()); err != nil {
		return nil, err
	}

	updateQuery := r.Dialect.Rebind(`
		UPDATE tasks SET
			title = ?,
			description = ?,
			customer_name = ?,
			customer_tier = ?,
			potential_revenue = ?,
			last_action_date = ?,
			next_followup_date = ?,
			due_date = ?,
			status = ?,
			completed_at = ?
		WHERE id = ?
	`)
	_, err = tx.ExecContext(ctx, updateQuery,
		task.Title,
		nullString(task.Description),
		nullString(task.CustomerName),
		nullString(string(task.CustomerTier)),
		nullFloat(task.PotentialRevenue),
		nullTime(task.LastActionDate),
		nullTime(task.NextFollowupDate),
		nullTime(task.DueDate),
		string(task.Status),
		nullTime(task.CompletedAt),
		id,
	)
	if err != nil {
		return nil, r.Dialect.classify("update task", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, r.Dialect.classify("commit task update", err)
	}
	return task, nil
}

// LogAction stamps last_action_date. A zero at means now. Status is untouched.
func (r *TaskRepository) LogAction(ctx context.Context, id int64, at time.Time) error {
	if at.IsZero() {
		at = r.now()
	}

	query := r.Dialect.Rebind(`UPDATE tasks SET last_action_date = ? WHERE id = ?`)
	result, err := r.DB.ExecContext(ctx, query, entity.Timestamp(at), id)
	if err != nil {
		return r.Dialect.classify("log task action", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return r.Dialect.classify("log task action", err)
	}
	if rows == 0 {
		return entity.NotFoundError{Entity: "task", ID: id}
	}
	return nil
}

// List runs the query each time the sequence is ranged over. Rows are read
// in full before the first yield, so the loop body may call the repository.
func (r *TaskRepository) List(ctx context.Context, filter entity.TaskFilter) iter.Seq2[*entity.Task, error] {
	return func(yield func(*entity.Task, error) bool) {
		if err := filter.Validate(); err != nil {
			yield(nil, err)
			return
		}

		query, args := r.listQuery(filter)
		tasks, err := queryAll(ctx, r.DB, r.Dialect, "list tasks", query, args, scanTask)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, task := range tasks {
			if !yield(task, nil) {
				return
			}
		}
	}
}

var taskSortColumns = map[entity.TaskOrder]string{
	entity.TaskOrderCreatedAt:         "created_at",
	entity.TaskOrderDueDate:           "due_date",
	entity.TaskOrderNextFollowupDate:  "next_followup_date",
	entity.TaskOrderLastActionDate:    "last_action_date",
	entity.TaskOrderCompletedAt:       "completed_at",
	entity.TaskOrderPotentialRevenue:  "potential_revenue",
	entity.TaskOrderCustomerName:      "customer_name",
	entity.TaskOrderCustomerTier:      "customer_tier",
	entity.TaskOrderStatus:            "status",
	entity.TaskOrderType:              "type",
	entity.TaskOrderTitle:             "title",
	entity.TaskOrderFollowupOrCreated: "COALESCE(next_followup_date, created_at)",
}

var taskTextColumns = map[string]bool{
	"customer_name": true, "customer_tier": true, "status": true, "type": true, "title": true,
}

func (r *TaskRepository) listQuery(f entity.TaskFilter) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`)
	if f.Status != nil {
		b.WriteString(` AND status = ?`)
		args = append(args, string(*f.Status))
	}
	if f.ExcludeDone {
		b.WriteString(` AND status <> ?`)
		args = append(args, string(entity.TaskStatusDone))
	}
	if f.Type != nil {
		b.WriteString(` AND type = ?`)
		args = append(args, string(*f.Type))
	}
	if f.CustomerTier != nil {
		b.WriteString(` AND customer_tier = ?`)
		args = append(args, string(*f.CustomerTier))
	}
	if f.CustomerName != nil {
		b.WriteString(` AND customer_name = ?`)
		args = append(args, *f.CustomerName)
	}
	if f.DueBefore != nil {
		b.WriteString(` AND due_date < ?`)
		args = append(args, entity.Date(*f.DueBefore))
	}
	if f.DueAfter != nil {
		b.WriteString(` AND due_date > ?`)
		args = append(args, entity.Date(*f.DueAfter))
	}

	dir := sortDirection(f.Ascending)
	b.WriteString(` ORDER BY `)
	if col, ok := taskSortColumns[f.Order()]; ok {
		key := col
		if taskTextColumns[col] {
			key += r.Dialect.collate
		}
		b.WriteString(nullsLast(col, key, dir) + `, `)
	}
	b.WriteString(`id ` + dir)

	if f.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
	}
	return r.Dialect.Rebind(b.String()), args
}

func scanTask(row scanner) (*entity.Task, error) {
	var (
		task         entity.Task
		description  sql.NullString
		customerName sql.NullString
		customerTier sql.NullString
		revenue      sql.NullFloat64
		lastAction   sql.NullTime
		nextFollowup sql.NullTime
		dueDate      sql.NullTime
		completedAt  sql.NullTime
		taskType     sql.NullString
		status       sql.NullString
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&customerName,
		&customerTier,
		&revenue,
		&task.CreatedAt,
		&lastAction,
		&nextFollowup,
		&dueDate,
		&taskType,
		&status,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.CustomerName = customerName.String
	task.CustomerTier = entity.Tier(customerTier.String)
	task.PotentialRevenue = fromNullFloat(revenue)
	task.CreatedAt = entity.Timestamp(task.CreatedAt)
	task.LastActionDate = fromNullTime(lastAction)
	task.NextFollowupDate = fromNullTime(nextFollowup)
	task.DueDate = fromNullDate(dueDate)
	task.CompletedAt = fromNullTime(completedAt)
	task.Type = entity.TaskType(taskType.String)
	task.Status = entity.TaskStatus(status.String)
	return &task, nil
}
