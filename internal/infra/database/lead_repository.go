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

const leadColumns = `id, name, company, email, status, created_at`

type LeadRepository struct {
	DB      *sql.DB
	Dialect Dialect
	now     func() time.Time
}

func NewLeadRepository(db *sql.DB, d Dialect) *LeadRepository {
	return &LeadRepository{DB: db, Dialect: d, now: time.Now}
}

func (r *LeadRepository) Create(ctx context.Context, in entity.NewLeadInput) (int64, error) {
	lead, err := entity.NewLead(in, r.now())
	if err != nil {
		return 0, err
	}

	query := r.Dialect.Rebind(`
		INSERT INTO leads (name, company, email, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)

	var id int64
	err = r.DB.QueryRowContext(ctx, query,
		lead.Name,
		nullString(lead.Company),
		nullString(lead.Email),
		lead.Status,
		lead.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, r.Dialect.classify("create lead", err)
	}
	return id, nil
}

func (r *LeadRepository) Get(ctx context.Context, id int64) (*entity.Lead, error) {
	query := r.Dialect.Rebind(`SELECT ` + leadColumns + ` FROM leads WHERE id = ?`)

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFoundError{Entity: "lead", ID: id}
	}
	if err != nil {
		return nil, r.Dialect.classify("get lead", err)
	}
	return lead, nil
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	status, err := entity.NormalizeLeadStatus(status)
	if err != nil {
		return err
	}

	query := r.Dialect.Rebind(`UPDATE leads SET status = ? WHERE id = ?`)
	result, err := r.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.Dialect.classify("update lead status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return r.Dialect.classify("update lead status", err)
	}
	if rows == 0 {
		return entity.NotFoundError{Entity: "lead", ID: id}
	}
	return nil
}

// List runs the query each time the sequence is ranged over. Rows are read
// in full before the first yield, so the loop body may call the repository.
func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) iter.Seq2[*entity.Lead, error] {
	return func(yield func(*entity.Lead, error) bool) {
		if err := filter.Validate(); err != nil {
			yield(nil, err)
			return
		}

		query, args := r.listQuery(filter)
		leads, err := queryAll(ctx, r.DB, r.Dialect, "list leads", query, args, scanLead)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, lead := range leads {
			if !yield(lead, nil) {
				return
			}
		}
	}
}

// FindByEmail returns every lead with that exact email; duplicates are legal.
func (r *LeadRepository) FindByEmail(ctx context.Context, email string) ([]*entity.Lead, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return nil, entity.ValidationError{Field: "email", Message: "is required"}
	}

	query := r.Dialect.Rebind(`SELECT ` + leadColumns + ` FROM leads WHERE email = ? ORDER BY created_at DESC, id DESC`)
	return queryAll(ctx, r.DB, r.Dialect, "find leads by email", query, []any{email}, scanLead)
}

var leadSortColumns = map[entity.LeadOrder]string{
	entity.LeadOrderCreatedAt: "created_at",
	entity.LeadOrderName:      "name",
	entity.LeadOrderCompany:   "company",
	entity.LeadOrderEmail:     "email",
	entity.LeadOrderStatus:    "status",
}

var leadTextColumns = map[string]bool{"name": true, "company": true, "email": true, "status": true}

func (r *LeadRepository) listQuery(f entity.LeadFilter) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString(`SELECT ` + leadColumns + ` FROM leads WHERE 1=1`)
	if f.Status != nil {
		b.WriteString(` AND status = ?`)
		args = append(args, *f.Status)
	}

	dir := sortDirection(f.Ascending)
	b.WriteString(` ORDER BY `)
	if col, ok := leadSortColumns[f.Order()]; ok {
		key := col
		if leadTextColumns[col] {
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

func scanLead(row scanner) (*entity.Lead, error) {
	var (
		lead    entity.Lead
		company sql.NullString
		email   sql.NullString
		status  sql.NullString
	)
	if err := row.Scan(&lead.ID, &lead.Name, &company, &email, &status, &lead.CreatedAt); err != nil {
		return nil, err
	}
	lead.Company = company.String
	lead.Email = email.String
	lead.Status = status.String
	lead.CreatedAt = entity.Timestamp(lead.CreatedAt)
	return &lead, nil
}

func sortDirection(ascending bool) string {
	if ascending {
		return "ASC"
	}
	return "DESC"
}

// nullsLast orders by key, keeping NULLs at the end whichever direction is
// asked for. Optional text is stored as NULL when empty, so this covers it.
func nullsLast(col, key, dir string) string {
	return `(` + col + ` IS NULL) ASC, ` + key + ` ` + dir
}
