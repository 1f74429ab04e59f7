package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
)

type scanner interface {
	Scan(dest ...any) error
}

// queryAll reads every row and closes the result set before returning, so
// the connection is free again when the caller starts ranging.
func queryAll[T any](ctx context.Context, db *sql.DB, d Dialect, op, query string, args []any, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, d.classify(op, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, d.classify(op, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, d.classify(op, err)
	}
	return out, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return entity.Timestamp(*t)
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := entity.Timestamp(t.Time)
	return &v
}

func fromNullDate(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	// Engines hand DATE back at midnight in varying zones; keep the day.
	v := entity.Date(t.Time)
	return &v
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// classify turns a driver error into the module's error kinds.
func (d Dialect) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve entity.ValidationError
	var nf entity.NotFoundError
	if errors.As(err, &ve) || errors.As(err, &nf) {
		return err
	}
	if field, ok := d.checkField(err); ok {
		return entity.ValidationError{Field: field, Message: "violates check constraint"}
	}
	return entity.NewStorageError(op, err)
}
