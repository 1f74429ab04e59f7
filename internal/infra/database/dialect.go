package database

import (
	"embed"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Dialect captures what differs between the client/server engine and the
// embedded one. Queries are written once with '?' placeholders.
type Dialect struct {
	Name       string
	DriverName string
	schemaFile string
	numbered   bool   // $1, $2... instead of ?
	lockRow    string // appended to the SELECT of a read-modify-write
	collate    string // appended to text sort keys
	checkField func(error) (string, bool)
}

var Postgres = Dialect{
	Name:       "postgres",
	DriverName: "postgres",
	schemaFile: "schema/postgres.sql",
	numbered:   true,
	lockRow:    " FOR UPDATE",
	collate:    ` COLLATE "C"`,
	checkField: pqCheckField,
}

var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	schemaFile: "schema/sqlite.sql",
	checkField: sqliteCheckField,
}

// DialectFor resolves a canonical driver name; aliases are resolved by
// config.NormalizeDriver before they get here.
func DialectFor(name string) (Dialect, bool) {
	switch name {
	case Postgres.Name:
		return Postgres, true
	case SQLite.Name:
		return SQLite, true
	}
	return Dialect{}, false
}

func (d Dialect) Schema() (string, error) {
	b, err := schemaFS.ReadFile(d.schemaFile)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Rebind rewrites '?' placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func pqCheckField(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23514" {
		return "", false
	}
	// Postgres names inline checks <table>_<column>_check.
	field := strings.TrimSuffix(pqErr.Constraint, "_check")
	if i := strings.Index(field, "_"); i >= 0 {
		field = field[i+1:]
	}
	return field, true
}

func sqliteCheckField(err error) (string, bool) {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return "", false
	}
	msg := sqErr.Error()
	const marker = "CHECK constraint failed: "
	if sqErr.Code() != sqlite3.SQLITE_CONSTRAINT_CHECK && !strings.Contains(msg, marker) {
		return "", false
	}
	// "constraint failed: CHECK constraint failed: customer_tier IN ('A', 'B', 'C') (275)"
	if i := strings.LastIndex(msg, marker); i >= 0 {
		if fields := strings.Fields(msg[i+len(marker):]); len(fields) > 0 {
			return fields[0], true
		}
	}
	return "", true
}
