package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/xavierca1/sales-operator/internal/config"
	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/database"
	"github.com/xavierca1/sales-operator/internal/infra/memory"
)

type stores struct {
	Leads entity.LeadRepository
	Tasks entity.TaskRepository
	DB    *sql.DB // nil for the memory driver
}

func (s *stores) Close() {
	if s.DB != nil {
		_ = s.DB.Close()
	}
}

// openStores connects to the configured engine and makes sure the schema
// exists.
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.DBDriver == config.DriverMemory {
		return &stores{Leads: memory.NewLeadStore(), Tasks: memory.NewTaskStore()}, nil
	}

	dialect, ok := database.DialectFor(cfg.DBDriver)
	if !ok {
		return nil, fmt.Errorf("unknown driver %q", cfg.DBDriver)
	}

	dsn := cfg.DatabaseURL
	if dialect.Name == database.SQLite.Name {
		var err error
		if dsn, err = database.SQLiteDSN(cfg.SQLitePath); err != nil {
			return nil, err
		}
	}

	db, err := database.NewDBConnection(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.ApplySchema(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &stores{
		Leads: database.NewLeadRepository(db, dialect),
		Tasks: database.NewTaskRepository(db, dialect),
		DB:    db,
	}, nil
}
