package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/sales-operator/internal/config"
	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/memory"
)

func TestSeedLeads(t *testing.T) {
	ctx := context.Background()
	leads := memory.NewLeadStore()

	n, err := seedLeads(ctx, leads)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	qualified := "qualified"
	got, err := entity.Collect(leads.List(ctx, entity.LeadFilter{Status: &qualified}))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	found, err := leads.FindByEmail(ctx, "lisa.chen@startupxyz.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "converted", found[0].Status)
}

func TestOpenStores_SQLite(t *testing.T) {
	cfg := config.Config{DBDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "sales.db")}

	st, err := openStores(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()
	require.NotNil(t, st.DB)

	n, err := seedLeads(context.Background(), st.Leads)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	_, err := openStores(context.Background(), config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestSeedCommand_Memory(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "added 8 sample leads")
}

func TestInitDBCommand_DriverFlag(t *testing.T) {
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "sales.db"))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init-db", "--driver", "sqlite"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "schema ready (sqlite)")
}

func TestInitDBCommand_DriverFlagIsNormalized(t *testing.T) {
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "sales.db"))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init-db", "--driver", "SQLite3"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "schema ready (sqlite)")
}
