package migration

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/smallbiznis/ispdesk/internal/config"
	"github.com/smallbiznis/ispdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	source, err := Source()
	require.NoError(t, err)

	names, err := fs.Glob(source, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	sort.Strings(names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitialMigrationSeedsInvoiceSequence(t *testing.T) {
	source, err := Source()
	require.NoError(t, err)

	body, err := fs.ReadFile(source, "000001_init_schema.up.sql")
	require.NoError(t, err)

	sql := string(body)
	for _, table := range []string{"service_packages", "customers", "invoices", "payments", "invoice_sequences"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, sql, "VALUES ('invoice', 0)")
}

func TestRunSkipsNonPostgres(t *testing.T) {
	db := testutil.NewDB(t)
	err := Run(db, config.Config{DBType: "sqlite"}, zaptest.NewLogger(t))
	assert.NoError(t, err)
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	_, err := RunMigrations(nil)
	assert.Error(t, err)
}
