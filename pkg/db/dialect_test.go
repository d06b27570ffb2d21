package db

import (
	"testing"

	"github.com/smallbiznis/ispdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSNPostgres(t *testing.T) {
	dsn, err := DSN(config.Config{
		DBType:     "postgres",
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "billing",
		DBUser:     "isp",
		DBPassword: "p@ss word",
		DBSSLMode:  "require",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://isp:p%40ss%20word@db:5432/billing?TimeZone=UTC&sslmode=require", dsn)
}

func TestDSNMySQL(t *testing.T) {
	dsn, err := DSN(config.Config{
		DBType:     "mysql",
		DBHost:     "db",
		DBPort:     "3306",
		DBName:     "billing",
		DBUser:     "isp",
		DBPassword: "secret",
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "isp:secret@tcp(db:3306)/billing?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDSNSQLiteDefaultsFile(t *testing.T) {
	dsn, err := DSN(config.Config{DBType: "sqlite", DBName: "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "ispdesk.db", dsn)

	dsn, err = DSN(config.Config{DBType: "sqlite", DBName: "file::memory:"})
	require.NoError(t, err)
	assert.Equal(t, "file::memory:", dsn)
}

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}
