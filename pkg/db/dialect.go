package db

import (
	"fmt"
	"net"
	"net/url"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/smallbiznis/ispdesk/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultSQLiteFile = "ispdesk.db"

// Dialect picks the gorm driver for DATABASE_TYPE.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.DBType {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

// DSN renders the connection string for the configured database. All
// connections run in UTC so DATE columns compare against the clock unshifted.
func DSN(cfg config.Config) (string, error) {
	addr := net.JoinHostPort(cfg.DBHost, cfg.DBPort)

	switch cfg.DBType {
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.DBUser, cfg.DBPassword),
			Host:   addr,
			Path:   "/" + cfg.DBName,
		}
		q := url.Values{}
		sslmode := cfg.DBSSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		q.Set("sslmode", sslmode)
		q.Set("TimeZone", "UTC")
		u.RawQuery = q.Encode()
		return u.String(), nil
	case "mysql":
		mc := gomysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case "sqlite":
		// DB_NAME defaults to "postgres" for the server setup.
		if cfg.DBName == "" || cfg.DBName == "postgres" {
			return defaultSQLiteFile, nil
		}
		return cfg.DBName, nil
	}
	return "", fmt.Errorf("unsupported database type %q", cfg.DBType)
}
