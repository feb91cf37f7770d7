package service

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// DatabaseOptions are the connection and pool parameters of the MySQL database.
type DatabaseOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// CreateDatabase opens the MySQL connection pool and checks that the database can be reached.
func CreateDatabase(opts DatabaseOptions) (*sql.DB, error) {
	sqlDB, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return sqlDB, nil
}

// SetupDatabaseWrapper wraps the sql database with sqlx. The database argument can be a real
// database for production use or a mock database within unit tests.
func SetupDatabaseWrapper(sqlDB *sql.DB) *sqlx.DB {
	return sqlx.NewDb(sqlDB, "mysql")
}
