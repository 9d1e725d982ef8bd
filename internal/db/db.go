// internal/db/db.go
package db

import (
    "database/sql"
    "errors"
    "fmt"

    "github.com/golang-migrate/migrate/v4"
    _ "github.com/golang-migrate/migrate/v4/database/postgres"
    _ "github.com/golang-migrate/migrate/v4/source/file"
    _ "github.com/lib/pq"
    "github.com/sirupsen/logrus"
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
    conn, err := sql.Open("postgres", dsn)
    if err != nil {
        return nil, fmt.Errorf("open database: %w", err)
    }
    if err := conn.Ping(); err != nil {
        conn.Close()
        return nil, fmt.Errorf("ping database: %w", err)
    }
    logrus.Info("connected to database")
    return conn, nil
}

// Migrate applies all pending migrations from the given directory.
func Migrate(dsn, path string) error {
    m, err := migrate.New("file://"+path, dsn)
    if err != nil {
        return fmt.Errorf("init migrations: %w", err)
    }
    defer m.Close()

    if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
        return fmt.Errorf("apply migrations: %w", err)
    }
    logrus.Info("migrations up to date")
    return nil
}
