package db

import (
	"context"
	"database/sql"
	"time"

	"backend-chirper/internal/config"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the development database. The handle is pinned to a single
// connection so PRAGMAs and in-memory databases apply to every statement.
func OpenSQLite(cfg config.Config) (*sql.DB, error) {
	return OpenSQLitePath(cfg.SQLitePath)
}

func OpenSQLitePath(path string) (*sql.DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	handle.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := handle.ExecContext(ctx, pragma); err != nil {
			handle.Close()
			return nil, err
		}
	}
	return handle, nil
}
