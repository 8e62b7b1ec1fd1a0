package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/keylessvault/internal/client/migrations"
	"github.com/dmitrijs2005/keylessvault/internal/dbx"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded session-store migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate session store: %w", err)
	}
	return nil
}

// InitDatabase opens the session database at path and brings its schema
// up to date.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	db, err := dbx.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
