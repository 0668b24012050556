package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"moviemeter/internal/config"
	"moviemeter/internal/logging"
)

type MethodsDB interface {
	CloseDB() error
	RunMigrations(ctx context.Context, migrationFilePath string) error
	HealthCheck(ctx context.Context) error
}

type DB struct {
	*sqlx.DB
}

var _ MethodsDB = (*DB)(nil)

func ConnectDB(ctx context.Context, cfg *config.Config) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.DbHOST,
		cfg.DB.DbPORT,
		cfg.DB.DbUSER,
		cfg.DB.DbPASSWORD,
		cfg.DB.DbNAME,
		cfg.DB.DbSSLMODE,
	)

	logging.Info().Str("host", cfg.DB.DbHOST).Str("dbname", cfg.DB.DbNAME).Msg("connecting to database")

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	dbStruct := &DB{db}

	if err := dbStruct.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, err
	}

	if err := dbStruct.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	logging.Info().Msg("connected to PostgreSQL")
	return dbStruct, nil
}

func (db *DB) CloseDB() error {
	return db.DB.Close()
}

// RunMigrations executes the schema file. Statements must be idempotent.
func (db *DB) RunMigrations(ctx context.Context, migrationFilePath string) error {
	migrationSQL, err := os.ReadFile(migrationFilePath)
	if err != nil {
		return fmt.Errorf("error reading migrations file %s: %w", migrationFilePath, err)
	}

	logging.Info().Str("file", migrationFilePath).Msg("applying migrations")

	if _, err = db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error applying migrations: %w", err)
	}

	return nil
}

func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	return db.PingContext(ctx)
}
