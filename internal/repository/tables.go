package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type tablesRepository struct {
	db *sqlx.DB
}

func NewTablesRepository(db *sqlx.DB) TablesRepository {
	return &tablesRepository{db: db}
}

// CountTablesDB counts the application tables present in the public schema.
func (r *tablesRepository) CountTablesDB(ctx context.Context) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN ('users', 'ratings')
	`)
	if err != nil {
		return 0, fmt.Errorf("error counting database tables: %w", err)
	}

	return count, nil
}
