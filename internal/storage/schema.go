package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode and pragmas are configured in db.go.
func InitSchema(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS blood_sugar_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		record_date TEXT NOT NULL,
		record_time TEXT NOT NULL,
		value INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_user_date ON blood_sugar_records(user_id, record_date);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create blood_sugar_records table: %w", err)
	}

	return nil
}
