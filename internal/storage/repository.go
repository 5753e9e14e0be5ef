package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/ZhenYan1214/sugar-linebot-go/internal/errors"
)

// User-facing error texts relayed verbatim in chat replies.
const (
	msgDatabaseError = "❌ 資料庫錯誤，請稍後再試！"
	msgRecordGone    = "❌ 找不到該筆紀錄，請重新操作！"
)

// CreateRecord inserts a measurement for the given date and time.
// date is YYYY-MM-DD and tm is HH:MM, both in the bot's display timezone.
func (db *DB) CreateRecord(ctx context.Context, userID, date, tm string, value int) (Record, error) {
	query := `
		INSERT INTO blood_sugar_records (user_id, record_date, record_time, value, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, userID, date, tm, value, time.Now().Unix())
	if err != nil {
		db.recordOp("create", "error")
		slog.ErrorContext(ctx, "failed to create record",
			"date", date,
			"error", err)
		return Record{}, domerrors.Wrap("storage", "create_record", err, msgDatabaseError)
	}
	db.recordOp("create", "success")

	id, _ := result.LastInsertId()

	// Warn on slow queries (>100ms)
	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "CreateRecord",
			"duration_ms", duration.Milliseconds())
	}

	return Record{ID: id, Time: tm, Value: value}, nil
}

// GetRecordsByDate returns the day's measurements ordered by time of day.
// The order is stable (time, then insertion order) so the ordinals shown in
// edit/delete menus stay consistent between renders of an unchanged day.
func (db *DB) GetRecordsByDate(ctx context.Context, userID, date string) ([]Record, error) {
	query := `
		SELECT id, record_time, value FROM blood_sugar_records
		WHERE user_id = ? AND record_date = ?
		ORDER BY record_time, id
	`
	rows, err := db.conn.QueryContext(ctx, query, userID, date)
	if err != nil {
		db.recordOp("query", "error")
		slog.ErrorContext(ctx, "failed to query records",
			"date", date,
			"error", err)
		return nil, domerrors.Wrap("storage", "query_records", err, msgDatabaseError)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Time, &r.Value); err != nil {
			db.recordOp("query", "error")
			return nil, domerrors.Wrap("storage", "query_records", err, msgDatabaseError)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		db.recordOp("query", "error")
		return nil, domerrors.Wrap("storage", "query_records", err, msgDatabaseError)
	}

	db.recordOp("query", "success")
	return records, nil
}

// GetRecordsByDateRange returns measurements with record_date in [from, to],
// ordered by date then time. Used for multi-day report charts.
func (db *DB) GetRecordsByDateRange(ctx context.Context, userID, from, to string) ([]DatedRecord, error) {
	query := `
		SELECT record_date, id, record_time, value FROM blood_sugar_records
		WHERE user_id = ? AND record_date >= ? AND record_date <= ?
		ORDER BY record_date, record_time, id
	`
	rows, err := db.conn.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		db.recordOp("query_range", "error")
		slog.ErrorContext(ctx, "failed to query record range",
			"from", from,
			"to", to,
			"error", err)
		return nil, domerrors.Wrap("storage", "query_record_range", err, msgDatabaseError)
	}
	defer func() { _ = rows.Close() }()

	var records []DatedRecord
	for rows.Next() {
		var r DatedRecord
		if err := rows.Scan(&r.Date, &r.ID, &r.Time, &r.Value); err != nil {
			db.recordOp("query_range", "error")
			return nil, domerrors.Wrap("storage", "query_record_range", err, msgDatabaseError)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		db.recordOp("query_range", "error")
		return nil, domerrors.Wrap("storage", "query_record_range", err, msgDatabaseError)
	}

	db.recordOp("query_range", "success")
	return records, nil
}

// UpdateRecordAt replaces the value of the record at the given position in
// the day's ordered list. The position comes from an earlier menu render; if
// the list changed since, the position may resolve to a different record or
// to nothing. No staleness guard is applied: an out-of-range position is an
// ordinary failure relayed to the user.
func (db *DB) UpdateRecordAt(ctx context.Context, userID, date string, index, newValue int) (Record, error) {
	record, err := db.recordAt(ctx, userID, date, index)
	if err != nil {
		db.recordOp("update", "error")
		return Record{}, err
	}

	query := `UPDATE blood_sugar_records SET value = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, newValue, record.ID); err != nil {
		db.recordOp("update", "error")
		slog.ErrorContext(ctx, "failed to update record",
			"date", date,
			"index", index,
			"error", err)
		return Record{}, domerrors.Wrap("storage", "update_record", err, msgDatabaseError)
	}

	db.recordOp("update", "success")
	record.Value = newValue
	return record, nil
}

// DeleteRecordAt removes the record at the given position in the day's
// ordered list and returns it. Same positional semantics as UpdateRecordAt.
func (db *DB) DeleteRecordAt(ctx context.Context, userID, date string, index int) (Record, error) {
	record, err := db.recordAt(ctx, userID, date, index)
	if err != nil {
		db.recordOp("delete", "error")
		return Record{}, err
	}

	query := `DELETE FROM blood_sugar_records WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query, record.ID); err != nil {
		db.recordOp("delete", "error")
		slog.ErrorContext(ctx, "failed to delete record",
			"date", date,
			"index", index,
			"error", err)
		return Record{}, domerrors.Wrap("storage", "delete_record", err, msgDatabaseError)
	}

	db.recordOp("delete", "success")
	return record, nil
}

// CountRecords returns the total number of stored measurements.
func (db *DB) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM blood_sugar_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// recordAt resolves a positional index within the day's ordered record list.
func (db *DB) recordAt(ctx context.Context, userID, date string, index int) (Record, error) {
	if index < 0 {
		return Record{}, domerrors.Wrap("storage", "resolve_index", domerrors.ErrIndexOutOfRange, msgRecordGone)
	}

	query := `
		SELECT id, record_time, value FROM blood_sugar_records
		WHERE user_id = ? AND record_date = ?
		ORDER BY record_time, id
		LIMIT 1 OFFSET ?
	`
	var r Record
	err := db.conn.QueryRowContext(ctx, query, userID, date, index).Scan(&r.ID, &r.Time, &r.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, domerrors.Wrap("storage", "resolve_index", domerrors.ErrIndexOutOfRange, msgRecordGone)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve record index",
			"date", date,
			"index", index,
			"error", err)
		return Record{}, domerrors.Wrap("storage", "resolve_index", err, msgDatabaseError)
	}
	return r, nil
}
