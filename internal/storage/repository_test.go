package storage

import (
	"context"
	"errors"
	"testing"

	domerrors "github.com/ZhenYan1214/sugar-linebot-go/internal/errors"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateAndQueryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateRecord(ctx, "U1", "2024-03-01", "08:30", 142)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if created.Value != 142 || created.Time != "08:30" {
		t.Errorf("created record = %+v", created)
	}

	records, err := db.GetRecordsByDate(ctx, "U1", "2024-03-01")
	if err != nil {
		t.Fatalf("GetRecordsByDate: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Value != 142 || records[0].Time != "08:30" {
		t.Errorf("records[0] = %+v", records[0])
	}
}

func TestGetRecordsByDate_OrderedByTime(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Inserted out of time order on purpose
	mustCreate(t, db, "U1", "2024-03-01", "12:00", 150)
	mustCreate(t, db, "U1", "2024-03-01", "07:00", 95)
	mustCreate(t, db, "U1", "2024-03-01", "18:30", 130)

	records, err := db.GetRecordsByDate(ctx, "U1", "2024-03-01")
	if err != nil {
		t.Fatalf("GetRecordsByDate: %v", err)
	}

	wantTimes := []string{"07:00", "12:00", "18:30"}
	if len(records) != len(wantTimes) {
		t.Fatalf("got %d records, want %d", len(records), len(wantTimes))
	}
	for i, want := range wantTimes {
		if records[i].Time != want {
			t.Errorf("records[%d].Time = %q, want %q", i, records[i].Time, want)
		}
	}
}

func TestGetRecordsByDate_EmptyAndIsolated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "U1", "2024-03-01", "08:00", 100)

	// Different date: empty, not an error
	records, err := db.GetRecordsByDate(ctx, "U1", "2024-03-02")
	if err != nil {
		t.Fatalf("GetRecordsByDate: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records for empty date, want 0", len(records))
	}

	// Different user: empty
	records, err = db.GetRecordsByDate(ctx, "U2", "2024-03-01")
	if err != nil {
		t.Fatalf("GetRecordsByDate: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records for other user, want 0", len(records))
	}
}

func TestUpdateRecordAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "U1", "2024-03-01", "07:00", 95)
	mustCreate(t, db, "U1", "2024-03-01", "12:00", 150)

	updated, err := db.UpdateRecordAt(ctx, "U1", "2024-03-01", 1, 160)
	if err != nil {
		t.Fatalf("UpdateRecordAt: %v", err)
	}
	if updated.Value != 160 || updated.Time != "12:00" {
		t.Errorf("updated = %+v", updated)
	}

	records, err := db.GetRecordsByDate(ctx, "U1", "2024-03-01")
	if err != nil {
		t.Fatalf("GetRecordsByDate: %v", err)
	}
	if records[0].Value != 95 {
		t.Errorf("records[0].Value = %d, untouched record changed", records[0].Value)
	}
	if records[1].Value != 160 {
		t.Errorf("records[1].Value = %d, want 160", records[1].Value)
	}
}

func TestDeleteRecordAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "U1", "2024-03-01", "07:00", 95)
	mustCreate(t, db, "U1", "2024-03-01", "12:00", 150)
	mustCreate(t, db, "U1", "2024-03-01", "18:30", 130)

	deleted, err := db.DeleteRecordAt(ctx, "U1", "2024-03-01", 1)
	if err != nil {
		t.Fatalf("DeleteRecordAt: %v", err)
	}
	if deleted.Time != "12:00" {
		t.Errorf("deleted = %+v, want the 12:00 record", deleted)
	}

	records, err := db.GetRecordsByDate(ctx, "U1", "2024-03-01")
	if err != nil {
		t.Fatalf("GetRecordsByDate: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records after delete, want 2", len(records))
	}
	for _, r := range records {
		if r.Time == "12:00" {
			t.Errorf("deleted record still present: %+v", r)
		}
	}
}

func TestIndexOutOfRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "U1", "2024-03-01", "07:00", 95)

	tests := []struct {
		name  string
		index int
	}{
		{"past_end", 1},
		{"far_past_end", 99},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.UpdateRecordAt(ctx, "U1", "2024-03-01", tt.index, 120)
			if !errors.Is(err, domerrors.ErrIndexOutOfRange) {
				t.Errorf("UpdateRecordAt(%d) error = %v, want ErrIndexOutOfRange", tt.index, err)
			}
			if msg := domerrors.UserMessage(err); msg != "❌ 找不到該筆紀錄，請重新操作！" {
				t.Errorf("user message = %q", msg)
			}

			_, err = db.DeleteRecordAt(ctx, "U1", "2024-03-01", tt.index)
			if !errors.Is(err, domerrors.ErrIndexOutOfRange) {
				t.Errorf("DeleteRecordAt(%d) error = %v, want ErrIndexOutOfRange", tt.index, err)
			}
		})
	}
}

func TestGetRecordsByDateRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "U1", "2024-02-28", "08:00", 100)
	mustCreate(t, db, "U1", "2024-03-01", "08:00", 110)
	mustCreate(t, db, "U1", "2024-03-03", "08:00", 120)
	mustCreate(t, db, "U1", "2024-03-10", "08:00", 130)

	records, err := db.GetRecordsByDateRange(ctx, "U1", "2024-03-01", "2024-03-07")
	if err != nil {
		t.Fatalf("GetRecordsByDateRange: %v", err)
	}

	wantDates := []string{"2024-03-01", "2024-03-03"}
	if len(records) != len(wantDates) {
		t.Fatalf("got %d records, want %d", len(records), len(wantDates))
	}
	for i, want := range wantDates {
		if records[i].Date != want {
			t.Errorf("records[%d].Date = %q, want %q", i, records[i].Date, want)
		}
	}
}

func TestPath(t *testing.T) {
	db := newTestDB(t)
	if db.Path() != ":memory:" {
		t.Errorf("Path() = %q, want :memory:", db.Path())
	}
}

func TestCountRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if n, err := db.CountRecords(ctx); err != nil || n != 0 {
		t.Fatalf("CountRecords on empty db = %d, %v", n, err)
	}

	mustCreate(t, db, "U1", "2024-03-01", "08:00", 100)
	mustCreate(t, db, "U2", "2024-03-02", "09:00", 110)

	if n, err := db.CountRecords(ctx); err != nil || n != 2 {
		t.Fatalf("CountRecords = %d, %v, want 2", n, err)
	}
}

func mustCreate(t *testing.T, db *DB, userID, date, tm string, value int) Record {
	t.Helper()
	r, err := db.CreateRecord(context.Background(), userID, date, tm, value)
	if err != nil {
		t.Fatalf("CreateRecord(%s %s %s %d): %v", userID, date, tm, value, err)
	}
	return r
}
