package storage

// Record is one blood sugar measurement within a single day.
// The position of a Record in a by-date query result is the ordinal the
// edit/delete menus address it by.
type Record struct {
	ID    int64  // row id, internal
	Time  string // HH:MM
	Value int    // mg/dL
}

// DatedRecord is a measurement paired with its date, used for range queries
// feeding multi-day report charts.
type DatedRecord struct {
	Date string // YYYY-MM-DD
	Record
}
