package lineutil

import (
	"time"
)

// DateFormat is the canonical date layout used for record dates and the
// datetime picker ("YYYY-MM-DD").
const DateFormat = "2006-01-02"

// TimeFormat is the layout used for the time of day of a record.
const TimeFormat = "15:04"

// Taipei timezone for consistent time display and date boundaries
var taipeiTZ *time.Location

func init() {
	var err error
	taipeiTZ, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		// Fallback to UTC+8 if timezone data is not available
		taipeiTZ = time.FixedZone("Asia/Taipei", 8*60*60)
	}
}

// GetTaipeiLocation returns the Taiwan (Asia/Taipei) timezone location.
// Use this for date boundaries and time calculations that should be in Taiwan time.
func GetTaipeiLocation() *time.Location {
	return taipeiTZ
}

// NowTaipei returns the current time in Asia/Taipei.
func NowTaipei() time.Time {
	return time.Now().In(taipeiTZ)
}

// Today returns today's date in Asia/Taipei formatted as "YYYY-MM-DD".
// Record dates and picker bounds always use Taiwan's calendar day, not the
// server's.
func Today() string {
	return NowTaipei().Format(DateFormat)
}

// DaysAgo returns the date n days before today in Asia/Taipei,
// formatted as "YYYY-MM-DD".
func DaysAgo(n int) string {
	return NowTaipei().AddDate(0, 0, -n).Format(DateFormat)
}
