package services

import "habitgarden-api/internal/dateutil"

// currentStreak walks backward from today, one calendar day at a time,
// through the set of completed days and stops at the first gap. A full
// rescan on every call: backfilled or out-of-order marks are picked up,
// which an incremental last-checked comparison would miss.
func currentStreak(completed map[string]bool, today string) int {
	streak := 0
	for day := today; completed[day]; day = dateutil.PrevDay(day) {
		streak++
	}
	return streak
}
