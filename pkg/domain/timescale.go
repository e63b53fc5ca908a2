package domain

import "time"

// ComputeTimescale derives the urgency bucket for a due timestamp
// (milliseconds) relative to now. The server computes the authoritative
// value; this mirror exists so locally-drafted entries can be bucketed
// before the server echo arrives.
func ComputeTimescale(dueTS *int64, completed bool, now time.Time) EntryTimescale {
	if completed {
		return TimescaleCompleted
	}
	if dueTS == nil {
		return TimescaleSomeday
	}

	due := time.UnixMilli(*dueTS).In(now.Location())
	today := truncateToDay(now)
	dueDay := truncateToDay(due)

	if dueDay.Before(today) {
		return TimescaleOverdue
	}
	if dueDay.Equal(today) {
		return TimescaleToday
	}

	// Weeks run Monday through Sunday.
	weekday := int(today.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	endOfWeek := today.AddDate(0, 0, 7-weekday)
	if !dueDay.After(endOfWeek) {
		return TimescaleThisWeek
	}

	endOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).
		AddDate(0, 1, -1)
	if !dueDay.After(endOfMonth) {
		return TimescaleThisMonth
	}

	return TimescaleLater
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
