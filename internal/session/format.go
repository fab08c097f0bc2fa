package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/timeline/internal/model"
)

// FormatAge renders how long ago lastModified was, relative to now.
// Ages of a week or more fall back to the calendar date.
func FormatAge(lastModified, now time.Time) string {
	d := now.Sub(lastModified)
	mins := int(d / time.Minute)
	hours := int(d / time.Hour)
	days := int(d / (24 * time.Hour))

	switch {
	case mins < 1:
		return "just now"
	case mins < 60:
		return plural(mins, "minute", "minutes") + " ago"
	case hours < 24:
		return plural(hours, "hour", "hours") + " ago"
	case days < 7:
		return plural(days, "day", "days") + " ago"
	default:
		return lastModified.Format("2 Jan 2006")
	}
}

// FormatSummary renders metadata as "2 properties, 5 events, with notes".
func FormatSummary(m model.SessionMetadata) string {
	var parts []string
	if m.PropertyCount > 0 {
		parts = append(parts, plural(m.PropertyCount, "property", "properties"))
	}
	if m.EventCount > 0 {
		parts = append(parts, plural(m.EventCount, "event", "events"))
	}
	if m.HasAnalysis {
		parts = append(parts, "with CGT analysis")
	}
	if m.HasNotes {
		parts = append(parts, "with notes")
	}
	if len(parts) == 0 {
		return "Empty session"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
