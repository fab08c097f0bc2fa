package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/timeline/internal/model"
)

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{45 * time.Minute, "45 minutes ago"},
		{time.Hour, "1 hour ago"},
		{23*time.Hour + 59*time.Minute, "23 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{6 * 24 * time.Hour, "6 days ago"},
		{8 * 24 * time.Hour, "6 Mar 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAge(now.Add(-tt.age), now))
		})
	}
}

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		name string
		meta model.SessionMetadata
		want string
	}{
		{"empty", model.SessionMetadata{}, "Empty session"},
		{"singular", model.SessionMetadata{PropertyCount: 1, EventCount: 1}, "1 property, 1 event"},
		{"plural", model.SessionMetadata{PropertyCount: 2, EventCount: 5}, "2 properties, 5 events"},
		{"everything", model.SessionMetadata{PropertyCount: 3, EventCount: 9, HasAnalysis: true, HasNotes: true},
			"3 properties, 9 events, with CGT analysis, with notes"},
		{"notes only", model.SessionMetadata{HasNotes: true}, "with notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSummary(tt.meta))
		})
	}
}
