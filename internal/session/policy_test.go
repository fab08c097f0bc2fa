package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/model"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func infoAged(age time.Duration) Info {
	return Info{Exists: true, Metadata: model.SessionMetadata{
		PropertyCount: 1,
		EventCount:    2,
		LastModified:  now.Add(-age),
	}}
}

func TestShouldAutoRestore(t *testing.T) {
	promptAlways := DefaultPolicy()
	promptAlways.ShowPromptAlways = true
	noAuto := DefaultPolicy()
	noAuto.AutoRestoreIfRecent = false

	tests := []struct {
		name   string
		info   Info
		policy Policy
		want   Strategy
	}{
		{"no session", Info{}, DefaultPolicy(), StartFresh},
		{"empty session", Info{Exists: true, Metadata: model.SessionMetadata{LastModified: now}}, DefaultPolicy(), StartFresh},
		{"one hour old", infoAged(time.Hour), DefaultPolicy(), AutoRestore},
		{"just saved", infoAged(0), DefaultPolicy(), AutoRestore},
		{"ten hours old", infoAged(10 * time.Hour), DefaultPolicy(), Prompt},
		{"exactly max age", infoAged(DefaultMaxAge), DefaultPolicy(), Prompt},
		{"always prompt", infoAged(time.Minute), promptAlways, Prompt},
		{"auto restore disabled", infoAged(time.Minute), noAuto, Prompt},
		{"modified in the future", infoAged(-time.Hour), DefaultPolicy(), Prompt},
		{"unknown modification time", Info{Exists: true, Metadata: model.SessionMetadata{PropertyCount: 1}}, DefaultPolicy(), Prompt},
		{"events only", Info{Exists: true, Metadata: model.SessionMetadata{EventCount: 1, LastModified: now}}, DefaultPolicy(), AutoRestore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAutoRestore(tt.info, tt.policy, now))
		})
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.True(t, p.AutoRestoreIfRecent)
	assert.False(t, p.ShowPromptAlways)
	assert.Equal(t, 4*time.Hour, p.MaxAge)
	assert.Equal(t, 5, p.CountdownSeconds)
}

func TestPolicyJSON(t *testing.T) {
	p := Policy{AutoRestoreIfRecent: true, MaxAge: 90 * time.Minute, CountdownSeconds: 3}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"auto_restore_if_recent":true,"max_age":"1h30m0s","show_prompt_always":false,"countdown_seconds":3}`, string(data))

	var got Policy
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p, got)
}

func TestPolicyJSON_BadDuration(t *testing.T) {
	var p Policy
	assert.Error(t, json.Unmarshal([]byte(`{"max_age":"soon"}`), &p))
}
