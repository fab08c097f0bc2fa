package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/timeline/internal/model"
)

// Strategy is what to do with a saved session at startup.
type Strategy string

const (
	StartFresh  Strategy = "start-fresh"
	AutoRestore Strategy = "auto-restore"
	Prompt      Strategy = "prompt"
)

// Restore policy defaults.
const (
	DefaultMaxAge           = 4 * time.Hour
	DefaultCountdownSeconds = 5
)

// Policy tunes the startup decision.
type Policy struct {
	AutoRestoreIfRecent bool          `json:"auto_restore_if_recent" yaml:"auto_restore_if_recent"`
	MaxAge              time.Duration `json:"-" yaml:"max_age"`
	ShowPromptAlways    bool          `json:"show_prompt_always" yaml:"show_prompt_always"`
	CountdownSeconds    int           `json:"countdown_seconds" yaml:"countdown_seconds"`
}

// DefaultPolicy auto-restores sessions younger than four hours after a
// five second countdown.
func DefaultPolicy() Policy {
	return Policy{
		AutoRestoreIfRecent: true,
		MaxAge:              DefaultMaxAge,
		CountdownSeconds:    DefaultCountdownSeconds,
	}
}

// MarshalJSON writes MaxAge as a duration string ("4h0m0s").
func (p Policy) MarshalJSON() ([]byte, error) {
	type plain Policy
	return json.Marshal(struct {
		plain
		MaxAge string `json:"max_age"`
	}{plain: plain(p), MaxAge: p.MaxAge.String()})
}

// UnmarshalJSON reads MaxAge as a duration string.
func (p *Policy) UnmarshalJSON(data []byte) error {
	type plain Policy
	aux := struct {
		*plain
		MaxAge string `json:"max_age"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.MaxAge != "" {
		d, err := time.ParseDuration(aux.MaxAge)
		if err != nil {
			return fmt.Errorf("max_age: %w", err)
		}
		p.MaxAge = d
	}
	return nil
}

// Info is the result of a metadata-only session check.
type Info struct {
	Exists   bool                  `json:"exists"`
	Metadata model.SessionMetadata `json:"metadata"`
}

// ShouldAutoRestore decides the startup strategy. It is a pure function of
// its inputs.
//
// A missing or empty session starts fresh. Otherwise ShowPromptAlways, an
// unknown or future modification time, or an age at or beyond MaxAge all
// prompt; a recent session auto-restores when AutoRestoreIfRecent is set.
func ShouldAutoRestore(info Info, p Policy, now time.Time) Strategy {
	if !info.Exists || info.Metadata.IsEmpty() {
		return StartFresh
	}
	if p.ShowPromptAlways {
		return Prompt
	}
	last := info.Metadata.LastModified
	if last.IsZero() || last.After(now) {
		return Prompt
	}
	if p.AutoRestoreIfRecent && now.Sub(last) < p.MaxAge {
		return AutoRestore
	}
	return Prompt
}
