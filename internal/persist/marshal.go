package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/timeline/internal/model"
)

// timeLayout is ISO-8601 with sub-second precision, always in UTC.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalList encodes a slice as a JSON array, writing "[]" for nil.
func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal %T: %w", items, err)
	}
	return string(data), nil
}

// unmarshalList decodes a JSON array column. The result is never nil.
func unmarshalList[T any](column, data string) ([]T, error) {
	out := []T{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", column, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func marshalAnalysis(a *model.SavedAnalysis) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal saved analysis: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalAnalysis(ns sql.NullString) (*model.SavedAnalysis, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var a model.SavedAnalysis
	if err := json.Unmarshal([]byte(ns.String), &a); err != nil {
		return nil, fmt.Errorf("unmarshal saved_analysis: %w", err)
	}
	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
