package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/timeline/internal/model"
)

// parseDate accepts YYYY-MM-DD or RFC 3339. Dates without a zone are UTC.
func parseDate(flag, s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("--%s: %q is not a date (want YYYY-MM-DD)", flag, s))
	}
	return t, nil
}

func parseMoney(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Decimal{}, NewExitError(ExitCommandError, fmt.Sprintf("--%s: %q is not an amount", flag, s))
	}
	return d, nil
}

func parseStatus(flag, s string) (model.PropertyStatus, error) {
	st := model.PropertyStatus(s)
	if !st.Valid() {
		return "", NewExitError(ExitCommandError, fmt.Sprintf("--%s: unknown status %q", flag, s))
	}
	return st, nil
}

func parseEventType(flag, s string) (model.EventType, error) {
	t := model.EventType(s)
	if !t.Valid() {
		return "", NewExitError(ExitCommandError, fmt.Sprintf("--%s: unknown event type %q", flag, s))
	}
	return t, nil
}

// optional wraps a parser so it yields nil for an unset flag.
func optional[T any](set bool, flag, s string, parse func(flag, s string) (T, error)) (*T, error) {
	if !set {
		return nil, nil
	}
	v, err := parse(flag, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func text(_ string, s string) (string, error) { return s, nil }
