package cbosa

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationKind distinguishes date validation failures.
type ValidationKind string

// Validation failure kinds surfaced to callers before any network call.
const (
	InvalidDateFormat ValidationKind = "invalid_date_format"
	InvalidDateRange  ValidationKind = "invalid_date_range"
)

// ValidationError is a structured input validation failure.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// DateRange holds the parsed search bounds. HasFrom/HasTo track which
// bounds were actually supplied.
type DateRange struct {
	From    time.Time
	To      time.Time
	HasFrom bool
	HasTo   bool
}

const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Portal query parameter names for the judgment date bounds.
const (
	paramDateFrom = "odDaty"
	paramDateTo   = "doDaty"
)

// NormalizeDateRange validates the optional bounds and returns the portal
// form parameters to merge into the payload. Only supplied bounds produce
// parameters. The portal's own date filtering is trusted; no local
// re-filtering by signature year happens anywhere in the engine, because a
// case's signature year need not match its judgment date.
func NormalizeDateRange(fromStr, toStr string) (DateRange, map[string]string, error) {
	var rng DateRange
	params := map[string]string{}

	fromStr = strings.TrimSpace(fromStr)
	toStr = strings.TrimSpace(toStr)

	if fromStr != "" {
		from, err := parseDate(fromStr)
		if err != nil {
			return DateRange{}, nil, err
		}
		rng.From = from
		rng.HasFrom = true
		params[paramDateFrom] = fromStr
	}
	if toStr != "" {
		to, err := parseDate(toStr)
		if err != nil {
			return DateRange{}, nil, err
		}
		rng.To = to
		rng.HasTo = true
		params[paramDateTo] = toStr
	}

	if rng.HasFrom && rng.HasTo && rng.From.After(rng.To) {
		return DateRange{}, nil, &ValidationError{
			Kind:    InvalidDateRange,
			Message: fmt.Sprintf("start date %s is after end date %s", fromStr, toStr),
		}
	}
	return rng, params, nil
}

func parseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, &ValidationError{
			Kind:    InvalidDateFormat,
			Message: fmt.Sprintf("%q does not match YYYY-MM-DD", s),
		}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{
			Kind:    InvalidDateFormat,
			Message: fmt.Sprintf("%q is not a valid calendar date", s),
		}
	}
	return t, nil
}
