package entity

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxLeadNameLength     = 100
	MaxLeadCompanyLength  = 200
	MaxLeadEmailLength    = 255
	MaxTaskTitleLength    = 255
	MaxCustomerNameLength = 100
)

func requiredText(field, value string, max int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", ValidationError{field, "is required"}
	}
	if utf8.RuneCountInString(v) > max {
		return "", ValidationError{field, fmt.Sprintf("must not exceed %d characters", max)}
	}
	return v, nil
}

func optionalText(field, value string, max int) (string, error) {
	v := strings.TrimSpace(value)
	if max > 0 && utf8.RuneCountInString(v) > max {
		return "", ValidationError{field, fmt.Sprintf("must not exceed %d characters", max)}
	}
	return v, nil
}

func finiteNumber(field string, value *float64) error {
	if value == nil {
		return nil
	}
	if math.IsNaN(*value) || math.IsInf(*value, 0) {
		return ValidationError{field, "must be a finite number"}
	}
	return nil
}

// Timestamp normalizes t to UTC at microsecond precision, the finest
// precision both engines store.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Date drops the time of day, keeping the calendar day t has in its own
// location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timestampPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := Timestamp(*t)
	return &v
}

func datePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := Date(*t)
	return &v
}
