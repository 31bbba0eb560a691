package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxPartySize is the largest party a single reservation can hold.
const MaxPartySize = 500

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTime      = errors.New("time must be in 24-hour HH:MM format")
	ErrQuotedPartySize  = errors.New("party_size must be a number, not a quoted string")
	ErrInvalidPartySize = errors.New("party_size must be a whole number")
	ErrPartySizeRange   = fmt.Errorf("party_size must be between 1 and %d", MaxPartySize)
)

type Field string

const (
	FieldName            Field = "name"
	FieldSurname         Field = "surname"
	FieldDate            Field = "date"
	FieldTime            Field = "time"
	FieldReservationType Field = "reservation_type"
	FieldPartySize       Field = "party_size"
)

// FieldError reports a rejected value for a single field.
type FieldError struct {
	Field Field
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Request is the in-progress reservation of one session.
type Request struct {
	Name            string `json:"name,omitempty"`
	Surname         string `json:"surname,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	ReservationType string `json:"reservation_type,omitempty"`
	PartySize       int    `json:"party_size,omitempty"`
}

// Has report whether field f holds a value.
func (r Request) Has(f Field) bool {
	switch f {
	case FieldName:
		return r.Name != ""
	case FieldSurname:
		return r.Surname != ""
	case FieldDate:
		return r.Date != ""
	case FieldTime:
		return r.Time != ""
	case FieldReservationType:
		return r.ReservationType != ""
	case FieldPartySize:
		return r.PartySize > 0
	}
	return false
}

// Value return the field formatted as text, empty when unknown.
func (r Request) Value(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldSurname:
		return r.Surname
	case FieldDate:
		return r.Date
	case FieldTime:
		return r.Time
	case FieldReservationType:
		return r.ReservationType
	case FieldPartySize:
		if r.PartySize > 0 {
			return fmt.Sprintf("%d", r.PartySize)
		}
	}
	return ""
}

func (r Request) FullName() string {
	return strings.TrimSpace(strings.Join([]string{r.Name, r.Surname}, " "))
}

// Summary restate the fields required by v.
func (r Request) Summary(v Variant) string {
	parts := []string{}
	if v.Requires(FieldName) || v.Requires(FieldSurname) {
		parts = append(parts, "name: "+r.FullName())
	}
	if v.Requires(FieldDate) {
		parts = append(parts, "date: "+r.Date)
	}
	if v.Requires(FieldTime) {
		parts = append(parts, "time: "+r.Time)
	}
	if v.Requires(FieldPartySize) {
		parts = append(parts, fmt.Sprintf("party size: %d", r.PartySize))
	}
	if v.Requires(FieldReservationType) || r.ReservationType != "" {
		parts = append(parts, "reservation type: "+r.ReservationType)
	}
	return strings.Join(parts, ", ")
}

// Update holds the values stated by the user in one turn. nil means not stated.
type Update struct {
	Name            *string
	Surname         *string
	Date            *string
	Time            *string
	ReservationType *string
	PartySize       *int
}

func (u Update) IsEmpty() bool {
	return u.Name == nil && u.Surname == nil && u.Date == nil &&
		u.Time == nil && u.ReservationType == nil && u.PartySize == nil
}

// NormalizeDate validate an ISO calendar date.
func NormalizeDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}

// NormalizeTime validate a 24-hour clock time and pad it to HH:MM.
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidTime
	}
	return t.Format(TimeLayout), nil
}

// ParsePartySize accept only numeric json values holding a whole positive number.
func ParsePartySize(v any) (int, error) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, ErrInvalidPartySize
		}
		n = f
	case string:
		return 0, ErrQuotedPartySize
	default:
		return 0, ErrInvalidPartySize
	}

	if n != math.Trunc(n) {
		return 0, ErrInvalidPartySize
	}
	if n < 1 || n > MaxPartySize {
		return 0, ErrPartySizeRange
	}
	return int(n), nil
}
