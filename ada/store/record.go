package store

import (
	"errors"
	"fmt"
	"time"
)

const maxPartySize = 500

// Record is one persisted reservation row.
type Record struct {
	ID              int64     `db:"id"`
	Sender          string    `db:"sender"`
	Name            string    `db:"name"`
	Surname         string    `db:"surname"`
	Date            string    `db:"date"`
	Time            string    `db:"time"`
	ReservationType string    `db:"reservation_type"`
	PartySize       int       `db:"party_size"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r Record) Validate() error {
	var errs []error
	if r.Sender == "" {
		errs = append(errs, errors.New("sender is required"))
	}
	if r.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.Date == "" || r.Time == "" {
		errs = append(errs, errors.New("date and time are required"))
	}
	if r.PartySize < 1 || r.PartySize > maxPartySize {
		errs = append(errs, fmt.Errorf("party size %d out of range", r.PartySize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid reservation: %w", err)
	}
	return nil
}
