package models

import "time"

// Site is a construction site a purchase request targets.
type Site struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Address   string     `db:"address" json:"address,omitempty"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	Active    bool       `db:"active" json:"active"`
}
