package models

import "time"

// User represents a row in the users table.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // digest, never serialize
	CreatedAt time.Time `json:"created_at"`
}
