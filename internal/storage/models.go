package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique field is already taken.
var ErrConflict = errors.New("already exists")

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Recommendation is the last successful suggestion result for a user.
type Recommendation struct {
	UserID      string
	Interests   string
	Location    string
	Communities string // JSON array stored as text
	Events      string // JSON array stored as text
	CreatedAt   time.Time
}
