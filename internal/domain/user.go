package domain

import "time"

// User represents a registered account of the system.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	ProfilePic   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the identity a request acts as. The zero value is anonymous.
type Actor struct {
	UserID   int64
	Username string
}

func (a Actor) Authenticated() bool {
	return a.UserID > 0
}
