package entity

import (
	"time"
)

// User is the aggregate root of the directory.
//
// ID, Version and the timestamps are owned by the repository: ID is assigned
// by the service before insert, Version starts at 1 and is bumped by every
// successful update.
type User struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a detached copy of u.
func (u *User) Clone() *User {
	c := *u
	return &c
}
