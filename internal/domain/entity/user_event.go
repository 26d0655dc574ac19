package entity

import "time"

type UserEventType string

const (
	UserCreated    UserEventType = "user.created"
	UserRegistered UserEventType = "user.registered"
	UserUpdated    UserEventType = "user.updated"
	UserDeleted    UserEventType = "user.deleted"
)

// UserEvent is published after a committed mutation.
type UserEvent struct {
	Type       UserEventType `json:"type"`
	User       User          `json:"user"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewUserEvent(t UserEventType, u *User) UserEvent {
	return UserEvent{Type: t, User: *u, OccurredAt: time.Now().UTC()}
}
