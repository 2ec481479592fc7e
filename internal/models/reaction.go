package models

import "time"

// MessageReaction is an emoji reaction. At most one row exists per
// (message, user) pair at any time; reacting again replaces or removes it.
type MessageReaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UserName  string    `db:"username" json:"user_name,omitempty"`
}

// ReactionOutcome reports what a React call did.
type ReactionOutcome string

const (
	ReactionAdded   ReactionOutcome = "added"
	ReactionRemoved ReactionOutcome = "removed"
)
