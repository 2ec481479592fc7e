package models

import (
	"errors"
	"time"
)

// ErrInvalidTarget is returned when a message names zero or both of
// {receiver, group}. A message is either direct or group-scoped, never both.
var ErrInvalidTarget = errors.New("message must target exactly one of receiver or group")

// Message is immutable after creation except for the read flag, which only
// applies to direct messages.
type Message struct {
	ID          int       `db:"id" json:"id"`
	Content     string    `db:"content" json:"content"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	MessageType string    `db:"message_type" json:"message_type"`
	FilePath    *string   `db:"file_path" json:"file_path,omitempty"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	ReceiverID  *int      `db:"receiver_id" json:"receiver_id,omitempty"`
	GroupID     *int      `db:"group_id" json:"group_id,omitempty"`
	ReplyToID   *int      `db:"reply_to_id" json:"reply_to_id,omitempty"`
}

// IsDirect reports whether the message belongs to a one-to-one conversation.
func (m Message) IsDirect() bool {
	return m.ReceiverID != nil
}

// NewMessageParams carries everything needed to persist a message.
type NewMessageParams struct {
	SenderID    int
	ReceiverID  *int
	GroupID     *int
	Content     string
	MessageType string
	FilePath    *string
	ReplyToID   *int
}

// Validate enforces the exactly-one-target invariant.
func (p NewMessageParams) Validate() error {
	if (p.ReceiverID == nil) == (p.GroupID == nil) {
		return ErrInvalidTarget
	}
	return nil
}

// Preview returns a prefix of s capped at max runes, appending "..." when the
// original is longer. Purely presentational; stored content is never mutated.
func Preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
