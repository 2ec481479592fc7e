package models

import "time"

// Group is a named chat group. The creator is inserted as an admin member
// atomically with the group itself.
type Group struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatorID   int       `db:"creator_id" json:"creator_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GroupMember is a (group, user) pair, unique per pair.
type GroupMember struct {
	GroupID  int       `db:"group_id" json:"group_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
	IsAdmin  bool      `db:"is_admin" json:"is_admin"`
}
