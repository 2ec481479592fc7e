package models

import "time"

// User is a registered account. Registration itself is handled elsewhere; this
// service only reads users and mutates last_seen and push_subscription.
type User struct {
	ID               int       `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	Email            string    `db:"email" json:"email"`
	Status           *string   `db:"status" json:"status,omitempty"`
	LastSeen         time.Time `db:"last_seen" json:"last_seen"`
	PushSubscription *string   `db:"push_subscription" json:"-"`
}
