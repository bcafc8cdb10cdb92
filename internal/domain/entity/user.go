package entity

import "time"

// User is the slice of the identity record this service needs: a stable id,
// display data for conversation embeds, and the role that carries the
// arbitrator capability.
type User struct {
	ID        string    `json:"id" firestore:"id"`
	Username  string    `json:"username" firestore:"username"`
	Role      string    `json:"role" firestore:"role"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// IsArbitrator reports the arbitration capability. Arbitration is a
// capability of the identity record, never stored on a transaction.
func (u *User) IsArbitrator() bool {
	return u.Role == "admin"
}
