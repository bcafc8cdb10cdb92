package entity

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusDisputed  Status = "disputed"
	StatusCancelled Status = "cancelled"
)

type Role string

const (
	RoleBuyer      Role = "buyer"
	RoleSeller     Role = "seller"
	RoleArbitrator Role = "arbitrator"
	RoleSystem     Role = "system"
	RoleNone       Role = ""
)

// SystemActorID is recorded as the actor of automatic transitions
// (auto-confirm after the delivery grace period).
const SystemActorID = "system"

// StatusChange is one entry of the append-only audit trail. The trail is the
// source of truth for a transaction's current status.
type StatusChange struct {
	Status    Status    `json:"status" firestore:"status"`
	Actor     string    `json:"actor" firestore:"actor"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

type Transaction struct {
	ID        string `json:"id" firestore:"id"`
	ListingID string `json:"listing_id" firestore:"listingId"`
	BuyerID   string `json:"buyer_id" firestore:"buyerId"`
	SellerID  string `json:"seller_id" firestore:"sellerId"`

	// Amount is in minor currency units and immutable after creation.
	Amount int64 `json:"amount" firestore:"amount"`

	TrackingNumber string `json:"tracking_number,omitempty" firestore:"trackingNumber,omitempty"`

	StatusHistory []StatusChange `json:"status_history" firestore:"statusHistory"`

	// Status mirrors the last StatusHistory entry so Firestore can filter on
	// it. Written only by Apply; never mutated anywhere else.
	Status          Status    `json:"status" firestore:"status"`
	StatusChangedAt time.Time `json:"status_changed_at" firestore:"statusChangedAt"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// transitions maps each (from, to) edge to the roles allowed to trigger it.
// Any pair absent here is an invalid transition regardless of actor.
var transitions = map[Status]map[Status][]Role{
	StatusPending: {
		StatusPaid:      {RoleBuyer},
		StatusCancelled: {RoleBuyer, RoleSeller},
	},
	StatusPaid: {
		StatusShipped:  {RoleSeller},
		StatusDisputed: {RoleBuyer, RoleSeller},
	},
	StatusShipped: {
		StatusDelivered: {RoleBuyer},
		StatusDisputed:  {RoleBuyer, RoleSeller},
	},
	StatusDelivered: {
		StatusCompleted: {RoleBuyer, RoleSystem},
		StatusDisputed:  {RoleBuyer, RoleSeller},
	},
	StatusDisputed: {
		StatusCompleted: {RoleArbitrator},
		StatusCancelled: {RoleArbitrator},
	},
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered,
		StatusCompleted, StatusDisputed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the (from, to) edge exists in the table.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// AllowedRoles returns the roles permitted to trigger the (from, to) edge.
func AllowedRoles(from, to Status) []Role {
	return transitions[from][to]
}

// RoleAllowed reports whether any of the actor's roles may trigger the edge.
func RoleAllowed(from, to Status, roles []Role) bool {
	allowed := transitions[from][to]
	for _, have := range roles {
		for _, want := range allowed {
			if have == want {
				return true
			}
		}
	}
	return false
}

func TerminalStatus(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CurrentStatus derives the status from the audit trail.
func (t *Transaction) CurrentStatus() Status {
	if len(t.StatusHistory) == 0 {
		return StatusPending
	}
	return t.StatusHistory[len(t.StatusHistory)-1].Status
}

// Version is the optimistic-concurrency token: the length of the audit trail.
func (t *Transaction) Version() int {
	return len(t.StatusHistory)
}

// Apply appends a history entry and refreshes the query mirror. It is the
// only mutation path for a transaction's status.
func (t *Transaction) Apply(change StatusChange) {
	t.StatusHistory = append(t.StatusHistory, change)
	t.Status = change.Status
	t.StatusChangedAt = change.CreatedAt
}

// ActorRoles determines the actor's roles against this transaction's own
// buyer/seller ids plus the caller's resolved arbitrator capability. The
// system actor is only ever the auto-confirm job.
func (t *Transaction) ActorRoles(actorID string, arbitrator bool) []Role {
	var roles []Role
	if actorID == t.BuyerID {
		roles = append(roles, RoleBuyer)
	}
	if actorID == t.SellerID {
		roles = append(roles, RoleSeller)
	}
	if arbitrator {
		roles = append(roles, RoleArbitrator)
	}
	if actorID == SystemActorID {
		roles = append(roles, RoleSystem)
	}
	return roles
}
