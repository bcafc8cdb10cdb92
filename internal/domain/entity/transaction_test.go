package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{
	StatusPending, StatusPaid, StatusShipped, StatusDelivered,
	StatusCompleted, StatusDisputed, StatusCancelled,
}

func TestCanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:   {StatusPaid, StatusCancelled},
		StatusPaid:      {StatusShipped, StatusDisputed},
		StatusShipped:   {StatusDelivered, StatusDisputed},
		StatusDelivered: {StatusCompleted, StatusDisputed},
		StatusDisputed:  {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusHasNoOutgoingEdges(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		assert.True(t, TerminalStatus(from))
		for _, to := range allStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s should be invalid", from, to)
		}
	}
}

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		name  string
		from  Status
		to    Status
		roles []Role
		want  bool
	}{
		{"buyer pays", StatusPending, StatusPaid, []Role{RoleBuyer}, true},
		{"seller cannot pay", StatusPending, StatusPaid, []Role{RoleSeller}, false},
		{"seller cancels pending", StatusPending, StatusCancelled, []Role{RoleSeller}, true},
		{"buyer cancels pending", StatusPending, StatusCancelled, []Role{RoleBuyer}, true},
		{"seller ships", StatusPaid, StatusShipped, []Role{RoleSeller}, true},
		{"buyer cannot ship", StatusPaid, StatusShipped, []Role{RoleBuyer}, false},
		{"buyer confirms delivery", StatusShipped, StatusDelivered, []Role{RoleBuyer}, true},
		{"seller cannot confirm delivery", StatusShipped, StatusDelivered, []Role{RoleSeller}, false},
		{"buyer completes", StatusDelivered, StatusCompleted, []Role{RoleBuyer}, true},
		{"system completes", StatusDelivered, StatusCompleted, []Role{RoleSystem}, true},
		{"seller cannot complete", StatusDelivered, StatusCompleted, []Role{RoleSeller}, false},
		{"buyer disputes paid", StatusPaid, StatusDisputed, []Role{RoleBuyer}, true},
		{"seller disputes delivered", StatusDelivered, StatusDisputed, []Role{RoleSeller}, true},
		{"arbitrator cannot dispute", StatusPaid, StatusDisputed, []Role{RoleArbitrator}, false},
		{"arbitrator resolves to completed", StatusDisputed, StatusCompleted, []Role{RoleArbitrator}, true},
		{"arbitrator resolves to cancelled", StatusDisputed, StatusCancelled, []Role{RoleArbitrator}, true},
		{"buyer cannot resolve dispute", StatusDisputed, StatusCompleted, []Role{RoleBuyer}, false},
		{"seller cannot resolve dispute", StatusDisputed, StatusCancelled, []Role{RoleSeller}, false},
		{"no roles", StatusPending, StatusPaid, nil, false},
		{"second role suffices", StatusDisputed, StatusCompleted, []Role{RoleBuyer, RoleArbitrator}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleAllowed(tt.from, tt.to, tt.roles))
		})
	}
}

func TestApplyKeepsMirrorInSync(t *testing.T) {
	transaction := &Transaction{BuyerID: "buyer-1", SellerID: "seller-1"}
	assert.Equal(t, StatusPending, transaction.CurrentStatus())
	assert.Equal(t, 0, transaction.Version())

	path := []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCompleted}
	for i, status := range path {
		at := time.Date(2026, 3, 1, 10, i, 0, 0, time.UTC)
		transaction.Apply(StatusChange{Status: status, Actor: "buyer-1", CreatedAt: at})

		assert.Equal(t, status, transaction.CurrentStatus())
		assert.Equal(t, transaction.CurrentStatus(), transaction.Status)
		assert.Equal(t, at, transaction.StatusChangedAt)
		assert.Equal(t, i+1, transaction.Version())
	}

	assert.Len(t, transaction.StatusHistory, len(path))
	for i, status := range path {
		assert.Equal(t, status, transaction.StatusHistory[i].Status)
	}
}

func TestActorRoles(t *testing.T) {
	transaction := &Transaction{BuyerID: "buyer-1", SellerID: "seller-1"}

	assert.Equal(t, []Role{RoleBuyer}, transaction.ActorRoles("buyer-1", false))
	assert.Equal(t, []Role{RoleSeller}, transaction.ActorRoles("seller-1", false))
	assert.Equal(t, []Role{RoleArbitrator}, transaction.ActorRoles("admin-1", true))
	assert.Equal(t, []Role{RoleSystem}, transaction.ActorRoles(SystemActorID, false))
	assert.Empty(t, transaction.ActorRoles("stranger", false))

	// A buyer who also happens to hold arbitration capability keeps both roles.
	assert.Equal(t, []Role{RoleBuyer, RoleArbitrator}, transaction.ActorRoles("buyer-1", true))
}

func TestValidStatus(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("refunded"))
	assert.False(t, ValidStatus(""))
}
