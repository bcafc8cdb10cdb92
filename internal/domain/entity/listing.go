package entity

import "time"

// Listing is the read-only view of the catalog this service consumes: it
// resolves the seller for a listing at transaction- and conversation-creation
// time. Catalog management lives elsewhere.
type Listing struct {
	ID        string    `json:"id" firestore:"id"`
	SellerID  string    `json:"seller_id" firestore:"sellerId"`
	Title     string    `json:"title" firestore:"title"`
	Price     int64     `json:"price" firestore:"price"`
	Status    string    `json:"status" firestore:"status"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

func (l *Listing) Active() bool {
	return l.Status == "active"
}
