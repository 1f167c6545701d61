package models

import (
	"stash/src/types"
	"time"
)

// Space is read-only to the settlement engine; listing CRUD lives with the
// mobile client's endpoints.
type Space struct {
	ID        string                 `firestore:"-" json:"id"`
	OwnerID   string                 `firestore:"ownerId" json:"owner_id"`
	Title     string                 `firestore:"title" json:"title"`
	Price     string                 `firestore:"price" json:"price"`
	Frequency types.BillingFrequency `firestore:"frequency" json:"frequency"`
	CreatedAt time.Time              `firestore:"createdAt,serverTimestamp" json:"created_at"`
}
