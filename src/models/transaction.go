package models

import (
	"stash/src/types"
	"time"
)

// Transaction is a ledger record keyed by the gateway's own event/object id,
// never a store-generated one, so repeated webhook delivery merges onto the
// same document.
type Transaction struct {
	ID            string                `firestore:"-" json:"id"`
	Type          types.TransactionType `firestore:"type" json:"type"`
	Amount        int64                 `firestore:"amount" json:"amount"`
	Currency      string                `firestore:"currency" json:"currency"`
	ReservationID *string               `firestore:"reservationId" json:"reservation_id,omitempty"`
	Metadata      map[string]string     `firestore:"metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time             `firestore:"createdAt,serverTimestamp" json:"created_at"`
}
