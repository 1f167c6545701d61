package models

import (
	"stash/src/types"
	"time"
)

type Reservation struct {
	ID          string                  `firestore:"-" json:"id"`
	RequesterID string                  `firestore:"requesterId" json:"requester_id"`
	OwnerID     string                  `firestore:"ownerId" json:"owner_id"`
	SpaceID     string                  `firestore:"spaceId" json:"space_id"`
	Status      types.ReservationStatus `firestore:"status" json:"status"`

	StartDate time.Time  `firestore:"startDate" json:"start_date"`
	EndDate   *time.Time `firestore:"endDate" json:"end_date,omitempty"`

	// Billing cursor. IsProcessing together with ProcessingAt forms a lease:
	// a holder older than the maximum hold duration is considered crashed and
	// its reservation becomes eligible again.
	LastPaymentDate *time.Time `firestore:"lastPaymentDate" json:"last_payment_date,omitempty"`
	NextPaymentDate time.Time  `firestore:"nextPaymentDate" json:"next_payment_date"`
	IsProcessing    bool       `firestore:"isProcessing" json:"-"`
	ProcessingAt    *time.Time `firestore:"processingAt" json:"-"`

	Cancellation *CancellationRecord `firestore:"cancellation" json:"cancellation,omitempty"`

	CreatedAt time.Time `firestore:"createdAt,serverTimestamp" json:"created_at"`
	UpdatedAt time.Time `firestore:"updatedAt,serverTimestamp" json:"updated_at"`
}

// CancellationRecord is written at most once per reservation.
type CancellationRecord struct {
	BaseAmount      int64     `firestore:"baseAmount" json:"base_amount"`
	RenterFee       int64     `firestore:"renterFee" json:"renter_fee"`
	HostFee         int64     `firestore:"hostFee" json:"host_fee"`
	HostPayout      int64     `firestore:"hostPayout" json:"host_payout"`
	PlatformFee     int64     `firestore:"platformFee" json:"platform_fee"`
	PaymentIntentID *string   `firestore:"paymentIntentId" json:"payment_intent_id,omitempty"`
	FeeModel        string    `firestore:"feeModel" json:"fee_model"`
	CancelledAt     time.Time `firestore:"cancelledAt" json:"cancelled_at"`
}
