package models

// PaymentMethod is the store-side mirror of a gateway payment instrument,
// kept in the paymentMethods subcollection under the owning user. At most one
// per user has IsDefault set; the flip is a single batched write.
type PaymentMethod struct {
	ID        string `firestore:"-" json:"id"`
	Brand     string `firestore:"brand" json:"brand"`
	Last4     string `firestore:"last4" json:"last4"`
	ExpMonth  int64  `firestore:"expMonth" json:"exp_month"`
	ExpYear   int64  `firestore:"expYear" json:"exp_year"`
	IsDefault bool   `firestore:"isDefault" json:"is_default"`
}
