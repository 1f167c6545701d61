package models

import "time"

type User struct {
	ID    string `firestore:"-" json:"id"`
	Name  string `firestore:"name" json:"name,omitempty"`
	Email string `firestore:"email" json:"email,omitempty"`

	StripeHost     *StripeHost     `firestore:"stripeHost" json:"-"`
	StripeCustomer *StripeCustomer `firestore:"stripeCustomer" json:"-"`
}

// StripeHost mirrors the connected account's eligibility flags. Created once
// by account setup; mutated exclusively by webhook reconciliation thereafter.
type StripeHost struct {
	AccountID          string    `firestore:"accountId" json:"account_id"`
	OnboardingComplete bool      `firestore:"onboardingComplete" json:"onboarding_complete"`
	ChargesEnabled     bool      `firestore:"chargesEnabled" json:"charges_enabled"`
	PayoutsEnabled     bool      `firestore:"payoutsEnabled" json:"payouts_enabled"`
	DetailsSubmitted   bool      `firestore:"detailsSubmitted" json:"details_submitted"`
	UpdatedAt          time.Time `firestore:"updatedAt,serverTimestamp" json:"updated_at"`
}

type StripeCustomer struct {
	CustomerID             string  `firestore:"customerId" json:"customer_id"`
	DefaultPaymentMethodID *string `firestore:"defaultPaymentMethodId" json:"default_payment_method_id,omitempty"`
	Livemode               bool    `firestore:"livemode" json:"livemode"`
}
