package common

import (
	"context"
	"time"

	"stash/src/models"
	"stash/src/types"

	"github.com/stripe/stripe-go/v82"
)

// PaymentGateway is the slice of the payment provider's API the settlement
// components consume. lib.StripeGateway implements it; tests substitute a
// fake.
type PaymentGateway interface {
	CreateAccount(ctx context.Context, params *stripe.AccountCreateParams) (*stripe.Account, error)
	CreateAccountLink(ctx context.Context, params *stripe.AccountLinkCreateParams) (*stripe.AccountLink, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error)
	UpdateCustomer(ctx context.Context, id string, params *stripe.CustomerUpdateParams) (*stripe.Customer, error)
	CreateSetupIntent(ctx context.Context, params *stripe.SetupIntentCreateParams) (*stripe.SetupIntent, error)
	RetrievePaymentMethod(ctx context.Context, id string) (*stripe.PaymentMethod, error)
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	RetrieveBalance(ctx context.Context, accountID string) (*stripe.Balance, error)
	ListPayouts(ctx context.Context, accountID string, limit int64) ([]*stripe.Payout, error)
}

// HostFlags is the eligibility state derived from a gateway account event.
type HostFlags struct {
	ChargesEnabled     bool
	PayoutsEnabled     bool
	DetailsSubmitted   bool
	OnboardingComplete bool
}

// RecordStore is the document-store surface the settlement components consume.
// store.Firestore implements it; tests substitute an in-memory fake.
type RecordStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetSpace(ctx context.Context, id string) (*models.Space, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	CreateReservation(ctx context.Context, r *models.Reservation) (string, error)

	// DueReservations returns confirmed reservations whose nextPaymentDate has
	// arrived and that are either unlocked or hold a lease acquired before
	// staleBefore (crashed holder, eligible for reclaim).
	DueReservations(ctx context.Context, now, staleBefore time.Time, limit int) ([]*models.Reservation, error)

	// AcquireReservation takes the reservation settlement lease. Returns
	// ErrLeaseHeld when another attempt owns a fresh lease.
	AcquireReservation(ctx context.Context, id string, at, staleBefore time.Time) error
	ReleaseReservation(ctx context.Context, id string) error

	// AdvanceBillingCursor stamps lastPaymentDate, moves nextPaymentDate and
	// releases the lease in a single document update.
	AdvanceBillingCursor(ctx context.Context, id string, paidAt, next time.Time) error

	ConfirmReservation(ctx context.Context, id string, firstDue time.Time) error
	UpdateReservationStatus(ctx context.Context, id string, status types.ReservationStatus) error

	// RecordCancellation transitions the reservation to the given terminal
	// status and writes the cancellation record, releasing the lease. The
	// record is write-once; a second call returns ErrAlreadyCancelled.
	RecordCancellation(ctx context.Context, id string, status types.ReservationStatus, rec *models.CancellationRecord) error

	SetHostAccount(ctx context.Context, userID string, host *models.StripeHost) error
	// UpdateHostFlags fans the flags out to every user whose stored account id
	// matches, returning how many documents were updated.
	UpdateHostFlags(ctx context.Context, accountID string, flags HostFlags) (int, error)

	SetCustomer(ctx context.Context, userID string, customer *models.StripeCustomer) error
	SavePaymentMethod(ctx context.Context, userID string, pm *models.PaymentMethod) error
	ListPaymentMethods(ctx context.Context, userID string) ([]*models.PaymentMethod, error)
	// SetDefaultPaymentMethod flips isDefault across the user's instruments to
	// match exactly pmID and mirrors the choice onto the user document, as one
	// all-or-nothing batch.
	SetDefaultPaymentMethod(ctx context.Context, userID, pmID string) error

	// UpsertTransaction merge-writes a ledger record keyed by the gateway's
	// event/object id.
	UpsertTransaction(ctx context.Context, id string, txn *models.Transaction) error
}

// Notifier delivers best-effort push notifications; failures are logged, never
// propagated into settlement outcomes.
type Notifier interface {
	NotifyPaymentFailed(ctx context.Context, userID, reservationID string)
}
