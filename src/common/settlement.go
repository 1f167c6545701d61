package common

import (
	"context"
	"errors"
	"log"
	"time"

	"stash/src/fees"
	"stash/src/models"
	"stash/src/types"

	"github.com/stripe/stripe-go/v82"
)

// SettlementEngine runs the recurring billing tick and the early-termination
// path. Both acquire the same per-reservation lease before moving money, so a
// cancellation can never race a scheduled charge on the same document.
type SettlementEngine struct {
	Store    RecordStore
	Gateway  PaymentGateway
	Notifier Notifier

	Now       func() time.Time
	BatchSize int
	// MaxLease bounds how long a settlement attempt may own a reservation;
	// an older lease is treated as a crashed holder and reclaimed.
	MaxLease time.Duration
}

func NewSettlementEngine(store RecordStore, gateway PaymentGateway) *SettlementEngine {
	return &SettlementEngine{
		Store:     store,
		Gateway:   gateway,
		Now:       time.Now,
		BatchSize: 20,
		MaxLease:  10 * time.Minute,
	}
}

type SettlementReport struct {
	Found   int `json:"found"`
	Settled int `json:"settled"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RunDueSettlements charges renters and pays hosts for every reservation
// whose due date has arrived, up to the batch size. One reservation's failure
// never aborts the batch; the item stays due and is retried on the next tick.
func (e *SettlementEngine) RunDueSettlements(ctx context.Context) (*SettlementReport, error) {
	now := e.Now()
	due, err := e.Store.DueReservations(ctx, now, now.Add(-e.MaxLease), e.BatchSize)
	if err != nil {
		return nil, Retryable("querying due reservations", err)
	}
	report := &SettlementReport{Found: len(due)}
	if len(due) == 0 {
		return report, nil
	}
	log.Printf("[Settlement] Found %d reservation(s) due for payment\n", len(due))
	for _, r := range due {
		if err := e.settleReservation(ctx, r); err != nil {
			if errors.Is(err, ErrLeaseHeld) {
				report.Skipped++
				continue
			}
			log.Printf("[Settlement] Failed to settle reservation %s: %s\n", r.ID, err.Error())
			report.Failed++
			if e.Notifier != nil {
				e.Notifier.NotifyPaymentFailed(ctx, r.RequesterID, r.ID)
			}
			continue
		}
		report.Settled++
	}
	log.Printf("[Settlement] Done: settled=%d failed=%d skipped=%d\n", report.Settled, report.Failed, report.Skipped)
	return report, nil
}

func (e *SettlementEngine) settleReservation(ctx context.Context, r *models.Reservation) error {
	now := e.Now()
	if err := e.Store.AcquireReservation(ctx, r.ID, now, now.Add(-e.MaxLease)); err != nil {
		return err
	}
	settled := false
	defer func() {
		if settled {
			return
		}
		if err := e.Store.ReleaseReservation(ctx, r.ID); err != nil {
			log.Printf("[Settlement] Error releasing reservation %s: %s\n", r.ID, err.Error())
		}
	}()

	space, err := e.Store.GetSpace(ctx, r.SpaceID)
	if err != nil {
		return err
	}
	price, err := fees.PriceMinorUnits(space.Price)
	if err != nil {
		return err
	}
	split := fees.Split(price)

	host, err := e.Store.GetUser(ctx, r.OwnerID)
	if err != nil {
		return err
	}
	if host.StripeHost == nil || host.StripeHost.AccountID == "" {
		return Precondition(CodeHostNotPayable, "host %s has no payable connected account", r.OwnerID)
	}
	renter, err := e.Store.GetUser(ctx, r.RequesterID)
	if err != nil {
		return err
	}
	if renter.StripeCustomer == nil || renter.StripeCustomer.CustomerID == "" {
		return Precondition(CodeNoCustomer, "renter %s has no gateway customer", r.RequesterID)
	}
	if renter.StripeCustomer.DefaultPaymentMethodID == nil {
		return Precondition(CodeNoPaymentMethod, "renter %s has no default payment method", r.RequesterID)
	}

	md := types.ChargeMetadata{
		Type:          types.TRANSACTION_RECURRING_PAYMENT,
		FeeModel:      fees.FeeModel,
		ReservationID: r.ID,
		RenterID:      r.RequesterID,
		HostID:        r.OwnerID,
		BaseAmount:    split.BaseAmount,
		RenterFee:     split.RenterFee,
		HostFee:       split.HostFee,
		HostPayout:    split.HostPayout,
		PlatformFee:   split.ApplicationFee,
	}
	params := &stripe.PaymentIntentCreateParams{
		Amount:               stripe.Int64(split.AmountCharged),
		Currency:             stripe.String(string(stripe.CurrencyUSD)),
		Customer:             stripe.String(renter.StripeCustomer.CustomerID),
		PaymentMethod:        renter.StripeCustomer.DefaultPaymentMethodID,
		OffSession:           stripe.Bool(true),
		Confirm:              stripe.Bool(true),
		ApplicationFeeAmount: stripe.Int64(split.ApplicationFee),
		TransferData: &stripe.PaymentIntentCreateTransferDataParams{
			Destination: stripe.String(host.StripeHost.AccountID),
		},
		Metadata: md.ToMap(),
	}
	// a crash after the charge but before the cursor write repeats this call
	// on the next tick with the same key, so the gateway will not double-charge
	params.IdempotencyKey = stripe.String(ChargeIdempotencyKey(r.ID, r.NextPaymentDate.UTC().Format(time.RFC3339)))

	pi, err := e.Gateway.CreatePaymentIntent(ctx, params)
	if err != nil {
		return Retryable("creating payment intent", err)
	}

	next := fees.NextDueDate(now, space.Frequency)
	if err := e.Store.AdvanceBillingCursor(ctx, r.ID, now, next); err != nil {
		return err
	}
	settled = true
	log.Printf("[Settlement] Reservation %s settled: intent=%s amount=%d next=%s\n",
		r.ID, pi.ID, split.AmountCharged, next.Format(time.RFC3339))
	return nil
}
