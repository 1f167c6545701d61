package common

import (
	"context"
	"log"

	"stash/src/fees"
	"stash/src/models"
	"stash/src/types"

	"github.com/stripe/stripe-go/v82"
)

// CancelReservation cancels a confirmed, not-yet-started reservation on the
// requester's behalf and charges the tiered early-termination fee. On any
// failure the reservation keeps its confirmed status, so the caller may
// retry. Returns the base amount charged (0 when the cancellation was free).
func (e *SettlementEngine) CancelReservation(ctx context.Context, callerID, reservationID string) (int64, error) {
	r, err := e.Store.GetReservation(ctx, reservationID)
	if err != nil {
		return 0, storeFault("loading reservation", err)
	}
	if r.RequesterID != callerID {
		return 0, Precondition(CodeNotRequester, "only the requester may cancel this reservation")
	}
	if r.Status != types.RESERVATION_CONFIRMED {
		return 0, Precondition(CodeNotConfirmed, "reservation is %s, not confirmed", r.Status)
	}
	now := e.Now()
	if !r.StartDate.After(now) {
		return 0, Precondition(CodeAlreadyStarted, "reservation has already started")
	}

	// same lease the recurring scheduler takes, so the two paths cannot both
	// settle this reservation
	if err := e.Store.AcquireReservation(ctx, r.ID, now, now.Add(-e.MaxLease)); err != nil {
		return 0, Retryable("acquiring reservation", err)
	}
	cancelled := false
	defer func() {
		if cancelled {
			return
		}
		if err := e.Store.ReleaseReservation(ctx, r.ID); err != nil {
			log.Printf("[Cancellation] Error releasing reservation %s: %s\n", r.ID, err.Error())
		}
	}()

	space, err := e.Store.GetSpace(ctx, r.SpaceID)
	if err != nil {
		return 0, storeFault("loading space", err)
	}
	price, err := fees.PriceMinorUnits(space.Price)
	if err != nil {
		return 0, err
	}
	base := fees.CancellationBase(r.StartDate, now, price)
	split := fees.Split(base)

	var intentID *string
	if base > 0 {
		// the fee is charged against stored details only; this path never
		// falls back to requesting new payment information
		renter, err := e.Store.GetUser(ctx, callerID)
		if err != nil {
			return 0, storeFault("loading renter", err)
		}
		if renter.StripeCustomer == nil || renter.StripeCustomer.CustomerID == "" {
			return 0, Precondition(CodeNoCustomer, "no gateway customer on file")
		}
		if renter.StripeCustomer.DefaultPaymentMethodID == nil {
			return 0, Precondition(CodeNoPaymentMethod, "no default payment method on file")
		}
		host, err := e.Store.GetUser(ctx, r.OwnerID)
		if err != nil {
			return 0, storeFault("loading host", err)
		}
		if host.StripeHost == nil || host.StripeHost.AccountID == "" {
			return 0, Precondition(CodeHostNotPayable, "host has no payable connected account")
		}

		md := types.ChargeMetadata{
			Type:          types.TRANSACTION_EARLY_CANCELLATION,
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
		params.IdempotencyKey = stripe.String(ChargeIdempotencyKey(r.ID, "cancellation"))

		pi, err := e.Gateway.CreatePaymentIntent(ctx, params)
		if err != nil {
			return 0, Retryable("charging cancellation fee", err)
		}
		intentID = &pi.ID
	}

	rec := &models.CancellationRecord{
		BaseAmount:      split.BaseAmount,
		RenterFee:       split.RenterFee,
		HostFee:         split.HostFee,
		HostPayout:      split.HostPayout,
		PlatformFee:     split.ApplicationFee,
		PaymentIntentID: intentID,
		FeeModel:        fees.FeeModel,
		CancelledAt:     now,
	}
	if err := e.Store.RecordCancellation(ctx, r.ID, types.RESERVATION_CANCELLED_BY_RENTER, rec); err != nil {
		return 0, storeFault("recording cancellation", err)
	}
	cancelled = true
	log.Printf("[Cancellation] Reservation %s cancelled by renter: base=%d hours_to_start=%.1f\n",
		r.ID, base, r.StartDate.Sub(now).Hours())
	return base, nil
}
