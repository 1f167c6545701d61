package common

import (
	"context"
	"log"

	"stash/src/models"
	"stash/src/types"

	"github.com/stripe/stripe-go/v82"
)

// LedgerWriter durably records settled charges delivered by webhook. Records
// are keyed by the gateway's own object id and merge-written, so redelivery
// of the same event lands on the same document.
type LedgerWriter struct {
	Store RecordStore
}

func NewLedgerWriter(store RecordStore) *LedgerWriter {
	return &LedgerWriter{Store: store}
}

func (w *LedgerWriter) RecordSettledIntent(ctx context.Context, pi *stripe.PaymentIntent) error {
	txnType := types.TransactionType(pi.Metadata["type"])
	if txnType == "" {
		txnType = types.TRANSACTION_RECURRING_PAYMENT
	}
	var reservationID *string
	if id, ok := pi.Metadata["reservationId"]; ok && id != "" {
		reservationID = &id
	}
	txn := &models.Transaction{
		Type:          txnType,
		Amount:        pi.Amount,
		Currency:      string(pi.Currency),
		ReservationID: reservationID,
		Metadata:      pi.Metadata,
	}
	if err := w.Store.UpsertTransaction(ctx, pi.ID, txn); err != nil {
		return err
	}
	log.Printf("[Ledger] Recorded %s for intent %s (%d %s)\n", txnType, pi.ID, pi.Amount, pi.Currency)
	return nil
}
