package common

import (
	"context"
	"testing"

	"stash/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestRecordSettledIntentWritesLedger(t *testing.T) {
	store := newFakeStore()
	w := NewLedgerWriter(store)

	pi := &stripe.PaymentIntent{
		ID:       "pi_123",
		Amount:   2738,
		Currency: stripe.CurrencyUSD,
		Metadata: map[string]string{
			"type":          string(types.TRANSACTION_EARLY_CANCELLATION),
			"reservationId": "res-1",
		},
	}
	require.NoError(t, w.RecordSettledIntent(context.Background(), pi))

	txn, ok := store.transactions["pi_123"]
	require.True(t, ok)
	assert.Equal(t, types.TRANSACTION_EARLY_CANCELLATION, txn.Type)
	assert.Equal(t, int64(2738), txn.Amount)
	assert.Equal(t, "usd", txn.Currency)
	require.NotNil(t, txn.ReservationID)
	assert.Equal(t, "res-1", *txn.ReservationID)
}

func TestRecordSettledIntentDuplicateDelivery(t *testing.T) {
	store := newFakeStore()
	w := NewLedgerWriter(store)
	ctx := context.Background()

	pi := &stripe.PaymentIntent{ID: "pi_dup", Amount: 100, Currency: stripe.CurrencyUSD}
	require.NoError(t, w.RecordSettledIntent(ctx, pi))
	require.NoError(t, w.RecordSettledIntent(ctx, pi))

	assert.Len(t, store.transactions, 1)
}

func TestRecordSettledIntentDefaultsToRecurring(t *testing.T) {
	store := newFakeStore()
	w := NewLedgerWriter(store)

	pi := &stripe.PaymentIntent{ID: "pi_bare", Amount: 500, Currency: stripe.CurrencyUSD}
	require.NoError(t, w.RecordSettledIntent(context.Background(), pi))

	txn := store.transactions["pi_bare"]
	require.NotNil(t, txn)
	assert.Equal(t, types.TRANSACTION_RECURRING_PAYMENT, txn.Type)
	assert.Nil(t, txn.ReservationID)
}
