package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCustomerCreatesOnce(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	seedRenter(store, "renter-1", "", "")
	m := NewCustomerManager(store, gw)

	id, err := m.EnsureCustomer(context.Background(), "renter-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", id)
	require.Len(t, gw.customerParams, 1)
	assert.Equal(t, CustomerIdempotencyKey("renter-1"), *gw.customerParams[0].IdempotencyKey)
	assert.Equal(t, "renter-1", gw.customerParams[0].Metadata["userId"])

	again, err := m.EnsureCustomer(context.Background(), "renter-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", again)
	assert.Len(t, gw.customerParams, 1)
}

func TestEnsureCustomerUnknownUser(t *testing.T) {
	store := newFakeStore()
	m := NewCustomerManager(store, &fakeGateway{})
	_, err := m.EnsureCustomer(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSetupIntentEnsuresCustomer(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	seedRenter(store, "renter-1", "", "")
	m := NewCustomerManager(store, gw)

	secret, err := m.CreateSetupIntent(context.Background(), "renter-1")
	require.NoError(t, err)
	assert.Equal(t, "seti_secret_test", secret)
	require.Len(t, gw.customerParams, 1)
	require.Len(t, gw.setupIntentParams, 1)
	assert.Equal(t, "cus_1", *gw.setupIntentParams[0].Customer)
}

func TestAttachFirstMethodBecomesDefault(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	seedRenter(store, "renter-1", "cus_renter", "")
	m := NewCustomerManager(store, gw)

	pm, err := m.AttachPaymentMethod(context.Background(), "renter-1", "pm_first")
	require.NoError(t, err)
	assert.True(t, pm.IsDefault)
	assert.Equal(t, "visa", pm.Brand)
	assert.Equal(t, "4242", pm.Last4)

	user := store.users["renter-1"]
	require.NotNil(t, user.StripeCustomer.DefaultPaymentMethodID)
	assert.Equal(t, "pm_first", *user.StripeCustomer.DefaultPaymentMethodID)
	require.Len(t, gw.updateCustomerParams, 1)
	assert.Equal(t, "pm_first", *gw.updateCustomerParams[0].InvoiceSettings.DefaultPaymentMethod)
}

func TestAttachSecondMethodKeepsDefault(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	seedRenter(store, "renter-1", "cus_renter", "pm_first")
	m := NewCustomerManager(store, gw)

	pm, err := m.AttachPaymentMethod(context.Background(), "renter-1", "pm_second")
	require.NoError(t, err)
	assert.False(t, pm.IsDefault)
	assert.Empty(t, gw.updateCustomerParams)
	assert.Equal(t, "pm_first", *store.users["renter-1"].StripeCustomer.DefaultPaymentMethodID)
}

func TestAttachRequiresCustomer(t *testing.T) {
	store := newFakeStore()
	seedRenter(store, "renter-1", "", "")
	m := NewCustomerManager(store, &fakeGateway{})

	_, err := m.AttachPaymentMethod(context.Background(), "renter-1", "pm_first")
	var pre *FailedPrecondition
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, CodeNoCustomer, pre.Code)
}

func TestSetDefaultFlipsExactlyOne(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	seedRenter(store, "renter-1", "cus_renter", "pm_first")
	m := NewCustomerManager(store, gw)
	ctx := context.Background()

	_, err := m.AttachPaymentMethod(ctx, "renter-1", "pm_first")
	require.NoError(t, err)
	_, err = m.AttachPaymentMethod(ctx, "renter-1", "pm_second")
	require.NoError(t, err)

	require.NoError(t, m.SetDefaultPaymentMethod(ctx, "renter-1", "pm_second"))

	methods, err := store.ListPaymentMethods(ctx, "renter-1")
	require.NoError(t, err)
	defaults := 0
	for _, pm := range methods {
		if pm.IsDefault {
			defaults++
			assert.Equal(t, "pm_second", pm.ID)
		}
	}
	assert.Equal(t, 1, defaults)
	assert.Equal(t, "pm_second", *store.users["renter-1"].StripeCustomer.DefaultPaymentMethodID)
}
