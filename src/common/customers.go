package common

import (
	"context"
	"fmt"
	"log"

	"stash/src/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
)

// idempotencyNamespace seeds the deterministic keys used on gateway creation
// calls so a retried request cannot produce a second customer or charge.
var idempotencyNamespace = uuid.MustParse("a2f8c7be-5d11-4cf2-9d4e-3b6f1e9a0c52")

func CustomerIdempotencyKey(userID string) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(fmt.Sprint("customer|", userID))).String()
}

func ChargeIdempotencyKey(reservationID, dueDate string) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(fmt.Sprint("charge|", reservationID, "|", dueDate))).String()
}

// CustomerManager owns the renter side of the gateway: the customer record
// and the stored payment instruments.
type CustomerManager struct {
	Store   RecordStore
	Gateway PaymentGateway
}

func NewCustomerManager(store RecordStore, gateway PaymentGateway) *CustomerManager {
	return &CustomerManager{Store: store, Gateway: gateway}
}

// EnsureCustomer returns the user's gateway customer id, creating one if
// needed. Creation carries a key derived from the user id so a retry under a
// transient failure cannot create a duplicate.
func (m *CustomerManager) EnsureCustomer(ctx context.Context, userID string) (string, error) {
	user, err := m.Store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomer != nil && user.StripeCustomer.CustomerID != "" {
		return user.StripeCustomer.CustomerID, nil
	}
	params := &stripe.CustomerCreateParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{"userId": userID},
	}
	params.IdempotencyKey = stripe.String(CustomerIdempotencyKey(userID))
	cus, err := m.Gateway.CreateCustomer(ctx, params)
	if err != nil {
		return "", Retryable("creating customer", err)
	}
	if err := m.Store.SetCustomer(ctx, userID, &models.StripeCustomer{
		CustomerID: cus.ID,
		Livemode:   cus.Livemode,
	}); err != nil {
		return "", err
	}
	return cus.ID, nil
}

// CreateSetupIntent ensures a customer and returns a client secret the caller
// uses to capture an instrument out-of-band.
func (m *CustomerManager) CreateSetupIntent(ctx context.Context, userID string) (string, error) {
	customerID, err := m.EnsureCustomer(ctx, userID)
	if err != nil {
		return "", err
	}
	si, err := m.Gateway.CreateSetupIntent(ctx, &stripe.SetupIntentCreateParams{
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.SetupIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"userId": userID},
	})
	if err != nil {
		return "", Retryable("creating setup intent", err)
	}
	return si.ClientSecret, nil
}

// AttachPaymentMethod mirrors a captured instrument into the store and
// promotes it to default when the user has none yet.
func (m *CustomerManager) AttachPaymentMethod(ctx context.Context, userID, pmID string) (*models.PaymentMethod, error) {
	user, err := m.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomer == nil || user.StripeCustomer.CustomerID == "" {
		return nil, Precondition(CodeNoCustomer, "no gateway customer exists for this user")
	}
	pm, err := m.Gateway.RetrievePaymentMethod(ctx, pmID)
	if err != nil {
		return nil, Retryable("retrieving payment method", err)
	}
	mirror := &models.PaymentMethod{ID: pm.ID}
	if pm.Card != nil {
		mirror.Brand = string(pm.Card.Brand)
		mirror.Last4 = pm.Card.Last4
		mirror.ExpMonth = pm.Card.ExpMonth
		mirror.ExpYear = pm.Card.ExpYear
	}
	if err := m.Store.SavePaymentMethod(ctx, userID, mirror); err != nil {
		return nil, err
	}
	if user.StripeCustomer.DefaultPaymentMethodID == nil {
		if err := m.SetDefaultPaymentMethod(ctx, userID, pm.ID); err != nil {
			return nil, err
		}
		mirror.IsDefault = true
	}
	return mirror, nil
}

// SetDefaultPaymentMethod updates the gateway customer's default instrument
// and flips the stored isDefault flags to match exactly the chosen id.
func (m *CustomerManager) SetDefaultPaymentMethod(ctx context.Context, userID, pmID string) error {
	user, err := m.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.StripeCustomer == nil || user.StripeCustomer.CustomerID == "" {
		return Precondition(CodeNoCustomer, "no gateway customer exists for this user")
	}
	if _, err := m.Gateway.UpdateCustomer(ctx, user.StripeCustomer.CustomerID, &stripe.CustomerUpdateParams{
		InvoiceSettings: &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(pmID),
		},
	}); err != nil {
		return Retryable("updating default payment method", err)
	}
	if err := m.Store.SetDefaultPaymentMethod(ctx, userID, pmID); err != nil {
		return err
	}
	log.Printf("[Customers] Default payment method for user %s is now %s\n", userID, pmID)
	return nil
}
