package lib

import (
	"context"
	"log"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

// NewStripeClient replaces the lazily-built client, for tests.
func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeGateway adapts the raw Stripe client to the narrow surface the
// settlement components consume, so tests can substitute a fake gateway.
type StripeGateway struct {
	sc *stripe.Client
}

func NewStripeGateway(sc *stripe.Client) *StripeGateway {
	return &StripeGateway{sc: sc}
}

func (g *StripeGateway) CreateAccount(ctx context.Context, params *stripe.AccountCreateParams) (*stripe.Account, error) {
	return g.sc.V1Accounts.Create(ctx, params)
}

func (g *StripeGateway) CreateAccountLink(ctx context.Context, params *stripe.AccountLinkCreateParams) (*stripe.AccountLink, error) {
	return g.sc.V1AccountLinks.Create(ctx, params)
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error) {
	return g.sc.V1Customers.Create(ctx, params)
}

func (g *StripeGateway) UpdateCustomer(ctx context.Context, id string, params *stripe.CustomerUpdateParams) (*stripe.Customer, error) {
	return g.sc.V1Customers.Update(ctx, id, params)
}

func (g *StripeGateway) CreateSetupIntent(ctx context.Context, params *stripe.SetupIntentCreateParams) (*stripe.SetupIntent, error) {
	return g.sc.V1SetupIntents.Create(ctx, params)
}

func (g *StripeGateway) RetrievePaymentMethod(ctx context.Context, id string) (*stripe.PaymentMethod, error) {
	return g.sc.V1PaymentMethods.Retrieve(ctx, id, nil)
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	return g.sc.V1PaymentIntents.Create(ctx, params)
}

func (g *StripeGateway) RetrieveBalance(ctx context.Context, accountID string) (*stripe.Balance, error) {
	params := &stripe.BalanceRetrieveParams{}
	params.StripeAccount = stripe.String(accountID)
	return g.sc.V1Balance.Retrieve(ctx, params)
}

func (g *StripeGateway) ListPayouts(ctx context.Context, accountID string, limit int64) ([]*stripe.Payout, error) {
	params := &stripe.PayoutListParams{}
	params.StripeAccount = stripe.String(accountID)
	params.Limit = stripe.Int64(limit)
	payouts := make([]*stripe.Payout, 0)
	for payout, err := range g.sc.V1Payouts.List(ctx, params) {
		if err != nil {
			log.Printf("[Stripe] Expected a list but got error: %s\n", err.Error())
			return nil, err
		}
		payouts = append(payouts, payout)
	}
	return payouts, nil
}
