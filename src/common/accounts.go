package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"stash/src/config"
	"stash/src/models"

	"github.com/stripe/stripe-go/v82"
)

// AccountManager owns the host side of the gateway: connected-account
// creation, onboarding links, and reconciliation of eligibility flags pushed
// in by account webhooks.
type AccountManager struct {
	Store   RecordStore
	Gateway PaymentGateway
}

func NewAccountManager(store RecordStore, gateway PaymentGateway) *AccountManager {
	return &AccountManager{Store: store, Gateway: gateway}
}

// CreateHostAccount creates a connected account for the host, or returns the
// existing one with existed=true instead of creating a duplicate.
func (m *AccountManager) CreateHostAccount(ctx context.Context, userID string) (accountID string, existed bool, err error) {
	user, err := m.Store.GetUser(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if user.StripeHost != nil && user.StripeHost.AccountID != "" {
		return user.StripeHost.AccountID, true, nil
	}
	acc, err := m.Gateway.CreateAccount(ctx, &stripe.AccountCreateParams{
		Type:  stripe.String("express"),
		Email: stripe.String(user.Email),
		Capabilities: &stripe.AccountCreateCapabilitiesParams{
			CardPayments: &stripe.AccountCreateCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCreateCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
		Metadata: map[string]string{"userId": userID},
	})
	if err != nil {
		return "", false, Retryable("creating connected account", err)
	}
	if err := m.Store.SetHostAccount(ctx, userID, &models.StripeHost{AccountID: acc.ID}); err != nil {
		return "", false, err
	}
	return acc.ID, false, nil
}

// OnboardingLink requests a single-use onboarding URL for a previously
// created connected account.
func (m *AccountManager) OnboardingLink(ctx context.Context, userID string) (string, error) {
	user, err := m.Store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeHost == nil || user.StripeHost.AccountID == "" {
		return "", Precondition(CodeNoAccount, "no connected account exists for this user")
	}
	link, err := m.Gateway.CreateAccountLink(ctx, &stripe.AccountLinkCreateParams{
		Account:    stripe.String(user.StripeHost.AccountID),
		Type:       stripe.String("account_onboarding"),
		ReturnURL:  stripe.String(fmt.Sprint(config.APP_HOST, "/account/payouts")),
		RefreshURL: stripe.String(fmt.Sprint(config.APP_HOST, "/callback/account/refresh")),
	})
	if err != nil {
		return "", Retryable("creating onboarding link", err)
	}
	return link.URL, nil
}

// HandleAccountEvent reconciles eligibility flags from an admitted account
// webhook. Events outside the allow-list are ignored. Returns how many user
// documents were updated; the account↔user mapping is 1:1 by invariant but
// the fan-out is defensive against drift.
func (m *AccountManager) HandleAccountEvent(ctx context.Context, event *stripe.Event) (int, error) {
	switch event.Type {
	case "account.updated":
		var acc stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &acc); err != nil {
			log.Printf("[Stripe] Error parsing Account: %s\n", err.Error())
			return 0, err
		}
		return m.reconcile(ctx, acc.ID, HostFlags{
			ChargesEnabled:     acc.ChargesEnabled,
			PayoutsEnabled:     acc.PayoutsEnabled,
			DetailsSubmitted:   acc.DetailsSubmitted,
			OnboardingComplete: acc.ChargesEnabled && acc.PayoutsEnabled,
		})
	case "account.application.deauthorized":
		// the connected account revoked platform access; everything reverts
		return m.reconcile(ctx, event.Account, HostFlags{})
	default:
		return 0, nil
	}
}

func (m *AccountManager) reconcile(ctx context.Context, accountID string, flags HostFlags) (int, error) {
	if accountID == "" {
		return 0, nil
	}
	updated, err := m.Store.UpdateHostFlags(ctx, accountID, flags)
	if err != nil {
		return 0, err
	}
	log.Printf("[Accounts] Reconciled %d user(s) for account %s: charges=%v payouts=%v details=%v\n",
		updated, accountID, flags.ChargesEnabled, flags.PayoutsEnabled, flags.DetailsSubmitted)
	return updated, nil
}

// IsHostVerified reports whether the host can take charges and receive
// payouts.
func (m *AccountManager) IsHostVerified(ctx context.Context, userID string) (bool, error) {
	user, err := m.Store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.StripeHost == nil {
		return false, nil
	}
	return user.StripeHost.ChargesEnabled && user.StripeHost.PayoutsEnabled, nil
}
