package common

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stash/src/models"
	"stash/src/types"

	"github.com/stripe/stripe-go/v82"
)

// fakeStore is the in-memory RecordStore the settlement tests run against.
type fakeStore struct {
	mu           sync.Mutex
	users        map[string]*models.User
	spaces       map[string]*models.Space
	reservations map[string]*models.Reservation
	methods      map[string][]*models.PaymentMethod
	transactions map[string]*models.Transaction

	spaceErr   error
	acquireErr error
	advanceErr error

	released []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]*models.User),
		spaces:       make(map[string]*models.Space),
		reservations: make(map[string]*models.Reservation),
		methods:      make(map[string][]*models.PaymentMethod),
		transactions: make(map[string]*models.Transaction),
	}
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) GetSpace(_ context.Context, id string) (*models.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spaceErr != nil {
		return nil, s.spaceErr
	}
	sp, ok := s.spaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sp, nil
}

func (s *fakeStore) GetReservation(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) CreateReservation(_ context.Context, r *models.Reservation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("res_%d", len(s.reservations)+1)
	r.ID = id
	s.reservations[id] = r
	return id, nil
}

func (s *fakeStore) DueReservations(_ context.Context, now, staleBefore time.Time, limit int) ([]*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	due := make([]*models.Reservation, 0)
	for _, r := range s.reservations {
		if r.Status != types.RESERVATION_CONFIRMED || r.NextPaymentDate.After(now) {
			continue
		}
		if r.IsProcessing && r.ProcessingAt != nil && r.ProcessingAt.After(staleBefore) {
			continue
		}
		due = append(due, r)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *fakeStore) AcquireReservation(_ context.Context, id string, at, staleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return s.acquireErr
	}
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	if r.IsProcessing && r.ProcessingAt != nil && r.ProcessingAt.After(staleBefore) {
		return ErrLeaseHeld
	}
	r.IsProcessing = true
	r.ProcessingAt = &at
	return nil
}

func (s *fakeStore) ReleaseReservation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.IsProcessing = false
	r.ProcessingAt = nil
	s.released = append(s.released, id)
	return nil
}

func (s *fakeStore) AdvanceBillingCursor(_ context.Context, id string, paidAt, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advanceErr != nil {
		return s.advanceErr
	}
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.LastPaymentDate = &paidAt
	r.NextPaymentDate = next
	r.IsProcessing = false
	r.ProcessingAt = nil
	return nil
}

func (s *fakeStore) ConfirmReservation(_ context.Context, id string, firstDue time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = types.RESERVATION_CONFIRMED
	r.NextPaymentDate = firstDue
	return nil
}

func (s *fakeStore) UpdateReservationStatus(_ context.Context, id string, status types.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	return nil
}

func (s *fakeStore) RecordCancellation(_ context.Context, id string, status types.ReservationStatus, rec *models.CancellationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	if r.Cancellation != nil {
		return ErrAlreadyCancelled
	}
	r.Status = status
	r.Cancellation = rec
	r.IsProcessing = false
	r.ProcessingAt = nil
	return nil
}

func (s *fakeStore) SetHostAccount(_ context.Context, userID string, host *models.StripeHost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.StripeHost = host
	return nil
}

func (s *fakeStore) UpdateHostFlags(_ context.Context, accountID string, flags HostFlags) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, u := range s.users {
		if u.StripeHost == nil || u.StripeHost.AccountID != accountID {
			continue
		}
		u.StripeHost.ChargesEnabled = flags.ChargesEnabled
		u.StripeHost.PayoutsEnabled = flags.PayoutsEnabled
		u.StripeHost.DetailsSubmitted = flags.DetailsSubmitted
		u.StripeHost.OnboardingComplete = flags.OnboardingComplete
		count++
	}
	return count, nil
}

func (s *fakeStore) SetCustomer(_ context.Context, userID string, customer *models.StripeCustomer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.StripeCustomer = customer
	return nil
}

func (s *fakeStore) SavePaymentMethod(_ context.Context, userID string, pm *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.methods[userID] {
		if existing.ID == pm.ID {
			*existing = *pm
			return nil
		}
	}
	s.methods[userID] = append(s.methods[userID], pm)
	return nil
}

func (s *fakeStore) ListPaymentMethods(_ context.Context, userID string) ([]*models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.methods[userID], nil
}

func (s *fakeStore) SetDefaultPaymentMethod(_ context.Context, userID, pmID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	for _, pm := range s.methods[userID] {
		pm.IsDefault = pm.ID == pmID
	}
	if u.StripeCustomer != nil {
		id := pmID
		u.StripeCustomer.DefaultPaymentMethodID = &id
	}
	return nil
}

func (s *fakeStore) UpsertTransaction(_ context.Context, id string, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn.ID = id
	s.transactions[id] = txn
	return nil
}

var _ RecordStore = (*fakeStore)(nil)

// fakeGateway records the params of every creation call and returns canned
// gateway objects.
type fakeGateway struct {
	mu sync.Mutex

	accountParams []*stripe.AccountCreateParams
	accountErr    error
	linkErr       error

	customerParams       []*stripe.CustomerCreateParams
	customerErr          error
	updateCustomerParams []*stripe.CustomerUpdateParams
	updateCustomerErr    error

	setupIntentParams []*stripe.SetupIntentCreateParams

	paymentMethod    *stripe.PaymentMethod
	paymentMethodErr error

	intentParams []*stripe.PaymentIntentCreateParams
	intentErr    error
}

func (g *fakeGateway) CreateAccount(_ context.Context, params *stripe.AccountCreateParams) (*stripe.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.accountErr != nil {
		return nil, g.accountErr
	}
	g.accountParams = append(g.accountParams, params)
	return &stripe.Account{ID: fmt.Sprintf("acct_%d", len(g.accountParams))}, nil
}

func (g *fakeGateway) CreateAccountLink(_ context.Context, params *stripe.AccountLinkCreateParams) (*stripe.AccountLink, error) {
	if g.linkErr != nil {
		return nil, g.linkErr
	}
	return &stripe.AccountLink{URL: "https://connect.stripe.com/setup/s/test"}, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.customerErr != nil {
		return nil, g.customerErr
	}
	g.customerParams = append(g.customerParams, params)
	return &stripe.Customer{ID: fmt.Sprintf("cus_%d", len(g.customerParams))}, nil
}

func (g *fakeGateway) UpdateCustomer(_ context.Context, id string, params *stripe.CustomerUpdateParams) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateCustomerErr != nil {
		return nil, g.updateCustomerErr
	}
	g.updateCustomerParams = append(g.updateCustomerParams, params)
	return &stripe.Customer{ID: id}, nil
}

func (g *fakeGateway) CreateSetupIntent(_ context.Context, params *stripe.SetupIntentCreateParams) (*stripe.SetupIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setupIntentParams = append(g.setupIntentParams, params)
	return &stripe.SetupIntent{ClientSecret: "seti_secret_test"}, nil
}

func (g *fakeGateway) RetrievePaymentMethod(_ context.Context, id string) (*stripe.PaymentMethod, error) {
	if g.paymentMethodErr != nil {
		return nil, g.paymentMethodErr
	}
	if g.paymentMethod != nil {
		return g.paymentMethod, nil
	}
	return &stripe.PaymentMethod{
		ID: id,
		Card: &stripe.PaymentMethodCard{
			Brand:    stripe.PaymentMethodCardBrandVisa,
			Last4:    "4242",
			ExpMonth: 12,
			ExpYear:  2030,
		},
	}, nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	g.intentParams = append(g.intentParams, params)
	return &stripe.PaymentIntent{ID: fmt.Sprintf("pi_%d", len(g.intentParams))}, nil
}

func (g *fakeGateway) RetrieveBalance(_ context.Context, accountID string) (*stripe.Balance, error) {
	return &stripe.Balance{}, nil
}

func (g *fakeGateway) ListPayouts(_ context.Context, accountID string, limit int64) ([]*stripe.Payout, error) {
	return []*stripe.Payout{}, nil
}

var _ PaymentGateway = (*fakeGateway)(nil)

type fakeNotifier struct {
	mu     sync.Mutex
	failed []string
}

func (n *fakeNotifier) NotifyPaymentFailed(_ context.Context, userID, reservationID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, reservationID)
}

func strptr(s string) *string { return &s }

func seedHost(s *fakeStore, id, accountID string) *models.User {
	u := &models.User{ID: id, Name: "Host", Email: id + "@example.com"}
	if accountID != "" {
		u.StripeHost = &models.StripeHost{
			AccountID:      accountID,
			ChargesEnabled: true,
			PayoutsEnabled: true,
		}
	}
	s.users[id] = u
	return u
}

func seedRenter(s *fakeStore, id, customerID, defaultPM string) *models.User {
	u := &models.User{ID: id, Name: "Renter", Email: id + "@example.com"}
	if customerID != "" {
		u.StripeCustomer = &models.StripeCustomer{CustomerID: customerID}
		if defaultPM != "" {
			u.StripeCustomer.DefaultPaymentMethodID = strptr(defaultPM)
		}
	}
	s.users[id] = u
	return u
}

func seedSpace(s *fakeStore, id, ownerID, price string, freq types.BillingFrequency) *models.Space {
	sp := &models.Space{ID: id, OwnerID: ownerID, Title: "Garage", Price: price, Frequency: freq}
	s.spaces[id] = sp
	return sp
}

func seedReservation(s *fakeStore, id string, r *models.Reservation) *models.Reservation {
	r.ID = id
	s.reservations[id] = r
	return r
}
