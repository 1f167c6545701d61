package store

import (
	"context"
	"log"
	"time"

	"stash/src/common"
	"stash/src/models"
	"stash/src/types"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const (
	usersCollection          = "users"
	spacesCollection         = "spaces"
	reservationsCollection   = "reservations"
	transactionsCollection   = "transactions"
	paymentMethodsCollection = "paymentMethods"
)

// Firestore implements common.RecordStore on the hierarchical document
// database that is the system's single source of truth.
type Firestore struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

var _ common.RecordStore = (*Firestore)(nil)

func (s *Firestore) GetUser(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if snap != nil && !snap.Exists() {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, err
	}
	user.ID = snap.Ref.ID
	return &user, nil
}

func (s *Firestore) GetSpace(ctx context.Context, id string) (*models.Space, error) {
	snap, err := s.client.Collection(spacesCollection).Doc(id).Get(ctx)
	if err != nil {
		if snap != nil && !snap.Exists() {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	var space models.Space
	if err := snap.DataTo(&space); err != nil {
		return nil, err
	}
	space.ID = snap.Ref.ID
	return &space, nil
}

func (s *Firestore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	snap, err := s.client.Collection(reservationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if snap != nil && !snap.Exists() {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	var r models.Reservation
	if err := snap.DataTo(&r); err != nil {
		return nil, err
	}
	r.ID = snap.Ref.ID
	return &r, nil
}

func (s *Firestore) CreateReservation(ctx context.Context, r *models.Reservation) (string, error) {
	ref := s.client.Collection(reservationsCollection).NewDoc()
	if _, err := ref.Create(ctx, r); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *Firestore) DueReservations(ctx context.Context, now, staleBefore time.Time, limit int) ([]*models.Reservation, error) {
	col := s.client.Collection(reservationsCollection)
	due, err := s.collectReservations(ctx, col.
		Where("status", "==", string(types.RESERVATION_CONFIRMED)).
		Where("isProcessing", "==", false).
		Where("nextPaymentDate", "<=", now).
		Limit(limit))
	if err != nil {
		return nil, err
	}

	// second pass reclaims leases whose holder crashed mid-run; the due-date
	// filter happens client-side because the query already carries an
	// inequality on processingAt
	stale, err := s.collectReservations(ctx, col.
		Where("status", "==", string(types.RESERVATION_CONFIRMED)).
		Where("isProcessing", "==", true).
		Where("processingAt", "<", staleBefore).
		Limit(limit))
	if err != nil {
		return nil, err
	}
	for _, r := range stale {
		if len(due) >= limit {
			break
		}
		if r.NextPaymentDate.After(now) {
			continue
		}
		log.Printf("[Store] Reclaiming stale settlement lease on reservation %s\n", r.ID)
		due = append(due, r)
	}
	return due, nil
}

func (s *Firestore) collectReservations(ctx context.Context, q firestore.Query) ([]*models.Reservation, error) {
	it := q.Documents(ctx)
	defer it.Stop()
	reservations := make([]*models.Reservation, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var r models.Reservation
		if err := snap.DataTo(&r); err != nil {
			return nil, err
		}
		r.ID = snap.Ref.ID
		reservations = append(reservations, &r)
	}
	return reservations, nil
}

func (s *Firestore) AcquireReservation(ctx context.Context, id string, at, staleBefore time.Time) error {
	ref := s.client.Collection(reservationsCollection).Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if snap != nil && !snap.Exists() {
				return common.ErrNotFound
			}
			return err
		}
		var r models.Reservation
		if err := snap.DataTo(&r); err != nil {
			return err
		}
		if r.IsProcessing && r.ProcessingAt != nil && r.ProcessingAt.After(staleBefore) {
			return common.ErrLeaseHeld
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "isProcessing", Value: true},
			{Path: "processingAt", Value: at},
		})
	})
}

func (s *Firestore) ReleaseReservation(ctx context.Context, id string) error {
	_, err := s.client.Collection(reservationsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isProcessing", Value: false},
		{Path: "processingAt", Value: nil},
	})
	return err
}

func (s *Firestore) AdvanceBillingCursor(ctx context.Context, id string, paidAt, next time.Time) error {
	_, err := s.client.Collection(reservationsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "lastPaymentDate", Value: paidAt},
		{Path: "nextPaymentDate", Value: next},
		{Path: "isProcessing", Value: false},
		{Path: "processingAt", Value: nil},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	return err
}

func (s *Firestore) ConfirmReservation(ctx context.Context, id string, firstDue time.Time) error {
	_, err := s.client.Collection(reservationsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(types.RESERVATION_CONFIRMED)},
		{Path: "nextPaymentDate", Value: firstDue},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	return err
}

func (s *Firestore) UpdateReservationStatus(ctx context.Context, id string, status types.ReservationStatus) error {
	_, err := s.client.Collection(reservationsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	return err
}

func (s *Firestore) RecordCancellation(ctx context.Context, id string, status types.ReservationStatus, rec *models.CancellationRecord) error {
	ref := s.client.Collection(reservationsCollection).Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if snap != nil && !snap.Exists() {
				return common.ErrNotFound
			}
			return err
		}
		var r models.Reservation
		if err := snap.DataTo(&r); err != nil {
			return err
		}
		if r.Cancellation != nil {
			return common.ErrAlreadyCancelled
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(status)},
			{Path: "cancellation", Value: rec},
			{Path: "isProcessing", Value: false},
			{Path: "processingAt", Value: nil},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
}

func (s *Firestore) SetHostAccount(ctx context.Context, userID string, host *models.StripeHost) error {
	_, err := s.client.Collection(usersCollection).Doc(userID).Set(ctx, map[string]any{
		"stripeHost": host,
	}, firestore.MergeAll)
	return err
}

func (s *Firestore) UpdateHostFlags(ctx context.Context, accountID string, flags common.HostFlags) (int, error) {
	it := s.client.Collection(usersCollection).
		Where("stripeHost.accountId", "==", accountID).
		Documents(ctx)
	defer it.Stop()

	batch := s.client.Batch()
	count := 0
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, err
		}
		batch.Update(snap.Ref, []firestore.Update{
			{Path: "stripeHost.chargesEnabled", Value: flags.ChargesEnabled},
			{Path: "stripeHost.payoutsEnabled", Value: flags.PayoutsEnabled},
			{Path: "stripeHost.detailsSubmitted", Value: flags.DetailsSubmitted},
			{Path: "stripeHost.onboardingComplete", Value: flags.OnboardingComplete},
			{Path: "stripeHost.updatedAt", Value: firestore.ServerTimestamp},
		})
		count++
	}
	if count == 0 {
		return 0, nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Firestore) SetCustomer(ctx context.Context, userID string, customer *models.StripeCustomer) error {
	_, err := s.client.Collection(usersCollection).Doc(userID).Set(ctx, map[string]any{
		"stripeCustomer": customer,
	}, firestore.MergeAll)
	return err
}

func (s *Firestore) SavePaymentMethod(ctx context.Context, userID string, pm *models.PaymentMethod) error {
	_, err := s.client.Collection(usersCollection).Doc(userID).
		Collection(paymentMethodsCollection).Doc(pm.ID).
		Set(ctx, pm)
	return err
}

func (s *Firestore) ListPaymentMethods(ctx context.Context, userID string) ([]*models.PaymentMethod, error) {
	it := s.client.Collection(usersCollection).Doc(userID).
		Collection(paymentMethodsCollection).Documents(ctx)
	defer it.Stop()
	methods := make([]*models.PaymentMethod, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var pm models.PaymentMethod
		if err := snap.DataTo(&pm); err != nil {
			return nil, err
		}
		pm.ID = snap.Ref.ID
		methods = append(methods, &pm)
	}
	return methods, nil
}

func (s *Firestore) SetDefaultPaymentMethod(ctx context.Context, userID, pmID string) error {
	userRef := s.client.Collection(usersCollection).Doc(userID)
	it := userRef.Collection(paymentMethodsCollection).Documents(ctx)
	defer it.Stop()

	// one batch flips every instrument plus the user mirror, all-or-nothing
	batch := s.client.Batch()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		batch.Update(snap.Ref, []firestore.Update{
			{Path: "isDefault", Value: snap.Ref.ID == pmID},
		})
	}
	batch.Update(userRef, []firestore.Update{
		{Path: "stripeCustomer.defaultPaymentMethodId", Value: pmID},
	})
	_, err := batch.Commit(ctx)
	return err
}

func (s *Firestore) UpsertTransaction(ctx context.Context, id string, txn *models.Transaction) error {
	_, err := s.client.Collection(transactionsCollection).Doc(id).Set(ctx, txn, firestore.MergeAll)
	return err
}
