package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stripe-subscription-relay/internal/model"
)

const (
	usersCollection          = "users"
	paymentMethodsCollection = "paymentMethods"
)

// LedgerRepository is the Firestore mirror of processor-side billing state.
// Writes touch individual fields only; the user document is owned by the
// surrounding application.
type LedgerRepository interface {
	// GetUser returns an empty record (not an error) when the document
	// does not exist yet.
	GetUser(ctx context.Context, userID string) (*model.UserRecord, error)
	SetSubscription(ctx context.Context, userID, customerID, subscriptionID, subscriptionStatus string) error
	// FindByCustomerID returns every user record whose stripeCustomerId
	// matches. The customer id is intended to be unique per user; callers
	// take the first match and warn on collisions.
	FindByCustomerID(ctx context.Context, customerID string) ([]*model.UserRecord, error)
	RecordPaymentSucceeded(ctx context.Context, userID string, entry model.PaymentHistoryEntry) error
	MarkCanceling(ctx context.Context, userID string) error
	MarkCancelled(ctx context.Context, userID string, endedAt time.Time) error
	SavePaymentMethod(ctx context.Context, userID, paymentMethodID string, pm *model.SavedPaymentMethod) error
}

type ledgerRepoImpl struct {
	fs *firestore.Client
}

func NewLedgerRepository(fs *firestore.Client) LedgerRepository {
	return &ledgerRepoImpl{fs: fs}
}

func (r *ledgerRepoImpl) GetUser(ctx context.Context, userID string) (*model.UserRecord, error) {
	doc, err := r.fs.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &model.UserRecord{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	var rec model.UserRecord
	if err := doc.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	rec.UserID = userID

	return &rec, nil
}

func (r *ledgerRepoImpl) SetSubscription(ctx context.Context, userID, customerID, subscriptionID, subscriptionStatus string) error {
	_, err := r.fs.Collection(usersCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"stripeCustomerId":   customerID,
		"subscriptionId":     subscriptionID,
		"subscriptionStatus": subscriptionStatus,
		"updatedAt":          time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("set subscription for user %s: %w", userID, err)
	}

	return nil
}

func (r *ledgerRepoImpl) FindByCustomerID(ctx context.Context, customerID string) ([]*model.UserRecord, error) {
	iter := r.fs.Collection(usersCollection).
		Where("stripeCustomerId", "==", customerID).
		Limit(2).
		Documents(ctx)
	defer iter.Stop()

	var records []*model.UserRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query users by customer id: %w", err)
		}

		var rec model.UserRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", doc.Ref.ID, err)
		}
		rec.UserID = doc.Ref.ID
		records = append(records, &rec)
	}

	return records, nil
}

func (r *ledgerRepoImpl) RecordPaymentSucceeded(ctx context.Context, userID string, entry model.PaymentHistoryEntry) error {
	_, err := r.fs.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "subscriptionStatus", Value: model.StatusActive},
		{Path: "lastPaymentAt", Value: entry.Date},
		{Path: "paymentHistory", Value: firestore.ArrayUnion(entry)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("record payment for user %s: %w", userID, err)
	}

	return nil
}

func (r *ledgerRepoImpl) MarkCanceling(ctx context.Context, userID string) error {
	_, err := r.fs.Collection(usersCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"subscriptionStatus": model.StatusCanceling,
		"cancelAtPeriodEnd":  true,
		"updatedAt":          time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("mark user %s canceling: %w", userID, err)
	}

	return nil
}

func (r *ledgerRepoImpl) MarkCancelled(ctx context.Context, userID string, endedAt time.Time) error {
	_, err := r.fs.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "subscriptionStatus", Value: model.StatusCancelled},
		{Path: "subscriptionEndedAt", Value: endedAt},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("mark user %s cancelled: %w", userID, err)
	}

	return nil
}

func (r *ledgerRepoImpl) SavePaymentMethod(ctx context.Context, userID, paymentMethodID string, pm *model.SavedPaymentMethod) error {
	_, err := r.fs.Collection(usersCollection).Doc(userID).
		Collection(paymentMethodsCollection).Doc(paymentMethodID).
		Set(ctx, pm)
	if err != nil {
		return fmt.Errorf("save payment method for user %s: %w", userID, err)
	}

	return nil
}
