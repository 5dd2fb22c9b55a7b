package service

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v76"

	"stripe-subscription-relay/internal/model"
)

// fakeStripeClient counts calls and returns canned objects so orchestration
// logic can be asserted without the network.
type fakeStripeClient struct {
	customers map[string]*stripe.Customer

	getCustomerErr   error
	attachErr        error
	setDefaultErr    error
	createSubErr     error
	cancelErr        error
	getPaymentMethod *stripe.PaymentMethod

	createdCustomers int
	createdSubs      int
	attachCalls      int
	cancelCalls      int
	listMethods      []*stripe.PaymentMethod
}

func newFakeStripeClient() *fakeStripeClient {
	return &fakeStripeClient{
		customers: map[string]*stripe.Customer{},
		getPaymentMethod: &stripe.PaymentMethod{
			ID: "pm_1",
			Card: &stripe.PaymentMethodCard{
				Brand:    stripe.PaymentMethodCardBrandVisa,
				Last4:    "4242",
				ExpMonth: 12,
				ExpYear:  2030,
			},
		},
	}
}

func (f *fakeStripeClient) GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	if f.getCustomerErr != nil {
		return nil, f.getCustomerErr
	}
	if cus, ok := f.customers[customerID]; ok {
		return cus, nil
	}
	return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "no such customer"}
}

func (f *fakeStripeClient) CreateCustomer(ctx context.Context, email, name, paymentMethodID, userID string) (*stripe.Customer, error) {
	f.createdCustomers++
	cus := &stripe.Customer{ID: "cus_new", Email: email, Name: name}
	f.customers[cus.ID] = cus
	return cus, nil
}

func (f *fakeStripeClient) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	f.attachCalls++
	return f.attachErr
}

func (f *fakeStripeClient) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	return f.setDefaultErr
}

func (f *fakeStripeClient) CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	if f.createSubErr != nil {
		return nil, f.createSubErr
	}
	f.createdSubs++
	return &stripe.Subscription{
		ID:     "sub_new",
		Status: stripe.SubscriptionStatusIncomplete,
		LatestInvoice: &stripe.Invoice{
			ID: "in_new",
			PaymentIntent: &stripe.PaymentIntent{
				ID:           "pi_new",
				ClientSecret: "pi_new_secret",
			},
		},
	}, nil
}

func (f *fakeStripeClient) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	f.cancelCalls++
	return &stripe.Subscription{ID: subscriptionID, CancelAtPeriodEnd: true}, nil
}

func (f *fakeStripeClient) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*stripe.PaymentMethod, error) {
	return f.getPaymentMethod, nil
}

func (f *fakeStripeClient) ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error) {
	return f.listMethods, nil
}

// fakeLedger is an in-memory stand-in for the Firestore mirror.
type fakeLedger struct {
	users        map[string]*model.UserRecord
	savedMethods map[string]map[string]*model.SavedPaymentMethod

	getErr  error
	markErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		users:        map[string]*model.UserRecord{},
		savedMethods: map[string]map[string]*model.SavedPaymentMethod{},
	}
}

func (f *fakeLedger) GetUser(ctx context.Context, userID string) (*model.UserRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if rec, ok := f.users[userID]; ok {
		return rec, nil
	}
	return &model.UserRecord{UserID: userID}, nil
}

func (f *fakeLedger) SetSubscription(ctx context.Context, userID, customerID, subscriptionID, subscriptionStatus string) error {
	rec := f.upsert(userID)
	rec.StripeCustomerID = customerID
	rec.SubscriptionID = subscriptionID
	rec.SubscriptionStatus = subscriptionStatus
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeLedger) FindByCustomerID(ctx context.Context, customerID string) ([]*model.UserRecord, error) {
	var out []*model.UserRecord
	for _, rec := range f.users {
		if rec.StripeCustomerID == customerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeLedger) RecordPaymentSucceeded(ctx context.Context, userID string, entry model.PaymentHistoryEntry) error {
	rec := f.upsert(userID)
	rec.SubscriptionStatus = model.StatusActive
	rec.LastPaymentAt = entry.Date
	rec.PaymentHistory = append(rec.PaymentHistory, entry)
	return nil
}

func (f *fakeLedger) MarkCanceling(ctx context.Context, userID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	rec := f.upsert(userID)
	rec.SubscriptionStatus = model.StatusCanceling
	rec.CancelAtPeriodEnd = true
	return nil
}

func (f *fakeLedger) MarkCancelled(ctx context.Context, userID string, endedAt time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	rec := f.upsert(userID)
	rec.SubscriptionStatus = model.StatusCancelled
	rec.SubscriptionEndedAt = endedAt
	return nil
}

func (f *fakeLedger) SavePaymentMethod(ctx context.Context, userID, paymentMethodID string, pm *model.SavedPaymentMethod) error {
	if f.savedMethods[userID] == nil {
		f.savedMethods[userID] = map[string]*model.SavedPaymentMethod{}
	}
	f.savedMethods[userID][paymentMethodID] = pm
	return nil
}

func (f *fakeLedger) upsert(userID string) *model.UserRecord {
	if rec, ok := f.users[userID]; ok {
		return rec
	}
	rec := &model.UserRecord{UserID: userID}
	f.users[userID] = rec
	return rec
}

// fakeEventRepo is an in-memory webhook dedup store.
type fakeEventRepo struct {
	seen map[string]string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{seen: map[string]string{}}
}

func (f *fakeEventRepo) Exists(ctx context.Context, eventID string) (bool, error) {
	_, ok := f.seen[eventID]
	return ok, nil
}

func (f *fakeEventRepo) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	f.seen[eventID] = eventType
	return nil
}

// fakePaymentLog records appended audit rows.
type fakePaymentLog struct {
	entries []*model.PaymentLog
}

func (f *fakePaymentLog) Append(ctx context.Context, entry *model.PaymentLog) error {
	f.entries = append(f.entries, entry)
	return nil
}
