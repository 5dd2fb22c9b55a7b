package model

import "time"

// Subscription lifecycle states mirrored from Stripe. The local copy is a
// cache of processor-side truth and must never drive billing decisions.
const (
	StatusNone       = "none"
	StatusIncomplete = "incomplete"
	StatusActive     = "active"
	StatusCanceling  = "canceling"
	StatusCancelled  = "cancelled"
	StatusPastDue    = "past_due"
)

// UserRecord is the users/{userId} document. The user id itself is owned by
// the surrounding application; this service only reads and writes the billing
// fields below, never the whole document.
type UserRecord struct {
	UserID string `firestore:"-"`

	StripeCustomerID    string                `firestore:"stripeCustomerId"`
	SubscriptionID      string                `firestore:"subscriptionId"`
	SubscriptionStatus  string                `firestore:"subscriptionStatus"`
	CancelAtPeriodEnd   bool                  `firestore:"cancelAtPeriodEnd"`
	LastPaymentAt       time.Time             `firestore:"lastPaymentAt"`
	SubscriptionEndedAt time.Time             `firestore:"subscriptionEndedAt"`
	UpdatedAt           time.Time             `firestore:"updatedAt"`
	PaymentHistory      []PaymentHistoryEntry `firestore:"paymentHistory"`
}

type PaymentHistoryEntry struct {
	Date      time.Time `firestore:"date"`
	Amount    float64   `firestore:"amount"`
	InvoiceID string    `firestore:"invoiceId"`
}

// SavedPaymentMethod lives in the users/{userId}/paymentMethods subcollection,
// keyed by the Stripe payment-method id. Written only when the client opts in
// to save a card.
type SavedPaymentMethod struct {
	Brand     string    `firestore:"brand"`
	Last4     string    `firestore:"last4"`
	ExpMonth  int64     `firestore:"expMonth"`
	ExpYear   int64     `firestore:"expYear"`
	IsDefault bool      `firestore:"isDefault"`
	CreatedAt time.Time `firestore:"createdAt"`
}
