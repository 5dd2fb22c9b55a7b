package model

import "time"

// WebhookEvent records every Stripe event id that has been fully processed.
// Stripe delivers at-least-once; an id already present here means the event
// must be acknowledged without re-applying its side effects.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// PaymentLog is an append-only audit record. Rows are written once and never
// updated.
type PaymentLog struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         string `gorm:"size:64;index;not null"`
	CustomerID     string `gorm:"size:64;index"`
	SubscriptionID string `gorm:"size:64"`
	Amount         float64
	Currency       string `gorm:"size:8"`
	Status         string `gorm:"size:32"`
	CreatedAt      time.Time
}
