package client

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stripe-subscription-relay/internal/model"
)

// InitSqliteClient opens the local bookkeeping database (webhook-event dedup,
// payment audit log) and migrates its schema.
func InitSqliteClient(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.WebhookEvent{},
		&model.PaymentLog{},
	); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	return db, nil
}
