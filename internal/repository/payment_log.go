package repository

import (
	"context"

	"gorm.io/gorm"

	"stripe-subscription-relay/internal/model"
)

// PaymentLogRepository appends audit rows; there is intentionally no update
// or delete path.
type PaymentLogRepository interface {
	Append(ctx context.Context, entry *model.PaymentLog) error
}

type paymentLogRepoImpl struct {
	db *gorm.DB
}

func NewPaymentLogRepository(db *gorm.DB) PaymentLogRepository {
	return &paymentLogRepoImpl{db: db}
}

func (r *paymentLogRepoImpl) Append(ctx context.Context, entry *model.PaymentLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
