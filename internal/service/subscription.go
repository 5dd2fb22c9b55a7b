package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v76"

	"stripe-subscription-relay/internal/client"
	"stripe-subscription-relay/internal/dto"
	"stripe-subscription-relay/internal/model"
	"stripe-subscription-relay/internal/repository"
)

// The relay bills a single fixed-price product; audit rows use the nominal
// price rather than the invoiced amount.
const (
	subscriptionAmount   = 9.99
	subscriptionCurrency = "usd"
)

var ErrSubscriptionMismatch = errors.New("subscription does not belong to user")

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
	CancelSubscription(ctx context.Context, userID, subscriptionID string) error
	ListPaymentMethods(ctx context.Context, userID string) ([]dto.PaymentMethodSummary, error)
}

type subscriptionServiceImpl struct {
	stripeClient   client.StripeClient
	ledgerRepo     repository.LedgerRepository
	paymentLogRepo repository.PaymentLogRepository
}

func NewSubscriptionService(
	stripeClient client.StripeClient,
	ledgerRepo repository.LedgerRepository,
	paymentLogRepo repository.PaymentLogRepository,
) SubscriptionService {
	return &subscriptionServiceImpl{
		stripeClient:   stripeClient,
		ledgerRepo:     ledgerRepo,
		paymentLogRepo: paymentLogRepo,
	}
}

// CreateSubscription resolves (or creates) the Stripe customer, attaches the
// payment method, opens an incomplete subscription and mirrors the result
// into the ledger. Side effects are not rolled back on a later failure; a
// customer may exist on Stripe even when this call returns an error.
func (s *subscriptionServiceImpl) CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	user, err := s.ledgerRepo.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	customerID := user.StripeCustomerID
	if customerID != "" {
		// the stored id may be stale; any retrieval failure falls
		// through to creation instead of failing the request
		if _, err := s.stripeClient.GetCustomer(ctx, customerID); err != nil {
			log.Warn().
				Str("user_id", req.UserID).
				Str("customer_id", customerID).
				Err(err).
				Msg("stored customer not retrievable, creating a new one")
			customerID = ""
		}
	}

	if customerID == "" {
		cus, err := s.stripeClient.CreateCustomer(ctx, req.UserEmail, req.UserName, req.PaymentMethodID, req.UserID)
		if err != nil {
			return nil, err
		}
		customerID = cus.ID
	}

	if err := s.stripeClient.AttachPaymentMethod(ctx, req.PaymentMethodID, customerID); err != nil {
		if !isAlreadyAttached(err) {
			return nil, err
		}
	}

	if err := s.stripeClient.SetDefaultPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	sub, err := s.stripeClient.CreateSubscription(ctx, customerID, req.PriceID)
	if err != nil {
		return nil, err
	}

	clientSecret := ""
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		clientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}

	if err := s.ledgerRepo.SetSubscription(ctx, req.UserID, customerID, sub.ID, string(sub.Status)); err != nil {
		return nil, err
	}

	if req.SaveCard {
		if err := s.saveCardDetails(ctx, req.UserID, req.PaymentMethodID); err != nil {
			return nil, err
		}
	}

	err = s.paymentLogRepo.Append(ctx, &model.PaymentLog{
		UserID:         req.UserID,
		CustomerID:     customerID,
		SubscriptionID: sub.ID,
		Amount:         subscriptionAmount,
		Currency:       subscriptionCurrency,
		Status:         string(sub.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("append payment log: %w", err)
	}

	return &dto.CreateSubscriptionResponse{
		Success:        true,
		SubscriptionID: sub.ID,
		CustomerID:     customerID,
		ClientSecret:   clientSecret,
		Status:         string(sub.Status),
	}, nil
}

// CancelSubscription schedules cancellation at period end. The subscription
// id is re-derived from the user's own record; a caller-supplied id that does
// not match is rejected rather than trusted.
func (s *subscriptionServiceImpl) CancelSubscription(ctx context.Context, userID, subscriptionID string) error {
	user, err := s.ledgerRepo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user record: %w", err)
	}

	if user.SubscriptionID == "" {
		return fmt.Errorf("user %s has no active subscription", userID)
	}
	if subscriptionID != "" && subscriptionID != user.SubscriptionID {
		return ErrSubscriptionMismatch
	}

	if _, err := s.stripeClient.CancelAtPeriodEnd(ctx, user.SubscriptionID); err != nil {
		return err
	}

	if err := s.ledgerRepo.MarkCanceling(ctx, userID); err != nil {
		return err
	}

	return nil
}

// ListPaymentMethods lists card payment methods live from Stripe; the saved
// subcollection is a client-side convenience and may diverge.
func (s *subscriptionServiceImpl) ListPaymentMethods(ctx context.Context, userID string) ([]dto.PaymentMethodSummary, error) {
	user, err := s.ledgerRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	if user.StripeCustomerID == "" {
		return []dto.PaymentMethodSummary{}, nil
	}

	cus, err := s.stripeClient.GetCustomer(ctx, user.StripeCustomerID)
	if err != nil {
		return nil, err
	}
	defaultID := ""
	if cus.InvoiceSettings != nil && cus.InvoiceSettings.DefaultPaymentMethod != nil {
		defaultID = cus.InvoiceSettings.DefaultPaymentMethod.ID
	}

	methods, err := s.stripeClient.ListCardPaymentMethods(ctx, user.StripeCustomerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.PaymentMethodSummary, 0, len(methods))
	for _, pm := range methods {
		summary := dto.PaymentMethodSummary{
			ID:        pm.ID,
			IsDefault: pm.ID == defaultID,
		}
		if pm.Card != nil {
			summary.Brand = string(pm.Card.Brand)
			summary.Last4 = pm.Card.Last4
			summary.ExpMonth = pm.Card.ExpMonth
			summary.ExpYear = pm.Card.ExpYear
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (s *subscriptionServiceImpl) saveCardDetails(ctx context.Context, userID, paymentMethodID string) error {
	pm, err := s.stripeClient.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return err
	}

	saved := &model.SavedPaymentMethod{
		IsDefault: true,
		CreatedAt: time.Now(),
	}
	if pm.Card != nil {
		saved.Brand = string(pm.Card.Brand)
		saved.Last4 = pm.Card.Last4
		saved.ExpMonth = pm.Card.ExpMonth
		saved.ExpYear = pm.Card.ExpYear
	}

	return s.ledgerRepo.SavePaymentMethod(ctx, userID, paymentMethodID, saved)
}

// Stripe rejects attaching a payment method that is already attached; for
// this flow that outcome is equivalent to success.
func isAlreadyAttached(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return strings.Contains(stripeErr.Msg, "already been attached")
	}

	return false
}
