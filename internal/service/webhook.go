package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"stripe-subscription-relay/internal/model"
	"stripe-subscription-relay/internal/repository"
)

// WebhookService reconciles asynchronous Stripe events into the ledger.
// Delivery is at-least-once and unordered; processed event ids are recorded
// so a redelivery is acknowledged without side effects.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookServiceImpl struct {
	webhookSecret  string
	ledgerRepo     repository.LedgerRepository
	eventRepo      repository.WebhookEventRepository
	paymentLogRepo repository.PaymentLogRepository
}

func NewWebhookService(
	webhookSecret string,
	ledgerRepo repository.LedgerRepository,
	eventRepo repository.WebhookEventRepository,
	paymentLogRepo repository.PaymentLogRepository,
) WebhookService {
	return &webhookServiceImpl{
		webhookSecret:  webhookSecret,
		ledgerRepo:     ledgerRepo,
		eventRepo:      eventRepo,
		paymentLogRepo: paymentLogRepo,
	}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.authenticate(payload, sigHeader)
	if err != nil {
		return err
	}

	eventID := event.ID
	eventType := string(event.Type)

	if eventID != "" {
		seen, err := s.eventRepo.Exists(ctx, eventID)
		if err != nil {
			return fmt.Errorf("check webhook event dedup: %w", err)
		}
		if seen {
			log.Info().Str("event_id", eventID).Str("type", eventType).Msg("duplicate webhook event, skipping")
			return nil
		}
	}

	if err := s.dispatch(ctx, event); err != nil {
		return err
	}

	if eventID != "" {
		if err := s.eventRepo.MarkProcessed(ctx, eventID, eventType); err != nil {
			return fmt.Errorf("mark webhook event processed: %w", err)
		}
	}

	return nil
}

// authenticate verifies the payload signature when a signing secret is
// configured. Without a secret the raw body is trusted as-is, which is only
// acceptable for local development.
func (s *webhookServiceImpl) authenticate(payload []byte, sigHeader string) (*stripe.Event, error) {
	if s.webhookSecret != "" {
		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, fmt.Errorf("verify webhook signature: %w", err)
		}
		return &event, nil
	}

	log.Warn().Msg("webhook signature verification disabled, trusting payload")

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	return &event, nil
}

func (s *webhookServiceImpl) dispatch(ctx context.Context, event *stripe.Event) error {
	eventType := string(event.Type)

	if event.Data == nil || len(event.Data.Raw) == 0 {
		log.Warn().Str("event_id", event.ID).Str("type", eventType).Msg("webhook event without data object")
		return nil
	}

	switch eventType {
	case "invoice.payment_succeeded":
		return s.handlePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		return s.handlePaymentFailed(event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		log.Debug().Str("type", eventType).Msg("ignoring webhook event")
		return nil
	}
}

func (s *webhookServiceImpl) handlePaymentSucceeded(ctx context.Context, event *stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("decode invoice payload: %w", err)
	}
	if inv.Customer == nil || inv.Customer.ID == "" {
		log.Warn().Str("event_id", event.ID).Msg("invoice event without customer id")
		return nil
	}
	customerID := inv.Customer.ID

	user, ok, err := s.findUser(ctx, customerID)
	if err != nil {
		return err
	}
	if !ok {
		// the customer may not be linked yet, or was already deleted;
		// not a delivery failure
		log.Info().Str("customer_id", customerID).Msg("payment succeeded for unknown customer")
		return nil
	}

	entry := model.PaymentHistoryEntry{
		Date:      time.Now(),
		Amount:    float64(inv.AmountPaid) / 100,
		InvoiceID: inv.ID,
	}
	if err := s.ledgerRepo.RecordPaymentSucceeded(ctx, user.UserID, entry); err != nil {
		return err
	}

	err = s.paymentLogRepo.Append(ctx, &model.PaymentLog{
		UserID:         user.UserID,
		CustomerID:     customerID,
		SubscriptionID: user.SubscriptionID,
		Amount:         entry.Amount,
		Currency:       string(inv.Currency),
		Status:         "succeeded",
	})
	if err != nil {
		return fmt.Errorf("append payment log: %w", err)
	}

	log.Info().
		Str("user_id", user.UserID).
		Str("invoice_id", inv.ID).
		Float64("amount", entry.Amount).
		Msg("payment recorded")

	return nil
}

// Placeholder for future dunning notifications. Must never fail the delivery.
func (s *webhookServiceImpl) handlePaymentFailed(event *stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		log.Warn().Str("event_id", event.ID).Err(err).Msg("undecodable payment_failed payload")
		return nil
	}

	customerID := ""
	if inv.Customer != nil {
		customerID = inv.Customer.ID
	}
	log.Warn().Str("customer_id", customerID).Str("invoice_id", inv.ID).Msg("invoice payment failed")

	return nil
}

func (s *webhookServiceImpl) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription payload: %w", err)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		log.Warn().Str("event_id", event.ID).Msg("subscription event without customer id")
		return nil
	}
	customerID := sub.Customer.ID

	user, ok, err := s.findUser(ctx, customerID)
	if err != nil {
		return err
	}
	if !ok {
		log.Info().Str("customer_id", customerID).Msg("subscription deleted for unknown customer")
		return nil
	}

	if err := s.ledgerRepo.MarkCancelled(ctx, user.UserID, time.Now()); err != nil {
		return err
	}

	log.Info().
		Str("user_id", user.UserID).
		Str("subscription_id", sub.ID).
		Msg("subscription cancelled")

	return nil
}

// findUser resolves a Stripe customer id to a local user record. Customer ids
// are written 1:1 per user; a collision means a stale link somewhere, so the
// first match wins and the rest are logged.
func (s *webhookServiceImpl) findUser(ctx context.Context, customerID string) (*model.UserRecord, bool, error) {
	records, err := s.ledgerRepo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, false, fmt.Errorf("find user by customer id: %w", err)
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	if len(records) > 1 {
		log.Warn().Str("customer_id", customerID).Msg("multiple users share one customer id")
	}

	return records[0], true, nil
}
