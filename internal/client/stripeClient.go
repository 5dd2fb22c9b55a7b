package client

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	stripeclient "github.com/stripe/stripe-go/v76/client"
)

type StripeClient interface {
	GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, email, name, paymentMethodID, userID string) (*stripe.Customer, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	GetPaymentMethod(ctx context.Context, paymentMethodID string) (*stripe.PaymentMethod, error)
	ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error)
}

type stripeClientImpl struct {
	api *stripeclient.API
}

func NewStripeClient(secretKey string) StripeClient {
	api := &stripeclient.API{}
	api.Init(secretKey, nil)

	return &stripeClientImpl{api: api}
}

func (c *stripeClientImpl) GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get customer: %w", err)
	}
	if cus.Deleted {
		return nil, fmt.Errorf("stripe customer %s is deleted", customerID)
	}

	return cus, nil
}

func (c *stripeClientImpl) CreateCustomer(ctx context.Context, email, name, paymentMethodID, userID string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email:         stripe.String(email),
		Name:          stripe.String(name),
		PaymentMethod: stripe.String(paymentMethodID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx
	// metadata binds the customer back to the application user
	params.AddMetadata("userId", userID)

	cus, err := c.api.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create customer: %w", err)
	}

	return cus, nil
}

func (c *stripeClientImpl) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	if _, err := c.api.PaymentMethods.Attach(paymentMethodID, params); err != nil {
		return fmt.Errorf("stripe attach payment method: %w", err)
	}

	return nil
}

func (c *stripeClientImpl) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	if _, err := c.api.Customers.Update(customerID, params); err != nil {
		return fmt.Errorf("stripe set default payment method: %w", err)
	}

	return nil
}

func (c *stripeClientImpl) CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		// subscription stays incomplete until the client confirms the
		// first invoice's payment intent
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create subscription: %w", err)
	}

	return sub, nil
}

func (c *stripeClientImpl) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe cancel subscription: %w", err)
	}

	return sub, nil
}

func (c *stripeClientImpl) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx

	pm, err := c.api.PaymentMethods.Get(paymentMethodID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment method: %w", err)
	}

	return pm, nil
}

func (c *stripeClientImpl) ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String("card"),
	}
	params.Context = ctx

	var methods []*stripe.PaymentMethod
	iter := c.api.PaymentMethods.List(params)
	for iter.Next() {
		methods = append(methods, iter.PaymentMethod())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list payment methods: %w", err)
	}

	return methods, nil
}
