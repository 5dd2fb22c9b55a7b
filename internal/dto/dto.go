package dto

type CreateSubscriptionRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
	PriceID         string `json:"priceId"`
	UserID          string `json:"userId"`
	SaveCard        bool   `json:"saveCard"`
	UserEmail       string `json:"userEmail"`
	UserName        string `json:"userName"`
}

type CreateSubscriptionResponse struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscriptionId"`
	CustomerID     string `json:"customerId"`
	ClientSecret   string `json:"clientSecret"`
	Status         string `json:"status"`
}

type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
	UserID         string `json:"userId"`
}

type CancelSubscriptionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PaymentMethodSummary struct {
	ID        string `json:"id"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4"`
	ExpMonth  int64  `json:"expMonth"`
	ExpYear   int64  `json:"expYear"`
	IsDefault bool   `json:"isDefault"`
}

type ListPaymentMethodsResponse struct {
	Success        bool                   `json:"success"`
	PaymentMethods []PaymentMethodSummary `json:"paymentMethods"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
