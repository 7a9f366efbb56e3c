package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("stripe webhook signature invalid")

// CheckoutSessionRequest describes a one-off hosted payment page.
type CheckoutSessionRequest struct {
	AmountCents int
	Currency    string
	SuccessURL  string
	CancelURL   string
	Description string
	Metadata    map[string]string
}

// CheckoutSession is the redirect target handed back to the shopper.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// CheckoutStatus is the gateway's current view of a session.
type CheckoutStatus struct {
	SessionID     string            `json:"session_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// WebhookNotification carries the fields of a verified event that matter to checkout.
type WebhookNotification struct {
	EventID       string
	EventType     string
	SessionID     string
	PaymentStatus string
}

// CreateCheckoutSession creates a payment-mode session for a single amount.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("checkout amount must be positive")
	}
	currency := req.Currency
	if strings.TrimSpace(currency) == "" {
		currency = c.currency
	}
	description := req.Description
	if description == "" {
		description = "Order"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(normalizeCurrency(currency)),
					UnitAmount: stripe.Int64(int64(req.AmountCents)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	params.Context = ctx

	sess, err := c.newSession(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// GetCheckoutStatus fetches the live state of a session.
func (c *Client) GetCheckoutStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := c.getSession(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return &CheckoutStatus{
		SessionID:     sess.ID,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}, nil
}

// ExpireCheckoutSession closes an open session so it can no longer be paid.
// Stripe rejects the call once the session is complete or already expired.
func (c *Client) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := c.expireSession(sessionID, params); err != nil {
		return fmt.Errorf("expire checkout session: %w", err)
	}
	return nil
}

// ParseWebhook verifies the signature and extracts the checkout session
// fields. Events that do not carry a checkout session return an empty SessionID.
func (c *Client) ParseWebhook(payload []byte, signature string) (*WebhookNotification, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	notification := &WebhookNotification{
		EventID:   event.ID,
		EventType: string(event.Type),
	}
	if !strings.HasPrefix(string(event.Type), "checkout.session.") || event.Data == nil {
		return notification, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	notification.SessionID = sess.ID
	notification.PaymentStatus = string(sess.PaymentStatus)
	return notification, nil
}
