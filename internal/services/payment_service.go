package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dodopayments/dodopayments-go"
	"github.com/dodopayments/dodopayments-go/option"
	"github.com/google/uuid"

	"medremind/internal/database"
	"medremind/internal/models"
)

// WebhookEvent represents a webhook event from DodoPayments
type WebhookEvent struct {
	ID   string                 `json:"id"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// PaymentService handles the premium subscription: checkout session creation
// and webhook-driven state transitions. Users with no subscription row are on
// the free tier.
type PaymentService struct {
	client        *dodopayments.Client
	webhookSecret string
	db            *database.DB
	returnURL     string
}

// NewPaymentService creates a payment service. With no API key configured the
// paywall is disabled and everyone stays on the free tier.
func NewPaymentService(apiKey, webhookSecret, environment, returnURL string, db *database.DB) *PaymentService {
	var client *dodopayments.Client
	if apiKey != "" {
		var envOpt option.RequestOption
		if environment == "test" {
			envOpt = option.WithEnvironmentTestMode()
		} else {
			envOpt = option.WithEnvironmentLiveMode()
		}

		client = dodopayments.NewClient(
			option.WithBearerToken(apiKey),
			envOpt,
		)
		log.Println("✅ DodoPayments client initialized")
	} else {
		log.Println("⚠️  DodoPayments API key not provided, payment features disabled")
	}

	return &PaymentService{
		client:        client,
		webhookSecret: webhookSecret,
		db:            db,
		returnURL:     returnURL,
	}
}

// CheckoutResponse represents the response for checkout creation
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// CreateCheckoutSession creates a checkout session for the premium plan.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID, userEmail, planID string) (*CheckoutResponse, error) {
	if s.client == nil {
		return nil, fmt.Errorf("payments are not configured")
	}

	plan := models.GetPlanByID(planID)
	if plan == nil {
		return nil, fmt.Errorf("invalid plan ID: %s", planID)
	}
	if plan.Tier == models.TierFree {
		return nil, fmt.Errorf("cannot create checkout for free plan")
	}
	if plan.DodoProductID == "" {
		return nil, fmt.Errorf("plan %s does not have a DodoPayments product ID configured", planID)
	}

	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	customerID := sub.DodoCustomerID
	if customerID == "" {
		customerName := userEmail
		if atIndex := strings.Index(userEmail, "@"); atIndex > 0 {
			customerName = userEmail[:atIndex]
		}

		customer, err := s.client.Customers.New(ctx, dodopayments.CustomerNewParams{
			Email: dodopayments.F(userEmail),
			Name:  dodopayments.F(customerName),
			Metadata: dodopayments.F(map[string]string{
				"user_id": userID,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
		customerID = customer.CustomerID
		if err := s.saveCustomerID(ctx, userID, customerID); err != nil {
			return nil, err
		}
	}

	session, err := s.client.CheckoutSessions.New(ctx, dodopayments.CheckoutSessionNewParams{
		CheckoutSessionRequest: dodopayments.CheckoutSessionRequestParam{
			ProductCart: dodopayments.F([]dodopayments.CheckoutSessionRequestProductCartParam{{
				ProductID: dodopayments.F(plan.DodoProductID),
				Quantity:  dodopayments.F(int64(1)),
			}}),
			ReturnURL: dodopayments.F(s.returnURL),
			Customer: dodopayments.F[dodopayments.CustomerRequestUnionParam](dodopayments.AttachExistingCustomerParam{
				CustomerID: dodopayments.F(customerID),
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	log.Printf("💳 [PAYMENT] Checkout session created for user %s (plan %s)", userID, planID)

	return &CheckoutResponse{
		CheckoutURL: session.CheckoutURL,
		SessionID:   session.SessionID,
	}, nil
}

// GetSubscription returns the user's subscription, synthesizing a free-tier
// one when no row exists.
func (s *PaymentService) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	var periodStart, periodEnd sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, dodo_subscription_id, dodo_customer_id, tier, status,
			current_period_start, current_period_end, cancel_at_period_end,
			created_at, updated_at
		FROM subscriptions WHERE user_id = ?`, userID).
		Scan(&sub.ID, &sub.UserID, &sub.DodoSubscriptionID, &sub.DodoCustomerID,
			&sub.Tier, &sub.Status, &periodStart, &periodEnd,
			&sub.CancelAtPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		now := time.Now()
		return &models.Subscription{
			ID:        uuid.New().String(),
			UserID:    userID,
			Tier:      models.TierFree,
			Status:    models.SubStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	if periodStart.Valid {
		sub.CurrentPeriodStart = periodStart.Time
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = periodEnd.Time
	}
	return &sub, nil
}

// VerifyWebhook verifies the HMAC webhook signature.
func (s *PaymentService) VerifyWebhook(payload []byte, signature string) error {
	if s.webhookSecret == "" {
		return fmt.Errorf("webhook secret not configured")
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(payload)
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expectedSig)) {
		return fmt.Errorf("invalid webhook signature")
	}
	return nil
}

// VerifyAndParseWebhook verifies and parses a webhook request. With the SDK
// client available it uses Standard Webhooks verification; otherwise it falls
// back to plain HMAC (also the path tests exercise).
func (s *PaymentService) VerifyAndParseWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	if s.client != nil && s.webhookSecret != "" {
		event, err := s.client.Webhooks.Unwrap(payload, headers, option.WithWebhookKey(s.webhookSecret))
		if err != nil {
			return nil, fmt.Errorf("webhook verification failed: %w", err)
		}
		return s.convertSDKEvent(event)
	}

	signature := headers.Get("Webhook-Signature")
	if signature == "" {
		return nil, fmt.Errorf("missing webhook signature header")
	}
	if err := s.VerifyWebhook(payload, signature); err != nil {
		return nil, err
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return &event, nil
}

func (s *PaymentService) convertSDKEvent(event *dodopayments.UnwrapWebhookEvent) (*WebhookEvent, error) {
	webhookEvent := &WebhookEvent{Type: string(event.Type)}

	switch e := event.AsUnion().(type) {
	case dodopayments.SubscriptionActiveWebhookEvent:
		webhookEvent.ID = e.Data.SubscriptionID
		webhookEvent.Data = map[string]interface{}{
			"subscription_id":      e.Data.SubscriptionID,
			"customer_id":          e.Data.Customer.CustomerID,
			"current_period_start": e.Data.PreviousBillingDate.Format(time.RFC3339),
			"current_period_end":   e.Data.NextBillingDate.Format(time.RFC3339),
		}
	case dodopayments.SubscriptionRenewedWebhookEvent:
		webhookEvent.ID = e.Data.SubscriptionID
		webhookEvent.Data = map[string]interface{}{
			"subscription_id":      e.Data.SubscriptionID,
			"customer_id":          e.Data.Customer.CustomerID,
			"current_period_start": e.Data.PreviousBillingDate.Format(time.RFC3339),
			"current_period_end":   e.Data.NextBillingDate.Format(time.RFC3339),
		}
	case dodopayments.SubscriptionOnHoldWebhookEvent:
		webhookEvent.ID = e.Data.SubscriptionID
		webhookEvent.Data = map[string]interface{}{
			"subscription_id": e.Data.SubscriptionID,
			"customer_id":     e.Data.Customer.CustomerID,
		}
	case dodopayments.SubscriptionCancelledWebhookEvent:
		webhookEvent.ID = e.Data.SubscriptionID
		webhookEvent.Data = map[string]interface{}{
			"subscription_id": e.Data.SubscriptionID,
			"customer_id":     e.Data.Customer.CustomerID,
		}
	default:
		log.Printf("💳 [PAYMENT] Ignoring webhook event type %s", event.Type)
	}

	return webhookEvent, nil
}

// HandleWebhookEvent applies one verified webhook event to the local
// subscription state.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, event *WebhookEvent) error {
	customerID, _ := event.Data["customer_id"].(string)
	subscriptionID, _ := event.Data["subscription_id"].(string)

	switch event.Type {
	case "subscription.active", "subscription.renewed":
		start := parseEventTime(event.Data["current_period_start"])
		end := parseEventTime(event.Data["current_period_end"])
		return s.upsertSubscription(ctx, customerID, subscriptionID, models.TierPremium, models.SubStatusActive, start, end)
	case "subscription.on_hold":
		return s.setStatus(ctx, subscriptionID, models.SubStatusOnHold)
	case "subscription.cancelled":
		return s.setStatus(ctx, subscriptionID, models.SubStatusCancelled)
	default:
		log.Printf("💳 [PAYMENT] Unhandled webhook event type %s", event.Type)
		return nil
	}
}

// DowngradeExpired resets lapsed premium subscriptions back to free.
// Returns the number of rows changed; called by the daily expiry job.
func (s *PaymentService) DowngradeExpired(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET tier = ?, status = ?, updated_at = ?
		WHERE tier = ? AND current_period_end IS NOT NULL AND current_period_end < ?
			AND status != ?`,
		models.TierFree, models.SubStatusCancelled, time.Now(),
		models.TierPremium, time.Now(), models.SubStatusCancelled,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to downgrade expired subscriptions: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func (s *PaymentService) saveCustomerID(ctx context.Context, userID, customerID string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, user_id, dodo_customer_id, tier, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET dodo_customer_id = excluded.dodo_customer_id, updated_at = excluded.updated_at`,
		uuid.New().String(), userID, customerID, models.TierFree, models.SubStatusActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save customer id: %w", err)
	}
	return nil
}

func (s *PaymentService) upsertSubscription(ctx context.Context, customerID, subscriptionID, tier, status string, periodStart, periodEnd time.Time) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET
			dodo_subscription_id = ?, tier = ?, status = ?,
			current_period_start = ?, current_period_end = ?, updated_at = ?
		WHERE dodo_customer_id = ?`,
		subscriptionID, tier, status, periodStart, periodEnd, now, customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		log.Printf("⚠️ [PAYMENT] Webhook for unknown customer %s", customerID)
	}
	return nil
}

func (s *PaymentService) setStatus(ctx context.Context, subscriptionID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = ?, updated_at = ? WHERE dodo_subscription_id = ?`,
		status, time.Now(), subscriptionID,
	)
	if err != nil {
		return fmt.Errorf("failed to set subscription status: %w", err)
	}
	return nil
}

func parseEventTime(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
