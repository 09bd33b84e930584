package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"github.com/brewandbeans/kaizen/internal/config"
	"github.com/brewandbeans/kaizen/internal/storage"
)

// Billing API endpoints per POLAR_SERVER value
const (
	PolarProductionURL = "https://api.polar.sh"
	PolarSandboxURL    = "https://sandbox-api.polar.sh"
)

// Price is one purchasable price of a plan, amount in minor units
type Price struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval,omitempty"`
}

// Plan is a billing product shown on the pricing page
type Plan struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	IsRecurring bool    `json:"isRecurring"`
	Prices      []Price `json:"prices"`
}

// CheckoutRequest starts a hosted checkout for one price
type CheckoutRequest struct {
	PriceID       string
	UserID        string
	CustomerEmail string
	SuccessURL    string
}

// PolarClient talks to the billing provider
type PolarClient struct {
	*client
	organizationID string
}

// NewPolar creates a billing client; the endpoint follows cfg.Server
func NewPolar(cfg *config.PolarConfig, opts ...Option) *PolarClient {
	base := PolarSandboxURL
	if cfg.Server == "production" {
		base = PolarProductionURL
	}
	return &PolarClient{
		client:         newClient("polar", base, bearer(cfg.AccessToken), opts),
		organizationID: cfg.OrganizationID,
	}
}

type polarProducts struct {
	Items []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		IsRecurring bool   `json:"is_recurring"`
		IsArchived  bool   `json:"is_archived"`
		Prices      []struct {
			ID                string `json:"id"`
			AmountType        string `json:"amount_type"`
			PriceAmount       int64  `json:"price_amount"`
			PriceCurrency     string `json:"price_currency"`
			RecurringInterval string `json:"recurring_interval"`
			IsArchived        bool   `json:"is_archived"`
		} `json:"prices"`
	} `json:"items"`
}

// ListPlans returns the organization's active plans, cheapest first. Plans
// without a live price are skipped.
func (c *PolarClient) ListPlans(ctx context.Context) ([]Plan, error) {
	q := url.Values{}
	q.Set("organization_id", c.organizationID)
	q.Set("is_archived", "false")
	q.Set("limit", "100")

	var resp polarProducts
	if err := c.do(ctx, http.MethodGet, "/v1/products/?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	plans := make([]Plan, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.IsArchived {
			continue
		}
		plan := Plan{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			IsRecurring: item.IsRecurring,
		}
		for _, p := range item.Prices {
			if p.IsArchived {
				continue
			}
			plan.Prices = append(plan.Prices, Price{
				ID:       p.ID,
				Amount:   p.PriceAmount,
				Currency: p.PriceCurrency,
				Interval: p.RecurringInterval,
			})
		}
		if len(plan.Prices) == 0 {
			continue
		}
		plans = append(plans, plan)
	}

	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Prices[0].Amount < plans[j].Prices[0].Amount
	})
	return plans, nil
}

// CreateCheckout returns the hosted checkout URL
func (c *PolarClient) CreateCheckout(ctx context.Context, r CheckoutRequest) (string, error) {
	if r.PriceID == "" {
		return "", errors.New("price ID is required")
	}
	body := map[string]any{
		"product_price_id": r.PriceID,
		"success_url":      r.SuccessURL,
		"metadata":         map[string]string{"userId": r.UserID},
	}
	if r.CustomerEmail != "" {
		body["customer_email"] = r.CustomerEmail
	}
	if r.UserID != "" {
		body["customer_external_id"] = r.UserID
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/checkouts/", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create checkout: %w", err)
	}
	if resp.URL == "" {
		return "", errors.New("checkout response has no URL")
	}
	return resp.URL, nil
}

// CustomerPortalURL returns a one-off URL to the billing self-service portal
func (c *PolarClient) CustomerPortalURL(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", errors.New("customer ID is required")
	}
	var resp struct {
		URL string `json:"customer_portal_url"`
	}
	body := map[string]string{"customer_id": customerID}
	if err := c.do(ctx, http.MethodPost, "/v1/customer-sessions/", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create customer portal session: %w", err)
	}
	return resp.URL, nil
}

// SubscriptionEvent is a parsed billing webhook
type SubscriptionEvent struct {
	Type         string
	Subscription *storage.SubscriptionRecord
}

// IsSubscriptionEvent reports whether the event carries a subscription
func (e *SubscriptionEvent) IsSubscriptionEvent() bool {
	return e.Subscription != nil
}

// ParseSubscriptionEvent extracts the subscription from a billing webhook.
// Events of other types are returned with a nil Subscription.
func ParseSubscriptionEvent(body []byte) (*SubscriptionEvent, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("webhook body is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	ev := &SubscriptionEvent{Type: doc.Get("type").String()}
	if ev.Type == "" {
		return nil, errors.New("webhook has no event type")
	}

	switch ev.Type {
	case "subscription.created", "subscription.updated", "subscription.active",
		"subscription.canceled", "subscription.uncanceled", "subscription.revoked":
	default:
		return ev, nil
	}

	data := doc.Get("data")
	userID := data.Get("metadata.userId").String()
	if userID == "" {
		userID = data.Get("customer.external_id").String()
	}
	priceID := data.Get("price_id").String()
	if priceID == "" {
		priceID = data.Get("prices.0.id").String()
	}

	ev.Subscription = &storage.SubscriptionRecord{
		ID:                 data.Get("id").String(),
		UserID:             userID,
		CustomerID:         data.Get("customer_id").String(),
		ProductID:          data.Get("product_id").String(),
		PriceID:            priceID,
		Status:             data.Get("status").String(),
		Interval:           data.Get("recurring_interval").String(),
		Amount:             data.Get("amount").Int(),
		Currency:           data.Get("currency").String(),
		CurrentPeriodStart: jsonTime(data.Get("current_period_start")),
		CurrentPeriodEnd:   jsonTime(data.Get("current_period_end")),
		CancelAtPeriodEnd:  data.Get("cancel_at_period_end").Bool(),
		StartedAt:          jsonTime(data.Get("started_at")),
		EndedAt:            jsonTime(data.Get("ended_at")),
	}
	if ev.Subscription.ID == "" {
		return nil, fmt.Errorf("%s webhook has no subscription id", ev.Type)
	}
	return ev, nil
}

func jsonTime(r gjson.Result) *time.Time {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	t, err := time.Parse(time.RFC3339, r.String())
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
