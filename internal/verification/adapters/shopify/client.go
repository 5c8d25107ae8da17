// Package shopify implements the CommerceGateway against a Shopify-Admin
// style orders REST API.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mkrasic/handoff/internal/apperr"
	"github.com/mkrasic/handoff/internal/verification/domain"
	"github.com/mkrasic/handoff/internal/verification/ports"
)

const apiVersion = "2024-01"

// Config carries the store credentials and tuning knobs for the client.
type Config struct {
	// StoreDomain is the myshopify host, e.g. "example.myshopify.com".
	StoreDomain string
	AccessToken string
	// BaseURL overrides the derived https://{StoreDomain}/admin/api/{ver}
	// base. Used by tests.
	BaseURL string
	Timeout time.Duration
}

// Client queries the commerce order store.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient validates the configuration and builds the client. Missing
// credentials are a configuration fault, not a lookup failure.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		if cfg.StoreDomain == "" {
			return nil, fmt.Errorf("%w: commerce store domain is not set", apperr.ErrMisconfigured)
		}
		base = fmt.Sprintf("https://%s/admin/api/%s", cfg.StoreDomain, apiVersion)
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: commerce access token is not set", apperr.ErrMisconfigured)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: base,
		token:   cfg.AccessToken,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// FindOrderByKey queries orders by display key, limited to the single best
// match.
func (c *Client) FindOrderByKey(ctx context.Context, key string) (*domain.Order, error) {
	query := url.Values{
		"name":   {key},
		"status": {"any"},
		"limit":  {"1"},
	}
	orders, err := c.fetchOrders(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("key %q: %w", key, ports.ErrOrderNotFound)
	}
	return &orders[0], nil
}

// ListOrdersByEmail fetches up to limit orders purchased under the email.
func (c *Client) ListOrdersByEmail(ctx context.Context, email string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	query := url.Values{
		"email":  {email},
		"status": {"any"},
		"limit":  {strconv.Itoa(limit)},
	}
	return c.fetchOrders(ctx, query)
}

func (c *Client) fetchOrders(ctx context.Context, query url.Values) ([]domain.Order, error) {
	endpoint := c.baseURL + "/orders.json?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build orders request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orders request: %w: %v", apperr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: commerce API rejected the credentials (status %d)", apperr.ErrMisconfigured, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("orders request: %w", apperr.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("orders request: %w: status %d", apperr.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}

	orders := make([]domain.Order, 0, len(body.Orders))
	for _, wire := range body.Orders {
		order, err := wire.toDomain()
		if err != nil {
			c.logger.WarnContext(ctx, "skipping unparseable order", "order_id", wire.ID, "error", err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

type ordersResponse struct {
	Orders []wireOrder `json:"orders"`
}

type wireOrder struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	OrderNumber       int64          `json:"order_number"`
	Email             string         `json:"email"`
	TotalPrice        string         `json:"total_price"`
	Currency          string         `json:"currency"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus string         `json:"fulfillment_status"`
	CancelledAt       *time.Time     `json:"cancelled_at"`
	CreatedAt         time.Time      `json:"created_at"`
	Customer          wireCustomer   `json:"customer"`
	LineItems         []wireLineItem `json:"line_items"`
	Refunds           []wireRefund   `json:"refunds"`
}

type wireCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type wireLineItem struct {
	Title        string `json:"title"`
	VariantTitle string `json:"variant_title"`
	Quantity     int    `json:"quantity"`
}

type wireRefund struct {
	Transactions []wireTransaction `json:"transactions"`
}

type wireTransaction struct {
	Amount string `json:"amount"`
}

func (w wireOrder) toDomain() (domain.Order, error) {
	total, err := domain.ParseAmountCents(w.TotalPrice)
	if err != nil {
		return domain.Order{}, fmt.Errorf("total_price: %w", err)
	}

	order := domain.Order{
		ID:                w.ID,
		Name:              w.Name,
		Number:            w.OrderNumber,
		Email:             w.Email,
		CustomerName:      joinName(w.Customer.FirstName, w.Customer.LastName),
		TotalCents:        total,
		Currency:          w.Currency,
		PaymentStatus:     domain.PaymentStatus(w.FinancialStatus),
		FulfillmentStatus: domain.FulfillmentStatus(w.FulfillmentStatus),
		CancelledAt:       w.CancelledAt,
		CreatedAt:         w.CreatedAt,
	}

	for _, item := range w.LineItems {
		order.LineItems = append(order.LineItems, domain.LineItem{
			Title:    item.Title,
			Variant:  item.VariantTitle,
			Quantity: item.Quantity,
		})
	}

	for _, refund := range w.Refunds {
		var cents int64
		for _, tx := range refund.Transactions {
			amount, err := domain.ParseAmountCents(tx.Amount)
			if err != nil {
				return domain.Order{}, fmt.Errorf("refund amount: %w", err)
			}
			cents += amount
		}
		order.Refunds = append(order.Refunds, domain.Refund{AmountCents: cents})
	}

	return order, nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
