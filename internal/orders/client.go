// Package orders talks to the external order service. Order persistence is
// owned by that service; this client only composes, submits, and reads back.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 4096

// StatusPending is the status every draft is submitted with.
const StatusPending = "pending"

// CustomerInfo mirrors the delivery form as the order service expects it.
type CustomerInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
}

// DraftItem is one cart line flattened into the order payload.
type DraftItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

// Draft is the transient order payload assembled at submit time. It lives for
// the duration of the submission call plus any fallback attempts and is never
// persisted locally.
type Draft struct {
	CustomerInfo  CustomerInfo `json:"customerInfo"`
	Items         []DraftItem  `json:"items"`
	Subtotal      int64        `json:"subtotal"`
	Shipping      int64        `json:"shipping"`
	Total         int64        `json:"total"`
	PaymentMethod string       `json:"paymentMethod"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// CreateResult reports the identifier the order service assigned.
type CreateResult struct {
	OrderID string
	Guest   bool
}

// Order is a normalized order-history record.
type Order struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Subtotal      int64        `json:"subtotal"`
	Shipping      int64        `json:"shipping"`
	Total         int64        `json:"total"`
	PaymentMethod string       `json:"paymentMethod"`
	CreatedAt     time.Time    `json:"createdAt"`
	Items         []DraftItem  `json:"items"`
	CustomerInfo  CustomerInfo `json:"customerInfo"`
}

// Client wraps the order service's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the order service client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("orders: base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Create submits the draft. A non-empty token goes to the authenticated
// endpoint with a bearer header; an empty token goes to the guest endpoint.
func (c *Client) Create(ctx context.Context, draft Draft, token string) (*CreateResult, error) {
	path := "/orders"
	guest := token == ""
	if guest {
		path = "/orders/guest"
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order draft")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	if !guest {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit order")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeErrorResponse(resp, "order submission")
	}

	var body struct {
		OrderID string `json:"orderId"`
		MongoID string `json:"_id"`
		Order   *struct {
			OrderID string `json:"orderId"`
			MongoID string `json:"_id"`
		} `json:"order"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}

	id := firstNonEmpty(body.OrderID, body.MongoID)
	if id == "" && body.Order != nil {
		id = firstNonEmpty(body.Order.OrderID, body.Order.MongoID)
	}
	return &CreateResult{OrderID: id, Guest: guest}, nil
}

// ListUserOrders fetches the authenticated shopper's order history.
func (c *Client) ListUserOrders(ctx context.Context, token string) ([]Order, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	body, err := c.get(ctx, "/orders/user", token, "order history")
	if err != nil {
		return nil, err
	}

	var list []wireOrder
	if err := json.Unmarshal(body, &list); err != nil {
		var wrapped struct {
			Orders []wireOrder `json:"orders"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order history")
		}
		list = wrapped.Orders
	}

	orders := make([]Order, 0, len(list))
	for _, w := range list {
		orders = append(orders, w.normalize())
	}
	return orders, nil
}

// GetOrder fetches a single order by identifier. The token is optional; guest
// confirmation pages look orders up without one.
func (c *Client) GetOrder(ctx context.Context, orderID, token string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	body, err := c.get(ctx, "/orders/"+url.PathEscape(orderID), token, "order lookup")
	if err != nil {
		return nil, err
	}

	var w wireOrder
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order")
	}
	order := w.normalize()
	return &order, nil
}

// Cancel asks the order service to cancel the order. The service enforces
// that the order is still in a cancellable status.
func (c *Client) Cancel(ctx context.Context, orderID, token string) (*Order, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	target := c.baseURL + "/orders/" + url.PathEscape(orderID) + "/cancel"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cancel request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeErrorResponse(resp, "order cancellation")
	}

	var w wireOrder
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cancel response")
	}
	order := w.normalize()
	return &order, nil
}

func (c *Client) get(ctx context.Context, path, token, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+operation+" request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeErrorResponse(resp, operation)
	}
	return io.ReadAll(resp.Body)
}

// decodeErrorResponse maps the service's failure contract onto error codes:
// 401 unauthorized (guest fallback candidate), 400 business validation with
// the server's message surfaced verbatim, 404 not found, everything else a
// dependency failure.
func decodeErrorResponse(resp *http.Response, operation string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	message := ""
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		message = firstNonEmpty(body.Message, body.Error)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, firstNonEmpty(message, "authentication required"))
	case http.StatusBadRequest:
		return pkgerrors.New(pkgerrors.CodeValidation, firstNonEmpty(message, operation+" rejected"))
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, firstNonEmpty(message, "order not found"))
	default:
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, operation+" failed")
	}
}

type wireOrder struct {
	OrderID       string       `json:"orderId"`
	MongoID       string       `json:"_id"`
	PlainID       string       `json:"id"`
	Status        string       `json:"status"`
	Subtotal      int64        `json:"subtotal"`
	Shipping      int64        `json:"shipping"`
	Total         int64        `json:"total"`
	PaymentMethod string       `json:"paymentMethod"`
	CreatedAt     time.Time    `json:"createdAt"`
	Items         []DraftItem  `json:"items"`
	CustomerInfo  CustomerInfo `json:"customerInfo"`
}

// normalize collapses the two identifier spellings the service uses.
func (w wireOrder) normalize() Order {
	return Order{
		ID:            firstNonEmpty(w.OrderID, w.MongoID, w.PlainID),
		Status:        w.Status,
		Subtotal:      w.Subtotal,
		Shipping:      w.Shipping,
		Total:         w.Total,
		PaymentMethod: w.PaymentMethod,
		CreatedAt:     w.CreatedAt,
		Items:         w.Items,
		CustomerInfo:  w.CustomerInfo,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
