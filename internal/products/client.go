// Package products proxies the catalog API the storefront browses.
package products

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
	"github.com/sitheefoods/storefront-backend/pkg/pagination"
)

// Product is a catalog entry as the upstream service reports it.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Weight      string   `json:"weight,omitempty"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// Page is one page of catalog results.
type Page struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
}

// Client wraps the catalog service's REST API.
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

// NewClient builds the catalog client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("products: base url is required")
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

// List fetches one page of the catalog. An optional category narrows the
// result set server-side.
func (c *Client) List(ctx context.Context, params pagination.Params, category string) (*Page, error) {
	params = pagination.Normalize(params)

	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("limit", strconv.Itoa(params.Limit))
	if category != "" {
		query.Set("category", category)
	}

	body, err := c.get(ctx, "/products?"+query.Encode(), "catalog listing")
	if err != nil {
		return nil, err
	}

	// The service responds with either a paginated object or a bare array.
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		var list []Product
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog listing")
		}
		page = Page{Products: list, Total: len(list), TotalPages: 1}
	}

	page.Page = params.Page
	page.Limit = params.Limit
	if page.Products == nil {
		page.Products = []Product{}
	}
	return &page, nil
}

// Get fetches a single product.
func (c *Client) Get(ctx context.Context, productID string) (*Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	body, err := c.get(ctx, "/products/"+url.PathEscape(productID), "product lookup")
	if err != nil {
		return nil, err
	}

	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product")
	}
	return &product, nil
}

func (c *Client) get(ctx context.Context, path, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+operation+" request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, cause, operation+" failed")
	}
	return io.ReadAll(resp.Body)
}
