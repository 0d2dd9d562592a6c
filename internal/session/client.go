// Package session keeps the shopper's authentication state: the bearer token
// and the cached user profile, persisted in storage slots and restored at
// startup with expired tokens discarded.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/sitheefoods/storefront-backend/pkg/errors"
)

// User is the profile the auth service reports.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the account-creation payload.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the token-plus-profile pair a successful login or signup yields.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Client wraps the auth service's REST API.
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

// NewClient builds the auth client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("session: base url is required")
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

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	return c.post(ctx, "/login", creds, "login")
}

// Signup creates an account and returns the initial token and profile.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	return c.post(ctx, "/signup", req, "signup")
}

// Me fetches the profile behind the token. A 401 means the token is no longer
// valid and the caller should drop it.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build profile request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch profile")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeErrorResponse(resp, "profile fetch")
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode profile")
	}
	return &user, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, operation string) (*AuthResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+operation+" payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+operation+" request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeErrorResponse(resp, operation)
	}

	var result AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+operation+" response")
	}
	if result.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, operation+" response missing token")
	}
	return &result, nil
}

func decodeErrorResponse(resp *http.Response, operation string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := ""
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			message = body.Message
		} else {
			message = body.Error
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if message == "" {
			message = "invalid credentials"
		}
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusBadRequest, http.StatusConflict:
		if message == "" {
			message = operation + " rejected"
		}
		return pkgerrors.New(pkgerrors.CodeValidation, message)
	default:
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, operation+" failed")
	}
}
