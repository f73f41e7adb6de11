// Package api provides the HTTP client for the remote finance API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/julio3266/finance-control-app-sub000/internal/common"
	"github.com/julio3266/finance-control-app-sub000/internal/ledger"
	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

// TokenSource supplies the bearer session token. An empty token with a nil
// error means no session exists.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource with a fixed value, useful for tests and
// one-shot commands.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(_ context.Context) (string, error) {
	return string(s), nil
}

// Client talks to the remote finance API. Every request carries a bearer
// token; a missing token fails locally before any network I/O, never
// silently sent unauthenticated.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	baseURL    string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, tokens TokenSource) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("api base URL is required: %w", common.ErrMissingConfig)
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "api"),
	}, nil
}

// FetchTransactions implements ledger.Fetcher: it encodes the query, issues
// the request, and normalizes whichever of the three accepted payload shapes
// the server answered with.
func (c *Client) FetchTransactions(ctx context.Context, q ledger.Query) (*ledger.NormalizedResponse, error) {
	body, err := c.get(ctx, "/transactions", encodeQuery(q))
	if err != nil {
		return nil, err
	}

	resp, err := ledger.NormalizePayload(body)
	if err != nil {
		return nil, common.NewRemoteError(0, "unexpected response from server", err)
	}
	return resp, nil
}

// CreateTransaction posts one manually entered record, used by the importer.
func (c *Client) CreateTransaction(ctx context.Context, rec model.TransactionRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("refusing to upload invalid transaction: %w", err)
	}

	body := map[string]any{
		"description": rec.Description,
		"amount":      rec.Amount,
		"type":        string(rec.Kind),
		"date":        rec.OccurredAt.Format(time.RFC3339),
		"paid":        rec.Paid == model.PaidStatusPaid,
		"imported":    rec.Imported,
	}
	// Validate guarantees at most one owner is set.
	if rec.AccountID != "" {
		body["accountId"] = rec.AccountID
	}
	if rec.BankAccountID != "" {
		body["bankAccountId"] = rec.BankAccountID
	}
	if rec.CreditCardID != "" {
		body["creditCardId"] = rec.CreditCardID
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transactions", nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

// Login exchanges credentials for a session token. This is the one endpoint
// that runs without a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required")
	}

	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var wire struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return "", common.NewRemoteError(0, "unexpected response from server", err)
	}

	token := wire.Token
	if token == "" {
		token = wire.AccessToken
	}
	if token == "" {
		return "", common.NewRemoteError(0, "login response carried no token", nil)
	}
	return token, nil
}

// get issues an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session token: %w", err)
	}
	if token == "" {
		return nil, common.ErrAuthenticationRequired
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to build request URL: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logger.Debug("Requesting", "method", req.Method, "url", req.URL.Redacted())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.NewRemoteError(0, "network failure", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewRemoteError(resp.StatusCode, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.NewRemoteError(resp.StatusCode, extractErrorMessage(body, resp.StatusCode), nil)
	}

	return body, nil
}

// extractErrorMessage pulls a human message out of an error body when the
// server sent one.
func extractErrorMessage(body []byte, statusCode int) string {
	var wire struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err == nil {
		if wire.Message != "" {
			return wire.Message
		}
		if wire.Error != "" {
			return wire.Error
		}
	}
	return http.StatusText(statusCode)
}

// encodeQuery maps a ledger query onto the parameter names the server
// accepts. Zero-valued fields are omitted; the mutual exclusions are already
// guaranteed by the filter state manager.
func encodeQuery(q ledger.Query) url.Values {
	params := url.Values{}

	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.AccountID != "" {
		params.Set("accountId", q.AccountID)
	}
	if q.BankAccountID != "" {
		params.Set("bankAccountId", q.BankAccountID)
	}
	if q.CreditCardID != "" {
		params.Set("creditCardId", q.CreditCardID)
	}
	if q.SourceType != "" {
		params.Set("sourceType", string(q.SourceType))
	}

	if q.StartDate != nil && q.EndDate != nil {
		params.Set("startDate", q.StartDate.Format("2006-01-02"))
		params.Set("endDate", q.EndDate.Format("2006-01-02"))
	} else {
		if q.Month != 0 {
			params.Set("month", strconv.Itoa(q.Month))
		}
		if q.Year != 0 {
			params.Set("year", strconv.Itoa(q.Year))
		}
	}

	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))

	return params
}

// Ensure Client satisfies the session's fetcher contract.
var _ ledger.Fetcher = (*Client)(nil)
