package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tinyhome/internal/app/policies"
)

const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"

	defaultTimeout = 30 * time.Second
	// tokens are refreshed this long before PayPal says they expire
	tokenLeeway = time.Minute
)

var ErrMissingCredentials = errors.New("paypal: client id and secret are required")

// Client verifies orders against the PayPal Orders v2 API.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTP         *http.Client
	Timeout      time.Duration
	Now          func() time.Time
	Logger       *slog.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewClient(baseURL, clientID, clientSecret string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTP:         &http.Client{},
		Timeout:      timeout,
		Logger:       logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type orderResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Payer         json.RawMessage `json:"payer"`
	CreateTime    string          `json:"create_time"`
	PurchaseUnits []struct {
		Amount struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
	} `json:"purchase_units"`
}

// GetOrder returns the order as PayPal reports it. Unknown or unprocessable references come back
// as an Order with an empty status so the caller treats them as not completed.
func (c *Client) GetOrder(ctx context.Context, orderReference string) (policies.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	token, err := c.accessToken(ctx)
	if err != nil {
		return policies.Order{}, err
	}
	endpoint := strings.TrimRight(c.baseURL(), "/") + "/v2/checkout/orders/" + url.PathEscape(orderReference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return policies.Order{}, &policies.VerifierError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http().Do(req)
	if err != nil {
		return policies.Order{}, c.transportError("order request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		c.log().Warn("paypal order not found", "order_reference", orderReference, "status", resp.StatusCode)
		return policies.Order{ID: orderReference}, nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.resetToken()
		return policies.Order{}, c.statusError(resp)
	case resp.StatusCode != http.StatusOK:
		return policies.Order{}, c.statusError(resp)
	}

	var body orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return policies.Order{}, &policies.VerifierError{Status: resp.StatusCode, Err: fmt.Errorf("decode order: %w", err)}
	}
	order := policies.Order{
		ID:     body.ID,
		Status: body.Status,
		Payer:  body.Payer,
	}
	if body.CreateTime != "" {
		if created, err := time.Parse(time.RFC3339, body.CreateTime); err == nil {
			order.CreateTime = created
		}
	}
	if len(body.PurchaseUnits) > 0 {
		order.Amount = body.PurchaseUnits[0].Amount.Value
		order.Currency = body.PurchaseUnits[0].Amount.CurrencyCode
	}
	return order, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", &policies.VerifierError{Err: ErrMissingCredentials}
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	endpoint := strings.TrimRight(c.baseURL(), "/") + "/v1/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &policies.VerifierError{Err: err}
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http().Do(req)
	if err != nil {
		return "", c.transportError("token request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp)
	}
	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &policies.VerifierError{Status: resp.StatusCode, Err: fmt.Errorf("decode token: %w", err)}
	}
	if body.AccessToken == "" {
		return "", &policies.VerifierError{Status: resp.StatusCode, Err: errors.New("token response without access_token")}
	}
	c.token = body.AccessToken
	c.expires = c.now().Add(time.Duration(body.ExpiresIn)*time.Second - tokenLeeway)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) transportError(msg string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		err = fmt.Errorf("paypal timeout after %s", c.timeout())
	}
	c.log().Error(msg, "error", err)
	return &policies.VerifierError{Err: err}
}

func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("paypal returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	c.log().Error("paypal returned error", "status", resp.StatusCode, "error", err)
	return &policies.VerifierError{Status: resp.StatusCode, Err: err}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return SandboxBaseURL
}

func (c *Client) http() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Client) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

var _ policies.PaymentVerifier = (*Client)(nil)
