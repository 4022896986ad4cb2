package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tickethub/internal/status"
)

type ClientConfig struct {
	BaseURL       string `json:"baseUrl" mapstructure:"base_url"`
	MerchantID    string `json:"merchantId" mapstructure:"merchant_id"`
	APIKey        string `json:"apiKey" mapstructure:"api_key"`
	HMACKey       string `json:"hmacKey" mapstructure:"hmac_key"`
	WebhookSecret string `json:"webhookSecret" mapstructure:"webhook_secret"`
}

// Client talks to the payment provider's checkout API. Requests are JSON
// bodies signed with an HMAC of the payload in the SignedHash header.
type Client struct {
	// baseURL is the base url of the provider backend.
	baseURL string

	// merchantID identifies this platform at the provider.
	merchantID string

	// apiKey authenticates API calls.
	apiKey string

	// hmacKey signs outbound request bodies.
	hmacKey string

	// webhookSecret verifies inbound webhook payloads.
	webhookSecret string

	// hc is the http client.
	hc *http.Client
}

func NewClient(c *ClientConfig) *Client {
	return &Client{
		baseURL:       c.BaseURL,
		merchantID:    c.MerchantID,
		apiKey:        c.APIKey,
		hmacKey:       c.HMACKey,
		webhookSecret: c.WebhookSecret,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// reply is the provider's response envelope.
type reply struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionPayload struct {
	SessionID   string `json:"sessionId"`
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl"`
	Status      string `json:"status"`
	ExpiresAt   int64  `json:"expiresAt"`
}

func (p *sessionPayload) toDomain() *Session {
	st := SessionStatus(p.Status)
	switch st {
	case SessionOpen, SessionComplete, SessionExpired:
	default:
		st = SessionOpen
	}
	return &Session{
		ID:          p.SessionID,
		OrderID:     p.OrderID,
		RedirectURL: p.RedirectURL,
		Status:      st,
		ExpiresAt:   time.Unix(p.ExpiresAt, 0),
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	number, err := randomNumber()
	if err != nil {
		return nil, fmt.Errorf("createCheckoutSession: randomNumber: %w", err)
	}

	items := make([]map[string]any, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, map[string]any{
			"ticketTypeId": it.TicketTypeID,
			"unitPrice":    it.UnitPrice.Amount,
			"currency":     it.UnitPrice.Currency,
		})
	}

	body, err := json.Marshal(map[string]any{
		"requestId":  number,
		"merchantId": c.merchantID,
		"orderId":    req.OrderID,
		"items":      items,
		"successUrl": req.SuccessURL,
		"cancelUrl":  req.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("createCheckoutSession: json.Marshal: %w", err)
	}

	data, err := c.post(ctx, "/api/v1/checkout/sessions", body)
	if err != nil {
		return nil, fmt.Errorf("createCheckoutSession: %w", err)
	}

	var p sessionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("createCheckoutSession: json.Unmarshal: %w", err)
	}

	return p.toDomain(), nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error) {
	number, err := randomNumber()
	if err != nil {
		return nil, fmt.Errorf("getCheckoutSession: randomNumber: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"requestId":  number,
		"merchantId": c.merchantID,
		"sessionId":  sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("getCheckoutSession: json.Marshal: %w", err)
	}

	data, err := c.post(ctx, "/api/v1/checkout/check-session", body)
	if err != nil {
		return nil, fmt.Errorf("getCheckoutSession: %w", err)
	}

	var p sessionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("getCheckoutSession: json.Unmarshal: %w", err)
	}

	return p.toDomain(), nil
}

// ConstructWebhookEvent verifies the HMAC signature over the raw body and
// parses the notification. A bad signature is a rejected request, never
// retried here; the provider's own retry policy governs redelivery.
func (c *Client) ConstructWebhookEvent(body []byte, signature string) (*Event, error) {
	if !VerifyHmac256(body, []byte(c.webhookSecret), signature) {
		return nil, status.ErrInvalidSignature
	}

	var raw struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		OrderID   string `json:"orderId"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("constructWebhookEvent: json.Unmarshal: %w", err)
	}
	if raw.Type == "" || raw.SessionID == "" {
		return nil, errors.New("constructWebhookEvent: missing event type or session id")
	}

	return &Event{
		Type:      raw.Type,
		SessionID: raw.SessionID,
		OrderID:   raw.OrderID,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SignedHash", Hmac256(body, []byte(c.hmacKey)))
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var r reply
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}
	if r.Status != "OK" {
		return nil, fmt.Errorf("reply.Status: %v, reply.Message: %v", r.Status, r.Message)
	}

	return r.Data, nil
}
