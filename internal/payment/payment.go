package payment

import (
	"context"
	"time"

	"tickethub/models"
)

type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionComplete SessionStatus = "complete"
	SessionExpired  SessionStatus = "expired"
)

// Webhook event types delivered by the provider. Anything else is
// acknowledged and ignored.
const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)

// Session is the provider-side object representing one pending payment
// attempt, bound 1:1 to a local order. The order id travels as session
// metadata so webhook payloads map back without a lookup table.
type Session struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id"`
	RedirectURL string        `json:"redirect_url"`
	Status      SessionStatus `json:"status"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// SessionItem carries the unit price snapshot for one ticket of the order.
type SessionItem struct {
	TicketTypeID string       `json:"ticket_type_id"`
	UnitPrice    models.Money `json:"unit_price"`
}

type CreateSessionRequest struct {
	OrderID    string        `json:"order_id"`
	Items      []SessionItem `json:"items"`
	SuccessURL string        `json:"success_url"`
	CancelURL  string        `json:"cancel_url"`
}

// Event is a verified webhook notification.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

// Provider is the narrow contract this engine requires from the external
// payment service. Implementations must verify webhook authenticity in
// ConstructWebhookEvent and fail with status.ErrInvalidSignature.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error)
	ConstructWebhookEvent(body []byte, signature string) (*Event, error)
}
