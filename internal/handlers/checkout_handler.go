package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/services"
	"tickethub/internal/status"
	"tickethub/models"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
}

func NewCheckoutHandler(checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type createCheckoutRequest struct {
	UserID     string                `json:"user_id"`
	Items      []models.CheckoutItem `json:"items"`
	SuccessURL string                `json:"success_url"`
	CancelURL  string                `json:"cancel_url"`
}

// CreateCheckoutSession - start a checkout for a set of (ticket type, attendee) pairs
func (h *CheckoutHandler) CreateCheckoutSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Authentication required", nil)
	}

	var req createCheckoutRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	// buyers can only check out for themselves
	if req.UserID != e.Auth.Id && !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Cannot create a checkout for another user", nil)
	}

	result, err := h.checkout.CreateCheckoutSession(e.Request.Context(),
		req.UserID, req.Items, req.SuccessURL, req.CancelURL)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrInsufficientInventory):
			return apis.NewApiError(http.StatusConflict, err.Error(), nil)
		case errors.Is(err, status.ErrNotFound):
			return apis.NewNotFoundError(err.Error(), nil)
		case errors.Is(err, status.ErrProviderUnavailable):
			return apis.NewApiError(http.StatusBadGateway, "Payment provider unavailable", nil)
		default:
			return apis.NewBadRequestError(err.Error(), nil)
		}
	}

	return e.JSON(http.StatusCreated, result)
}

// GetCheckoutSession - poll the status of an in-flight checkout
func (h *CheckoutHandler) GetCheckoutSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Authentication required", nil)
	}

	sessionID := e.Request.PathValue("sessionId")
	if sessionID == "" {
		return apis.NewBadRequestError("Missing session id", nil)
	}

	sess, err := h.checkout.GetSession(e.Request.Context(), sessionID)
	if err != nil {
		return apis.NewNotFoundError("Checkout session not found", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"session_id":   sess.ID,
		"order_id":     sess.OrderID,
		"status":       sess.Status,
		"redirect_url": sess.RedirectURL,
		"expires_at":   sess.ExpiresAt,
	})
}

// CancelCheckoutSession - abandon a checkout and return to the shop.
// The redirect always happens; a failed unwind is logged, never shown.
func (h *CheckoutHandler) CancelCheckoutSession(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	redirectTo := e.Request.URL.Query().Get("redirect_to")
	if redirectTo == "" {
		redirectTo = "/"
	}

	if sessionID != "" {
		h.checkout.CancelCheckoutSession(e.Request.Context(), sessionID)
	}

	return e.Redirect(http.StatusFound, redirectTo)
}
