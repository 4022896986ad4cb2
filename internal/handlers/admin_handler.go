package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/internal/services"
	"tickethub/internal/status"
	"tickethub/models"
)

// AdminHandler exposes the event-owner side: defining, resizing and removing
// ticket classes, plus gate check-in. All routes require superuser auth.
type AdminHandler struct {
	inventory *services.InventoryService
}

func NewAdminHandler(inventory *services.InventoryService) *AdminHandler {
	return &AdminHandler{inventory: inventory}
}

type createTicketTypeRequest struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	PriceAmount   string `json:"price_amount"`
	PriceCurrency string `json:"price_currency"`
	TotalQuantity int    `json:"total_quantity"`
}

// CreateTicketType - define a new ticket class for an event
func (h *AdminHandler) CreateTicketType(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	var req createTicketTypeRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	amount, err := decimal.NewFromString(req.PriceAmount)
	if err != nil {
		return apis.NewBadRequestError("Invalid price amount", err)
	}
	price, err := models.NewMoney(amount, req.PriceCurrency)
	if err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	tt, err := h.inventory.CreateTicketType(e.Request.Context(),
		req.EventID, req.Type, req.Description, price, req.TotalQuantity)
	if err != nil {
		if errors.Is(err, status.ErrDuplicateTicketType) {
			return apis.NewApiError(http.StatusConflict, err.Error(), nil)
		}
		return apis.NewBadRequestError(err.Error(), nil)
	}

	return e.JSON(http.StatusCreated, tt)
}

// ResizeTicketType - change the total capacity of a ticket class
func (h *AdminHandler) ResizeTicketType(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	var req struct {
		TotalQuantity int `json:"total_quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	tt, err := h.inventory.ResizeTicketType(e.Request.Context(),
		e.Request.PathValue("ticketTypeId"), req.TotalQuantity)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrNotFound):
			return apis.NewNotFoundError(err.Error(), nil)
		case errors.Is(err, status.ErrInvalidResize):
			return apis.NewBadRequestError(err.Error(), nil)
		default:
			return apis.NewBadRequestError(err.Error(), nil)
		}
	}

	return e.JSON(http.StatusOK, tt)
}

// DeleteTicketType - remove a ticket class, cancelling its tickets
func (h *AdminHandler) DeleteTicketType(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	id := e.Request.PathValue("ticketTypeId")
	if err := h.inventory.DeleteTicketType(e.Request.Context(), id); err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return apis.NewNotFoundError(err.Error(), nil)
		}
		return apis.NewBadRequestError(err.Error(), nil)
	}

	return e.NoContent(http.StatusNoContent)
}

// CheckInTicket - gate scan, marks an active ticket used
func (h *AdminHandler) CheckInTicket(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Admin access required", nil)
	}

	ticket, err := h.inventory.CheckInTicket(e.Request.Context(), e.Request.PathValue("ticketId"))
	if err != nil {
		switch {
		case errors.Is(err, status.ErrNotFound):
			return apis.NewNotFoundError(err.Error(), nil)
		case errors.Is(err, status.ErrInvalidTransition):
			return apis.NewApiError(http.StatusConflict, err.Error(), nil)
		default:
			return apis.NewBadRequestError(err.Error(), nil)
		}
	}

	return e.JSON(http.StatusOK, ticket)
}
