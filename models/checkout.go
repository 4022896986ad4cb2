package models

// CheckoutItem is one requested ticket: a ticket type plus the attendee the
// ticket will be issued to. Tickets are fungible within a type, so there is
// no seat selection here.
type CheckoutItem struct {
	TicketTypeID string `json:"ticket_type_id"`
	AttendeeName string `json:"attendee_name"`
}

// CheckoutResult is what the orchestrator hands back to the HTTP layer: the
// provider session to redirect the buyer to, and the local order it is bound
// to.
type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
	OrderID     string `json:"order_id"`
}
