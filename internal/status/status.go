package status

import "errors"

var (
	// ErrInsufficientInventory is returned when a reservation asks for more
	// units than the ticket type has available. A failed reservation performs
	// no mutation.
	ErrInsufficientInventory = errors.New("inventory: insufficient inventory")

	// ErrDuplicateTicketType is returned when an event already has a ticket
	// type of the same class.
	ErrDuplicateTicketType = errors.New("inventory: duplicate ticket type")

	// ErrInvalidResize is returned when a resize would set the total below
	// the already sold quantity.
	ErrInvalidResize = errors.New("inventory: new total below sold quantity")

	// ErrInventoryMismatch indicates a release that would push a counter
	// negative. Reservation/release bookkeeping upstream is broken; callers
	// must treat this as fatal, not clamp and continue.
	ErrInventoryMismatch = errors.New("inventory: release exceeds sold quantity")

	// ErrInvalidTransition is returned by the ticket and order state machines
	// when the requested transition is not allowed from the current state.
	ErrInvalidTransition = errors.New("lifecycle: invalid state transition")

	// ErrInvalidSignature is returned when a webhook payload fails HMAC
	// verification. The request must be rejected, never retried here.
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")

	ErrCurrencyMismatch = errors.New("money: currency mismatch")

	ErrProviderUnavailable = errors.New("payment: provider unavailable")

	ErrNotFound = errors.New("record not found")
)
