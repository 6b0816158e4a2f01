package errors

import "errors"

var (
	// ErrInvalidReceipt marks a client receipt that fails the shape
	// invariant; no upstream call is made for these.
	ErrInvalidReceipt = errors.New("Invalid Receipt")

	// ErrNoReceiptReturned marks an authority response that carried no
	// receipt body at all.
	ErrNoReceiptReturned = errors.New("no receipt returned")

	// ErrNoPurchaseFound marks an authority response with no purchase
	// entries to reconcile against.
	ErrNoPurchaseFound = errors.New("no purchase found")

	// ErrNoAppSecret marks a bundle id with neither a per-bundle nor a
	// master App Store shared secret configured. It fails the call, not
	// the process.
	ErrNoAppSecret = errors.New("no app store shared secret configured")

	// ErrPurchaseCancelled marks a one-time product purchase the store
	// reports as cancelled or refunded.
	ErrPurchaseCancelled = errors.New("purchase was cancelled or refunded")
)
