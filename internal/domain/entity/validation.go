package entity

import "time"

// ValidationOutcome is the single outward shape every verification attempt
// resolves to, success or failure. Message is empty for a clean valid
// purchase and carries a human-readable reason otherwise; a valid purchase
// that the store refunded or revoked keeps its note here as well.
type ValidationOutcome struct {
	IsValid          bool
	Message          string
	ValidatedReceipt *ValidatedReceipt
}

// Invalid builds a failed outcome with the given reason.
func Invalid(message string) *ValidationOutcome {
	return &ValidationOutcome{IsValid: false, Message: message}
}

// ValidatedReceipt is the normalized purchase state returned to the caller
// once a receipt has been verified against the store, and the flattened row
// handed to the audit log. Immutable after construction.
type ValidatedReceipt struct {
	BundleID              string     `json:"bundleId"`
	ProductID             string     `json:"productId"`
	TransactionID         string     `json:"transactionId"`
	OriginalTransactionID string     `json:"originalTransactionId"`
	PurchaseDateUTC       time.Time  `json:"purchaseDateUtc"`
	ExpiryUTC             *time.Time `json:"expiryUtc,omitempty"`
	ServerUTC             time.Time  `json:"serverUtc"`
	GraceDays             *int       `json:"graceDays,omitempty"`
	IsExpired             bool       `json:"isExpired"`
	IsSuspended           bool       `json:"isSuspended"`
	Token                 string     `json:"token"`
}
