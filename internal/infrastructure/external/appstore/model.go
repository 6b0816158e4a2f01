package appstore

// Wire model for the iOS7-style verifyReceipt response.
// See https://developer.apple.com/documentation/appstorereceipts/responsebody

// ReceiptResponse is the body the verifyReceipt endpoint returns.
type ReceiptResponse struct {
	// Status is 0 for a valid receipt, an error code otherwise.
	Status int `json:"status"`

	// Environment the receipt was generated for: Sandbox or Production.
	Environment string `json:"environment"`

	// IsRetryable applies to the 21100-21199 range only: 1 means the issue
	// is temporary and the receipt may be retried later.
	IsRetryable bool `json:"is-retryable"`

	// Receipt is a representation of the receipt that was sent for
	// verification.
	Receipt *ReceiptInfo `json:"receipt"`

	// LatestReceipt is the latest Base64-encoded app receipt. Only returned
	// for receipts containing auto-renewable subscriptions.
	LatestReceipt string `json:"latest_receipt"`

	// LatestReceiptInfo contains all in-app purchase transactions. Only
	// returned for receipts containing auto-renewable subscriptions.
	LatestReceiptInfo []InApp `json:"latest_receipt_info"`
}

// ReceiptInfo is the decoded receipt body.
type ReceiptInfo struct {
	BundleID           string  `json:"bundle_id"`
	ApplicationVersion string  `json:"application_version"`
	InApp              []InApp `json:"in_app"`
}

// InApp is one purchase entry, either from receipt.in_app or from
// latest_receipt_info. Every date arrives as a millisecond-epoch string.
type InApp struct {
	ProductID             string `json:"product_id"`
	TransactionID         string `json:"transaction_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	WebOrderLineItemID    string `json:"web_order_line_item_id"`
	Quantity              string `json:"quantity"`

	PurchaseDateMS         string `json:"purchase_date_ms"`
	OriginalPurchaseDateMS string `json:"original_purchase_date_ms"`
	ExpiresDateMS          string `json:"expires_date_ms"`
	CancellationDateMS     string `json:"cancellation_date_ms"`
	CancellationReason     string `json:"cancellation_reason"`

	IsTrialPeriod        string `json:"is_trial_period"`
	IsInIntroOfferPeriod string `json:"is_in_intro_offer_period"`
	InAppOwnershipType   string `json:"in_app_ownership_type"`
}

// Valid reports a status of 0.
func (r *ReceiptResponse) Valid() bool {
	return r.Status == 0
}

// WrongEnvironment reports the wrong-environment statuses that trigger the
// single production-to-sandbox fallback hop.
func (r *ReceiptResponse) WrongEnvironment() bool {
	return r.Status == 21007 || r.Status == 21008
}

// StatusMessage returns Apple's documented description for a nonzero
// status, or the empty string for codes Apple does not document.
func (r *ReceiptResponse) StatusMessage() string {
	switch r.Status {
	case 21000:
		return "The App Store could not read the JSON object you provided."
	case 21002:
		return "The data in the receipt-data property was malformed or missing."
	case 21003:
		return "The receipt could not be authenticated."
	case 21004:
		return "The shared secret you provided does not match the shared secret on file for your account."
	case 21005:
		return "The receipt server is not currently available."
	case 21006:
		return "This receipt is valid but the subscription has expired. When this status code is returned to your server, the receipt data is also decoded and returned as part of the response. Only returned for iOS 6 style transaction receipts for auto-renewable subscriptions."
	case 21007:
		return "This receipt is from the test environment, but it was sent to the production environment for verification. Send it to the test environment instead."
	case 21008:
		return "This receipt is from the production environment, but it was sent to the test environment for verification. Send it to the production environment instead."
	case 21010:
		return "This receipt could not be authorized. Treat this the same as if a purchase was never made."
	default:
		if r.Status >= 21100 && r.Status <= 21199 {
			return "Internal data access error."
		}
	}
	return ""
}
