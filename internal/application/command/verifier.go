package command

import (
	"context"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

// Verification is what an upstream store call resolves to once its payload
// has been normalized: the environment the purchase belongs to, the bundle
// id the authority echoed back (empty when the call itself was scoped to
// the bundle and nothing is echoed), and the purchase records to reconcile.
type Verification struct {
	Environment valueobject.Environment
	BundleID    string
	Records     []entity.PurchaseRecord
}

// AppleReceiptVerifier verifies an iOS7-style receipt against the
// verifyReceipt endpoint, falling back from production to sandbox on a
// wrong-environment status.
type AppleReceiptVerifier interface {
	VerifyReceipt(ctx context.Context, bundleID, token string) (*Verification, error)
}

// AppleTransactionVerifier fetches and decodes a StoreKit v2 signed
// transaction from the App Store Server API.
type AppleTransactionVerifier interface {
	VerifyTransaction(ctx context.Context, bundleID, transactionID string) (*Verification, error)
}

// GooglePlayVerifier exposes the Android Publisher calls the Google
// orchestrator needs. The two Find lookups are the product-type discovery
// pair; a lookup failure of any kind reads as not-found.
type GooglePlayVerifier interface {
	// FindProductType returns the configured purchaseType of an in-app
	// product, or found == false when the product does not exist.
	FindProductType(ctx context.Context, bundleID, productID string) (purchaseType string, found bool)

	// FindSubscription reports whether a subscription product with this id
	// is configured for the app.
	FindSubscription(ctx context.Context, bundleID, productID string) bool

	// VerifyProduct verifies a one-time product purchase token.
	VerifyProduct(ctx context.Context, bundleID, productID, token string) (*Verification, error)

	// VerifyLegacySubscription verifies a purchase token through the legacy
	// purchases.subscriptions endpoint.
	VerifyLegacySubscription(ctx context.Context, bundleID, productID, token string) (*Verification, error)

	// VerifySubscription verifies a purchase token through the
	// subscriptionsv2 endpoint.
	VerifySubscription(ctx context.Context, bundleID, productID, token string) (*Verification, error)
}
