package playstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/option"

	"github.com/mobiverify/iap-verify/internal/application/command"
	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainErrors "github.com/mobiverify/iap-verify/internal/domain/errors"
	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

// Client wraps the Android Publisher API for purchase verification.
// Google has no production/sandbox host split; test purchases are flagged
// inside the responses instead.
// https://developers.google.com/android-publisher/api-ref/rest
type Client struct {
	service *androidpublisher.Service
	logger  *zap.Logger
}

// NewClient builds an Android Publisher client from service-account JSON.
func NewClient(ctx context.Context, keyJSON []byte, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	creds, err := google.CredentialsFromJSON(ctx, keyJSON, androidpublisher.AndroidpublisherScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	service, err := androidpublisher.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create android publisher service: %w", err)
	}

	return &Client{service: service, logger: logger}, nil
}

// FindProductType looks the product up in the app's in-app product catalog.
// Any lookup failure reads as not-found: the discovery pair decides which
// verification endpoint applies, it does not verify anything itself.
func (c *Client) FindProductType(ctx context.Context, bundleID, productID string) (string, bool) {
	product, err := c.service.Inappproducts.Get(bundleID, productID).Context(ctx).Do()
	if err != nil {
		c.logger.Debug("in-app product lookup missed",
			zap.String("bundle_id", bundleID),
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return "", false
	}
	return product.PurchaseType, true
}

// FindSubscription reports whether the product id names a subscription in
// the app's subscription catalog.
func (c *Client) FindSubscription(ctx context.Context, bundleID, productID string) bool {
	_, err := c.service.Monetization.Subscriptions.Get(bundleID, productID).Context(ctx).Do()
	if err != nil {
		c.logger.Debug("subscription lookup missed",
			zap.String("bundle_id", bundleID),
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// VerifyProduct verifies a one-time product purchase token.
func (c *Client) VerifyProduct(ctx context.Context, bundleID, productID, token string) (*command.Verification, error) {
	purchase, err := c.service.Purchases.Products.Get(bundleID, productID, token).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product purchase: %w", err)
	}
	if purchase == nil {
		return nil, domainErrors.ErrNoPurchaseFound
	}

	// 0 = purchased; 1 = cancelled, 2 = pending. Neither grants anything.
	if purchase.PurchaseState != 0 {
		return nil, domainErrors.ErrPurchaseCancelled
	}

	env := valueobject.EnvironmentProduction
	if purchase.PurchaseType != nil && *purchase.PurchaseType == 0 {
		env = valueobject.EnvironmentTest
	}

	record := entity.PurchaseRecord{
		ProductID:             productID,
		TransactionID:         purchase.OrderId,
		OriginalTransactionID: baseOrderID(purchase.OrderId),
		PurchaseDateUTC:       time.UnixMilli(purchase.PurchaseTimeMillis).UTC(),
		State:                 valueobject.StateActive,
	}

	return &command.Verification{
		Environment: env,
		Records:     []entity.PurchaseRecord{record},
	}, nil
}

// VerifyLegacySubscription verifies a token for a subscription configured
// as a legacy in-app product.
func (c *Client) VerifyLegacySubscription(ctx context.Context, bundleID, productID, token string) (*command.Verification, error) {
	purchase, err := c.service.Purchases.Subscriptions.Get(bundleID, productID, token).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription purchase: %w", err)
	}
	if purchase == nil {
		return nil, domainErrors.ErrNoPurchaseFound
	}

	env := valueobject.EnvironmentProduction
	if purchase.PurchaseType != nil && *purchase.PurchaseType == 0 {
		env = valueobject.EnvironmentTest
	}

	state := valueobject.StateActive
	// 0 = payment pending, 1 = received, 2 = free trial, 3 = deferred
	if purchase.PaymentState != nil && *purchase.PaymentState == 0 {
		state = valueobject.StatePending
	}

	record := entity.PurchaseRecord{
		ProductID:             productID,
		TransactionID:         purchase.OrderId,
		OriginalTransactionID: baseOrderID(purchase.OrderId),
		PurchaseDateUTC:       time.UnixMilli(purchase.StartTimeMillis).UTC(),
		State:                 state,
	}
	if purchase.ExpiryTimeMillis > 0 {
		t := time.UnixMilli(purchase.ExpiryTimeMillis).UTC()
		record.ExpiryDateUTC = &t
	}
	if purchase.UserCancellationTimeMillis > 0 {
		t := time.UnixMilli(purchase.UserCancellationTimeMillis).UTC()
		record.CancellationDateUTC = &t
		record.State = valueobject.StateCanceled
	}

	return &command.Verification{
		Environment: env,
		Records:     []entity.PurchaseRecord{record},
	}, nil
}

// VerifySubscription verifies a token through the subscriptionsv2 endpoint.
func (c *Client) VerifySubscription(ctx context.Context, bundleID, productID, token string) (*command.Verification, error) {
	purchase, err := c.service.Purchases.Subscriptionsv2.Get(bundleID, token).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription purchase: %w", err)
	}
	if purchase == nil {
		return nil, domainErrors.ErrNoPurchaseFound
	}

	env := valueobject.EnvironmentProduction
	if purchase.TestPurchase != nil {
		env = valueobject.EnvironmentTest
	}

	record := entity.PurchaseRecord{
		ProductID:             productID,
		TransactionID:         purchase.LatestOrderId,
		OriginalTransactionID: baseOrderID(purchase.LatestOrderId),
		PurchaseDateUTC:       parseRFC3339(purchase.StartTime),
		ExpiryDateUTC:         latestLineItemExpiry(purchase.LineItems),
		State:                 valueobject.StateFromGoogle(purchase.SubscriptionState),
	}

	return &command.Verification{
		Environment: env,
		Records:     []entity.PurchaseRecord{record},
	}, nil
}

// baseOrderID strips the renewal suffix from a Play order id: renewals of
// "GPA.1234-5678-9012-34567" are numbered "GPA.1234-5678-9012-34567..0",
// "..1" and so on, while the client holds the original id.
func baseOrderID(orderID string) string {
	if i := strings.Index(orderID, ".."); i > 0 {
		return orderID[:i]
	}
	return orderID
}

func parseRFC3339(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.UnixMilli(0).UTC()
	}
	return t.UTC()
}

// latestLineItemExpiry picks the greatest expiry across an order's line
// items. A cancelled order has its expiry set to the cancel instant by the
// store itself.
func latestLineItemExpiry(items []*androidpublisher.SubscriptionPurchaseLineItem) *time.Time {
	var latest *time.Time
	for _, item := range items {
		if item == nil || item.ExpiryTime == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, item.ExpiryTime)
		if err != nil {
			continue
		}
		t = t.UTC()
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest
}
