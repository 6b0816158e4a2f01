package appstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goiap "github.com/awa/go-iap/appstore"
	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/application/command"
	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainErrors "github.com/mobiverify/iap-verify/internal/domain/errors"
	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
	"github.com/mobiverify/iap-verify/internal/infrastructure/config"
)

// LegacyClient verifies iOS7-style receipts against the verifyReceipt
// endpoint. The endpoint URLs are fields so tests can point them at fakes.
type LegacyClient struct {
	ProductionURL string
	SandboxURL    string

	httpClient *http.Client
	secrets    *config.AppleSecretConfig
	logger     *zap.Logger
}

// NewLegacyClient creates a new verifyReceipt client
func NewLegacyClient(secrets *config.AppleSecretConfig, logger *zap.Logger) *LegacyClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LegacyClient{
		ProductionURL: goiap.ProductionURL,
		SandboxURL:    goiap.SandboxURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		secrets:       secrets,
		logger:        logger,
	}
}

// VerifyReceipt posts the receipt token to production and, when the store
// answers with a wrong-environment status, retries exactly once against the
// sandbox. Any further failure is terminal for the request; receipt
// verification is not safe to retry blindly against a paid transaction API.
func (c *LegacyClient) VerifyReceipt(ctx context.Context, bundleID, token string) (*command.Verification, error) {
	secret, ok := c.secrets.Resolve(bundleID)
	if !ok {
		return nil, fmt.Errorf("%w for bundle id '%s'", domainErrors.ErrNoAppSecret, bundleID)
	}

	resp, err := c.post(ctx, c.ProductionURL, token, secret)
	if err != nil {
		return nil, err
	}

	// Apple recommends calling production first and falling back to the
	// test environment on a wrong-environment status.
	if resp.WrongEnvironment() {
		c.logger.Info("sandbox purchase, calling test environment", zap.String("bundle_id", bundleID))
		resp, err = c.post(ctx, c.SandboxURL, token, secret)
		if err != nil {
			return nil, err
		}
	}

	if !resp.Valid() {
		if msg := resp.StatusMessage(); msg != "" {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("receipt verification failed with status %d", resp.Status)
	}

	if resp.Receipt == nil {
		return nil, domainErrors.ErrNoReceiptReturned
	}

	return &command.Verification{
		Environment: valueobject.EnvironmentFromApple(resp.Environment),
		BundleID:    resp.Receipt.BundleID,
		Records:     normalizeReceipt(resp),
	}, nil
}

func (c *LegacyClient) post(ctx context.Context, url, token, secret string) (*ReceiptResponse, error) {
	body, err := json.Marshal(goiap.IAPRequest{
		ReceiptData: token,
		Password:    secret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode verifyReceipt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build verifyReceipt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifyReceipt call failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifyReceipt returned HTTP %d", httpResp.StatusCode)
	}

	var resp ReceiptResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse verifyReceipt response: %w", err)
	}

	return &resp, nil
}

// normalizeReceipt maps the response's purchase list into purchase records.
// latest_receipt_info wins over receipt.in_app when present: it carries the
// renewal history for auto-renewable subscriptions.
func normalizeReceipt(resp *ReceiptResponse) []entity.PurchaseRecord {
	purchases := resp.LatestReceiptInfo
	if len(purchases) == 0 && resp.Receipt != nil {
		purchases = resp.Receipt.InApp
	}

	records := make([]entity.PurchaseRecord, 0, len(purchases))
	for _, p := range purchases {
		records = append(records, entity.PurchaseRecord{
			ProductID:             p.ProductID,
			TransactionID:         p.TransactionID,
			OriginalTransactionID: p.OriginalTransactionID,
			PurchaseDateUTC:       purchaseDateUTC(p.PurchaseDateMS),
			ExpiryDateUTC:         parseEpochMS(p.ExpiresDateMS),
			CancellationDateUTC:   parseEpochMS(p.CancellationDateMS),
			State:                 valueobject.StateUnknown,
		})
	}
	return records
}
