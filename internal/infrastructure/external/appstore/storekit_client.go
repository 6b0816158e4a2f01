package appstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/application/command"
	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainErrors "github.com/mobiverify/iap-verify/internal/domain/errors"
	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

const (
	storeKitProductionURL = "https://api.storekit.itunes.apple.com/inApps/v1/transactions/%s"
	storeKitSandboxURL    = "https://api.storekit-sandbox.itunes.apple.com/inApps/v1/transactions/%s"
)

// transactionResponse is the App Store Server API envelope.
type transactionResponse struct {
	SignedTransactionInfo string `json:"signedTransactionInfo"`
}

// transactionClaims is the decoded JWS payload of a signed transaction.
// Dates here are millisecond-epoch numbers, unlike the legacy receipt's
// string encoding.
type transactionClaims struct {
	jwt.RegisteredClaims

	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	WebOrderLineItemID    string `json:"webOrderLineItemId"`
	BundleID              string `json:"bundleId"`
	ProductID             string `json:"productId"`
	PurchaseDate          int64  `json:"purchaseDate"`
	OriginalPurchaseDate  int64  `json:"originalPurchaseDate"`
	ExpiresDate           *int64 `json:"expiresDate"`
	RevocationDate        *int64 `json:"revocationDate"`
	RevocationReason      *int64 `json:"revocationReason"`
	Quantity              int    `json:"quantity"`
	Type                  string `json:"type"`
	InAppOwnershipType    string `json:"inAppOwnershipType"`
	SignedDate            int64  `json:"signedDate"`
	Environment           string `json:"environment"`
}

// StoreKitClient fetches signed transactions from the App Store Server API
// and decodes their payloads. URL templates are fields so tests can point
// them at fakes; each takes the transaction id as its one format argument.
type StoreKitClient struct {
	ProductionURL string
	SandboxURL    string

	httpClient *http.Client
	tokens     *TokenSource
	parser     *jwt.Parser
	logger     *zap.Logger
}

// NewStoreKitClient creates a new App Store Server API client
func NewStoreKitClient(tokens *TokenSource, logger *zap.Logger) *StoreKitClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreKitClient{
		ProductionURL: storeKitProductionURL,
		SandboxURL:    storeKitSandboxURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		tokens:        tokens,
		parser:        jwt.NewParser(),
		logger:        logger,
	}
}

// VerifyTransaction fetches the signed transaction, trying production first
// and the sandbox host once when production has nothing for the id, then
// decodes the payload. The JWS signature is not re-verified here: the
// transaction was fetched over TLS from the signing authority itself.
func (c *StoreKitClient) VerifyTransaction(ctx context.Context, bundleID, transactionID string) (*command.Verification, error) {
	bearer, err := c.tokens.Bearer(bundleID)
	if err != nil {
		return nil, err
	}

	signedInfo, err := c.fetch(ctx, fmt.Sprintf(c.ProductionURL, transactionID), bearer)
	if err != nil || signedInfo == "" {
		c.logger.Info("attempting sandbox purchase, calling test environment",
			zap.String("bundle_id", bundleID),
			zap.String("transaction_id", transactionID),
		)
		signedInfo, err = c.fetch(ctx, fmt.Sprintf(c.SandboxURL, transactionID), bearer)
	}
	if err != nil {
		return nil, err
	}
	if signedInfo == "" {
		return nil, domainErrors.ErrInvalidReceipt
	}

	var claims transactionClaims
	if _, _, err := c.parser.ParseUnverified(signedInfo, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	record := entity.PurchaseRecord{
		ProductID:             claims.ProductID,
		TransactionID:         claims.TransactionID,
		OriginalTransactionID: claims.OriginalTransactionID,
		PurchaseDateUTC:       time.UnixMilli(claims.PurchaseDate).UTC(),
		State:                 valueobject.StateUnknown,
	}
	if claims.ExpiresDate != nil {
		record.ExpiryDateUTC = epochMS(*claims.ExpiresDate)
	}
	if claims.RevocationDate != nil {
		record.CancellationDateUTC = epochMS(*claims.RevocationDate)
	}

	return &command.Verification{
		Environment: valueobject.EnvironmentFromApple(claims.Environment),
		BundleID:    claims.BundleID,
		Records:     []entity.PurchaseRecord{record},
	}, nil
}

func (c *StoreKitClient) fetch(ctx context.Context, url, bearer string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build transaction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transaction fetch failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transaction fetch returned HTTP %d", httpResp.StatusCode)
	}

	var resp transactionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("failed to parse transaction response: %w", err)
	}

	return resp.SignedTransactionInfo, nil
}
