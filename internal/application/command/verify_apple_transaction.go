package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainErrors "github.com/mobiverify/iap-verify/internal/domain/errors"
	"github.com/mobiverify/iap-verify/internal/domain/repository"
	"github.com/mobiverify/iap-verify/internal/domain/service"
)

// VerifyAppleTransactionCommand is the orchestrator for the StoreKit v2
// signed transaction path.
type VerifyAppleTransactionCommand struct {
	verifier   AppleTransactionVerifier
	reconciler *service.Reconciler
	repo       repository.VerificationRepository
	logger     *zap.Logger
}

// NewVerifyAppleTransactionCommand creates a new StoreKit transaction verification command
func NewVerifyAppleTransactionCommand(
	verifier AppleTransactionVerifier,
	reconciler *service.Reconciler,
	repo repository.VerificationRepository,
	logger *zap.Logger,
) *VerifyAppleTransactionCommand {
	return &VerifyAppleTransactionCommand{
		verifier:   verifier,
		reconciler: reconciler,
		repo:       repo,
		logger:     orNop(logger),
	}
}

// Execute verifies one transaction claim against the App Store Server API.
func (c *VerifyAppleTransactionCommand) Execute(ctx context.Context, receipt *entity.Receipt) *entity.ValidationOutcome {
	var outcome *entity.ValidationOutcome

	if receipt.IsValid() {
		verification, err := c.verifier.VerifyTransaction(ctx, receipt.BundleID, receipt.TransactionID)
		if err != nil {
			outcome = entity.Invalid(err.Error())
		} else {
			receipt.Environment = verification.Environment
			outcome = c.reconciler.Reconcile(receipt, verification.BundleID, verification.Records)
		}
	} else {
		outcome = entity.Invalid(domainErrors.ErrInvalidReceipt.Error())
	}

	finishVerification(ctx, c.repo, c.logger, StoreApple, RouteAppleV2, receipt, outcome)
	return outcome
}
