package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainErrors "github.com/mobiverify/iap-verify/internal/domain/errors"
	"github.com/mobiverify/iap-verify/internal/domain/repository"
	"github.com/mobiverify/iap-verify/internal/domain/service"
)

// VerifyAppleReceiptCommand is the orchestrator for the iOS7-style receipt
// path: shape pre-check, verifyReceipt call with environment fallback,
// reconciliation, audit write.
type VerifyAppleReceiptCommand struct {
	verifier   AppleReceiptVerifier
	reconciler *service.Reconciler
	repo       repository.VerificationRepository
	logger     *zap.Logger
}

// NewVerifyAppleReceiptCommand creates a new Apple receipt verification command
func NewVerifyAppleReceiptCommand(
	verifier AppleReceiptVerifier,
	reconciler *service.Reconciler,
	repo repository.VerificationRepository,
	logger *zap.Logger,
) *VerifyAppleReceiptCommand {
	return &VerifyAppleReceiptCommand{
		verifier:   verifier,
		reconciler: reconciler,
		repo:       repo,
		logger:     orNop(logger),
	}
}

// Execute verifies one receipt. It always returns an outcome, never an
// error: every upstream or reconciliation failure is absorbed into an
// invalid outcome carrying the reason.
func (c *VerifyAppleReceiptCommand) Execute(ctx context.Context, receipt *entity.Receipt) *entity.ValidationOutcome {
	var outcome *entity.ValidationOutcome

	if receipt.IsValid() {
		verification, err := c.verifier.VerifyReceipt(ctx, receipt.BundleID, receipt.Token)
		if err != nil {
			outcome = entity.Invalid(err.Error())
		} else {
			receipt.Environment = verification.Environment
			outcome = c.reconciler.Reconcile(receipt, verification.BundleID, verification.Records)
		}
	} else {
		outcome = entity.Invalid(domainErrors.ErrInvalidReceipt.Error())
	}

	finishVerification(ctx, c.repo, c.logger, StoreApple, RouteAppleV1, receipt, outcome)
	return outcome
}
