package command

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainErrors "github.com/mobiverify/iap-verify/internal/domain/errors"
	"github.com/mobiverify/iap-verify/internal/domain/repository"
	"github.com/mobiverify/iap-verify/internal/domain/service"
)

// VerifyGoogleCommand is the orchestrator for Play purchases. A Google
// receipt does not say whether its product is a one-time product or a
// subscription, so the command discovers the type first and then verifies
// through the matching endpoint.
type VerifyGoogleCommand struct {
	verifier   GooglePlayVerifier
	reconciler *service.Reconciler
	repo       repository.VerificationRepository
	logger     *zap.Logger
}

// NewVerifyGoogleCommand creates a new Google verification command
func NewVerifyGoogleCommand(
	verifier GooglePlayVerifier,
	reconciler *service.Reconciler,
	repo repository.VerificationRepository,
	logger *zap.Logger,
) *VerifyGoogleCommand {
	return &VerifyGoogleCommand{
		verifier:   verifier,
		reconciler: reconciler,
		repo:       repo,
		logger:     orNop(logger),
	}
}

// Execute verifies one purchase token. The two discovery lookups run
// concurrently and are both awaited before branching: the branch needs the
// result of whichever lookup matched, not whichever answered first.
func (c *VerifyGoogleCommand) Execute(ctx context.Context, receipt *entity.Receipt) *entity.ValidationOutcome {
	var outcome *entity.ValidationOutcome

	if receipt.IsValid() {
		var (
			purchaseType string
			productFound bool
			subFound     bool
		)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			purchaseType, productFound = c.verifier.FindProductType(ctx, receipt.BundleID, receipt.ProductID)
		}()
		go func() {
			defer wg.Done()
			subFound = c.verifier.FindSubscription(ctx, receipt.BundleID, receipt.ProductID)
		}()
		wg.Wait()

		var (
			verification *Verification
			err          error
		)

		switch {
		case productFound && strings.EqualFold(purchaseType, "subscription"):
			// Legacy subscriptions are configured as in-app products.
			verification, err = c.verifier.VerifyLegacySubscription(ctx, receipt.BundleID, receipt.ProductID, receipt.Token)
		case productFound:
			verification, err = c.verifier.VerifyProduct(ctx, receipt.BundleID, receipt.ProductID, receipt.Token)
		case subFound:
			verification, err = c.verifier.VerifySubscription(ctx, receipt.BundleID, receipt.ProductID, receipt.Token)
		default:
			outcome = entity.Invalid(fmt.Sprintf("IAP '%s':'%s' not found", receipt.BundleID, receipt.ProductID))
		}

		if outcome == nil {
			if err != nil {
				outcome = entity.Invalid(err.Error())
			} else {
				receipt.Environment = verification.Environment
				outcome = c.reconciler.Reconcile(receipt, verification.BundleID, verification.Records)
			}
		}
	} else {
		outcome = entity.Invalid(domainErrors.ErrInvalidReceipt.Error())
	}

	finishVerification(ctx, c.repo, c.logger, StoreGoogle, RouteGoogleV1, receipt, outcome)
	return outcome
}
