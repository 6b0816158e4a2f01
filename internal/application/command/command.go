package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	"github.com/mobiverify/iap-verify/internal/domain/repository"
)

// Store names and validator routes, shared by the orchestrators and the
// audit rows they write.
const (
	StoreApple  = "Apple"
	StoreGoogle = "Google"

	RouteAppleV1  = "v1/Apple"
	RouteAppleV2  = "v2/Apple"
	RouteGoogleV1 = "v1/Google"
)

// finishVerification writes the audit row and the per-request info line.
// It runs on every path, success or failure; a request cancelled before
// this point writes no row.
func finishVerification(ctx context.Context, repo repository.VerificationRepository, logger *zap.Logger, storeName, route string, receipt *entity.Receipt, outcome *entity.ValidationOutcome) {
	if ctx.Err() == nil && repo != nil {
		repo.SaveVerificationLog(ctx, storeName, route, receipt, outcome)
	}

	if outcome.IsValid && outcome.ValidatedReceipt != nil {
		logger.Info("validated IAP",
			zap.String("bundle_id", receipt.BundleID),
			zap.String("product_id", receipt.ProductID),
		)
		return
	}

	if receipt.BundleID != "" && receipt.ProductID != "" {
		logger.Info("failed to validate IAP",
			zap.String("bundle_id", receipt.BundleID),
			zap.String("product_id", receipt.ProductID),
			zap.String("reason", outcome.Message),
		)
	} else {
		logger.Info("failed to validate IAP",
			zap.String("reason", outcome.Message),
		)
	}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
