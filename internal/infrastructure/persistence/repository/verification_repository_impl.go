package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainRepo "github.com/mobiverify/iap-verify/internal/domain/repository"
)

// VerificationRepositoryImpl persists one audit row per verification
// attempt using pgxpool. Rows are append-only; nothing here updates or
// deletes them.
type VerificationRepositoryImpl struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewVerificationRepository creates a new verification log repository
func NewVerificationRepository(pool *pgxpool.Pool, logger *zap.Logger) domainRepo.VerificationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationRepositoryImpl{pool: pool, logger: logger}
}

// SaveVerificationLog writes the flattened outcome row. A failed write is
// logged and reported as false; it never fails the verification itself.
func (r *VerificationRepositoryImpl) SaveVerificationLog(ctx context.Context, storeName, validatorRoute string, receipt *entity.Receipt, outcome *entity.ValidationOutcome) bool {
	if receipt == nil || outcome == nil {
		return false
	}

	query := `
		INSERT INTO verifications (
			id, store_name, validator_route,
			bundle_id, product_id, transaction_id,
			developer_payload, token, app_version,
			environment, is_valid, message, date_verified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		uuid.New(),
		storeName,
		validatorRoute,
		receipt.BundleID,
		receipt.ProductID,
		receipt.TransactionID,
		receipt.DeveloperPayload,
		receipt.Token,
		receipt.AppVersion,
		receipt.Environment.String(),
		outcome.IsValid,
		outcome.Message,
		time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("failed to save verification log",
			zap.String("store", storeName),
			zap.String("bundle_id", receipt.BundleID),
			zap.String("product_id", receipt.ProductID),
			zap.Error(err),
		)
		return false
	}

	return true
}
