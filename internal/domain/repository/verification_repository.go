package repository

import (
	"context"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
)

// VerificationRepository is the audit log collaborator: one append-only row
// per verification attempt, valid or not. The engine's own outcome never
// depends on the save succeeding.
type VerificationRepository interface {
	SaveVerificationLog(ctx context.Context, storeName, validatorRoute string, receipt *entity.Receipt, outcome *entity.ValidationOutcome) bool
}
