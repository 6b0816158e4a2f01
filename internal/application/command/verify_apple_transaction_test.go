package command_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobiverify/iap-verify/internal/application/command"
	"github.com/mobiverify/iap-verify/internal/domain/entity"
	"github.com/mobiverify/iap-verify/internal/domain/service"
	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

type fakeTransactionVerifier struct {
	calls         int
	transactionID string
	verification  *command.Verification
	err           error
}

func (f *fakeTransactionVerifier) VerifyTransaction(ctx context.Context, bundleID, transactionID string) (*command.Verification, error) {
	f.calls++
	f.transactionID = transactionID
	return f.verification, f.err
}

func TestVerifyAppleTransactionCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies by transaction id, not token", func(t *testing.T) {
		verifier := &fakeTransactionVerifier{
			verification: &command.Verification{
				Environment: valueobject.EnvironmentProduction,
				BundleID:    "com.example.app",
				Records: []entity.PurchaseRecord{{
					ProductID:             "gold",
					TransactionID:         "1000",
					OriginalTransactionID: "1000",
					PurchaseDateUTC:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				}},
			},
		}
		audit := &auditRecorder{}
		cmd := command.NewVerifyAppleTransactionCommand(verifier, service.NewReconciler(0, testClock()), audit, nil)

		outcome := cmd.Execute(ctx, testReceipt())

		require.True(t, outcome.IsValid)
		assert.Equal(t, "1000", verifier.transactionID)
		require.Len(t, audit.calls, 1)
		assert.Equal(t, command.StoreApple, audit.calls[0].storeName)
		assert.Equal(t, command.RouteAppleV2, audit.calls[0].route)
	})

	t.Run("incomplete receipt short-circuits", func(t *testing.T) {
		verifier := &fakeTransactionVerifier{}
		audit := &auditRecorder{}
		cmd := command.NewVerifyAppleTransactionCommand(verifier, service.NewReconciler(0, testClock()), audit, nil)

		receipt := testReceipt()
		receipt.TransactionID = ""
		outcome := cmd.Execute(ctx, receipt)

		require.False(t, outcome.IsValid)
		assert.Equal(t, "Invalid Receipt", outcome.Message)
		assert.Zero(t, verifier.calls)
	})

	t.Run("upstream failure becomes an invalid outcome", func(t *testing.T) {
		verifier := &fakeTransactionVerifier{err: errors.New("transaction fetch returned HTTP 401")}
		audit := &auditRecorder{}
		cmd := command.NewVerifyAppleTransactionCommand(verifier, service.NewReconciler(0, testClock()), audit, nil)

		outcome := cmd.Execute(ctx, testReceipt())

		require.False(t, outcome.IsValid)
		assert.Equal(t, "transaction fetch returned HTTP 401", outcome.Message)
		require.Len(t, audit.calls, 1)
	})
}
