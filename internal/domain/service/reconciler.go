package service

import (
	"fmt"
	"time"

	"github.com/mobiverify/iap-verify/internal/domain/entity"
	domainErrors "github.com/mobiverify/iap-verify/internal/domain/errors"
	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

// RevokedMessage is attached to an otherwise valid outcome whose purchase
// the store refunded or revoked from family sharing.
const RevokedMessage = "App Store refunded a transaction or revoked it from family sharing"

// Reconciler matches a client's claimed identifiers against the authority's
// purchase records and derives the canonical expiry/grace/suspension state.
// Grace days and the clock are fixed at construction so outcomes are
// deterministic under test.
type Reconciler struct {
	graceDays int
	now       func() time.Time
}

// NewReconciler creates a reconciler. A nil clock uses time.Now.
func NewReconciler(graceDays int, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	if graceDays < 0 {
		graceDays = 0
	}
	return &Reconciler{graceDays: graceDays, now: now}
}

// Reconcile validates the claimed receipt against the authority's records.
// authorityBundleID is the bundle id the authority echoed back; an empty
// value means the authority does not echo one (the call itself was already
// scoped to the bundle) and the check is skipped. Every failure, including
// a panic inside derivation, resolves to an invalid outcome; nothing
// propagates to the caller as a fault.
func (r *Reconciler) Reconcile(receipt *entity.Receipt, authorityBundleID string, records []entity.PurchaseRecord) (outcome *entity.ValidationOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = entity.Invalid(fmt.Sprint(rec))
		}
	}()

	if authorityBundleID != "" && authorityBundleID != receipt.BundleID {
		return entity.Invalid(fmt.Sprintf("bundle id '%s' does not match '%s'", receipt.BundleID, authorityBundleID))
	}

	if len(records) == 0 {
		return entity.Invalid(domainErrors.ErrNoPurchaseFound.Error())
	}

	purchase := entity.LatestForProduct(records, receipt.ProductID)
	if purchase == nil {
		return entity.Invalid(fmt.Sprintf("did not find '%s' in list of purchases", receipt.ProductID))
	}

	if !purchase.MatchesTransaction(receipt.TransactionID) {
		return entity.Invalid(fmt.Sprintf("transaction id '%s' does not match either original '%s', or '%s'",
			receipt.TransactionID, purchase.OriginalTransactionID, purchase.TransactionID))
	}

	utcNow := r.now().UTC()

	expiryUTC := purchase.ExpiryDateUTC
	graceDays := r.graceDays
	msg := ""

	// A canceled subscription runs out its paid period but earns no grace.
	if purchase.State == valueobject.StateCanceled {
		graceDays = 0
	}

	// A refund or family-sharing revocation cuts the purchase off at the
	// cancellation instant, grace notwithstanding.
	if purchase.CancellationDateUTC != nil {
		msg = RevokedMessage
		expiryUTC = purchase.CancellationDateUTC
		graceDays = 0
	}

	isExpired := expiryUTC != nil && !expiryUTC.AddDate(0, 0, graceDays).After(utcNow)

	var gracePtr *int
	if expiryUTC != nil {
		gracePtr = &graceDays
	}

	return &entity.ValidationOutcome{
		IsValid: true,
		Message: msg,
		ValidatedReceipt: &entity.ValidatedReceipt{
			BundleID:              receipt.BundleID,
			ProductID:             receipt.ProductID,
			TransactionID:         purchase.TransactionID,
			OriginalTransactionID: purchase.OriginalTransactionID,
			PurchaseDateUTC:       purchase.PurchaseDateUTC,
			ExpiryUTC:             expiryUTC,
			ServerUTC:             utcNow,
			GraceDays:             gracePtr,
			IsExpired:             isExpired,
			IsSuspended:           purchase.State.IsSuspended(),
			Token:                 receipt.Token,
		},
	}
}
