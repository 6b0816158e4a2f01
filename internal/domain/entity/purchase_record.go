package entity

import (
	"time"

	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

// PurchaseRecord is the engine's normalized representation of one upstream
// purchase or transaction, independent of which store or API version
// produced it. Records are produced fresh on every verification call and
// are never persisted.
type PurchaseRecord struct {
	ProductID             string
	TransactionID         string
	OriginalTransactionID string

	PurchaseDateUTC     time.Time
	ExpiryDateUTC       *time.Time
	CancellationDateUTC *time.Time

	State valueobject.SubscriptionState
}

// MatchesTransaction reports whether the claimed transaction id identifies
// this record. A renewal's current transaction id differs from the original
// that the client may still be holding, so either matches.
func (p *PurchaseRecord) MatchesTransaction(claimed string) bool {
	return claimed == p.TransactionID || claimed == p.OriginalTransactionID
}

// LatestForProduct selects the authoritative record for a product from the
// purchase history an authority may return: the entry with the numerically
// greatest purchase timestamp, ties resolving to the last one encountered
// in the authority's ordering. Returns nil when no entry matches.
func LatestForProduct(records []PurchaseRecord, productID string) *PurchaseRecord {
	var latest *PurchaseRecord
	for i := range records {
		r := &records[i]
		if r.ProductID != productID {
			continue
		}
		if latest == nil || !r.PurchaseDateUTC.Before(latest.PurchaseDateUTC) {
			latest = r
		}
	}
	return latest
}
