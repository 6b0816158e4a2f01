package entity

import (
	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

// Receipt is a client-submitted claim of a purchase. It is unverified until
// it has been reconciled against the issuing store.
type Receipt struct {
	BundleID         string `json:"bundleId"`
	ProductID        string `json:"productId"`
	TransactionID    string `json:"transactionId"`
	DeveloperPayload string `json:"developerPayload"`
	Token            string `json:"token"`
	AppVersion       string `json:"appVersion"`

	// Environment is attached during validation once the authority has
	// disclosed which environment the purchase belongs to.
	Environment valueobject.Environment `json:"-"`
}

// IsValid reports whether the receipt carries every identifier the engine
// needs before any upstream call is made.
func (r *Receipt) IsValid() bool {
	return r != nil &&
		r.BundleID != "" &&
		r.ProductID != "" &&
		r.TransactionID != "" &&
		r.Token != ""
}
