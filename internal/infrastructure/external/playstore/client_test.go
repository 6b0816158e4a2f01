package playstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/androidpublisher/v3"
)

func TestBaseOrderID(t *testing.T) {
	cases := map[string]string{
		"GPA.1234-5678-9012-34567":    "GPA.1234-5678-9012-34567",
		"GPA.1234-5678-9012-34567..0": "GPA.1234-5678-9012-34567",
		"GPA.1234-5678-9012-34567..7": "GPA.1234-5678-9012-34567",
		"":                            "",
		"..0":                         "..0",
	}

	for orderID, want := range cases {
		assert.Equal(t, want, baseOrderID(orderID), "order id %q", orderID)
	}
}

func TestParseRFC3339(t *testing.T) {
	t.Run("valid timestamp normalizes to UTC", func(t *testing.T) {
		got := parseRFC3339("2024-06-01T14:00:00+02:00")
		assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), got)
	})

	t.Run("unparseable values default to the epoch", func(t *testing.T) {
		assert.Equal(t, time.UnixMilli(0).UTC(), parseRFC3339(""))
		assert.Equal(t, time.UnixMilli(0).UTC(), parseRFC3339("not a date"))
	})
}

func TestLatestLineItemExpiry(t *testing.T) {
	t.Run("picks the greatest expiry", func(t *testing.T) {
		items := []*androidpublisher.SubscriptionPurchaseLineItem{
			{ExpiryTime: "2024-06-01T00:00:00Z"},
			{ExpiryTime: "2024-09-01T00:00:00Z"},
			{ExpiryTime: "2024-07-01T00:00:00Z"},
		}

		got := latestLineItemExpiry(items)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("skips empty and malformed entries", func(t *testing.T) {
		items := []*androidpublisher.SubscriptionPurchaseLineItem{
			nil,
			{ExpiryTime: ""},
			{ExpiryTime: "garbage"},
			{ExpiryTime: "2024-06-01T00:00:00Z"},
		}

		got := latestLineItemExpiry(items)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("nil when nothing parses", func(t *testing.T) {
		assert.Nil(t, latestLineItemExpiry(nil))
		assert.Nil(t, latestLineItemExpiry([]*androidpublisher.SubscriptionPurchaseLineItem{{ExpiryTime: "garbage"}}))
	})
}
