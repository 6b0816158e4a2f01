package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mobiverify/iap-verify/internal/domain/valueobject"
)

func TestStateFromGoogle(t *testing.T) {
	cases := map[string]valueobject.SubscriptionState{
		"SUBSCRIPTION_STATE_ACTIVE":          valueobject.StateActive,
		"SUBSCRIPTION_STATE_IN_GRACE_PERIOD": valueobject.StateActive,
		"SUBSCRIPTION_STATE_PENDING":         valueobject.StatePending,
		"SUBSCRIPTION_STATE_PAUSED":          valueobject.StatePaused,
		"SUBSCRIPTION_STATE_ON_HOLD":         valueobject.StateOnHold,
		"SUBSCRIPTION_STATE_CANCELED":        valueobject.StateCanceled,
		"SUBSCRIPTION_STATE_EXPIRED":         valueobject.StateExpired,
		"SUBSCRIPTION_STATE_UNSPECIFIED":     valueobject.StateUnknown,
		"":                                   valueobject.StateUnknown,
		"garbage":                            valueobject.StateUnknown,
	}

	for input, want := range cases {
		assert.Equal(t, want, valueobject.StateFromGoogle(input), "input %q", input)
	}
}

func TestIsSuspended(t *testing.T) {
	assert.True(t, valueobject.StatePending.IsSuspended())
	assert.True(t, valueobject.StatePaused.IsSuspended())
	assert.True(t, valueobject.StateOnHold.IsSuspended())

	assert.False(t, valueobject.StateActive.IsSuspended())
	assert.False(t, valueobject.StateCanceled.IsSuspended())
	assert.False(t, valueobject.StateExpired.IsSuspended())
	assert.False(t, valueobject.StateUnknown.IsSuspended())
}

func TestEnvironmentFromApple(t *testing.T) {
	assert.Equal(t, valueobject.EnvironmentProduction, valueobject.EnvironmentFromApple("Production"))
	assert.Equal(t, valueobject.EnvironmentProduction, valueobject.EnvironmentFromApple("production"))
	assert.Equal(t, valueobject.EnvironmentTest, valueobject.EnvironmentFromApple("Sandbox"))
	assert.Equal(t, valueobject.EnvironmentTest, valueobject.EnvironmentFromApple(""))
}
