package valueobject

// SubscriptionState is the normalized subscription lifecycle state across
// every upstream store and API generation.
type SubscriptionState string

const (
	StateActive   SubscriptionState = "active"
	StatePending  SubscriptionState = "pending"
	StatePaused   SubscriptionState = "paused"
	StateOnHold   SubscriptionState = "on_hold"
	StateCanceled SubscriptionState = "canceled"
	StateExpired  SubscriptionState = "expired"
	StateUnknown  SubscriptionState = "unknown"
)

// StateFromGoogle maps a Play subscriptionsv2 SUBSCRIPTION_STATE_* string
// into the normalized state. Unrecognized values map to StateUnknown.
func StateFromGoogle(state string) SubscriptionState {
	switch state {
	case "SUBSCRIPTION_STATE_ACTIVE", "SUBSCRIPTION_STATE_IN_GRACE_PERIOD":
		return StateActive
	case "SUBSCRIPTION_STATE_PENDING":
		return StatePending
	case "SUBSCRIPTION_STATE_PAUSED":
		return StatePaused
	case "SUBSCRIPTION_STATE_ON_HOLD":
		return StateOnHold
	case "SUBSCRIPTION_STATE_CANCELED":
		return StateCanceled
	case "SUBSCRIPTION_STATE_EXPIRED":
		return StateExpired
	default:
		return StateUnknown
	}
}

// String returns the string representation of the state
func (s SubscriptionState) String() string {
	return string(s)
}

// IsSuspended reports whether the state blocks entitlement without the
// subscription being expired: a purchase pending payment, paused by the
// user, or on billing hold.
func (s SubscriptionState) IsSuspended() bool {
	return s == StatePending || s == StatePaused || s == StateOnHold
}
