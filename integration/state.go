package integration

// State is the lifecycle state of an integration.
//
// States are ordered by capability, so comparisons such as state >= Initialized are meaningful:
//
//	NotInitialized -> Invalid | Initialized -> Disabled | Enabled -> Ready
type State int

const (
	// NotInitialized means no settings have been received for the integration.
	NotInitialized State = iota
	// Invalid means the integration's settings failed validation.
	Invalid
	// Initialized means the integration has valid settings but has not been enabled.
	Initialized
	// Disabled means the integration was turned off, by remote settings or because a required
	// permission was not granted.
	Disabled
	// Enabled means the integration has been created and is starting up.
	Enabled
	// Ready means the integration has signaled that it can receive payloads.
	Ready
)

var stateNames = [...]string{ //nolint:gochecknoglobals
	NotInitialized: "NOT_INITIALIZED",
	Invalid:        "INVALID",
	Initialized:    "INITIALIZED",
	Disabled:       "DISABLED",
	Enabled:        "ENABLED",
	Ready:          "READY",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// AtLeast returns true if s is the same as or more capable than minimum.
func (s State) AtLeast(minimum State) bool {
	return s >= minimum
}
