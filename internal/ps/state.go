package ps

// State represents the power-save negotiation state of an adapter
type State int

const (
	// StateIdle means the radio is fully active and no negotiation is outstanding
	StateIdle State = iota
	// StateDisablePending means a wake-up request was sent and awaits confirmation
	StateDisablePending
	// StateEnablePending means a sleep request was sent and awaits confirmation
	StateEnablePending
	// StateEnabled means power save is confirmed active by hardware
	StateEnabled
)

// String returns the state name for diagnostics
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDisablePending:
		return "DISABLE_PENDING"
	case StateEnablePending:
		return "ENABLE_PENDING"
	case StateEnabled:
		return "ENABLED"
	default:
		return "INVALID_STATE"
	}
}

// Confirmation represents the typed tag extracted from an inbound
// confirmation frame by the decoding layer
type Confirmation int

const (
	// ConfirmationUnknown marks a tag the decoder did not recognize
	ConfirmationUnknown Confirmation = iota
	// ConfirmationSleep confirms a previously sent enable request
	ConfirmationSleep
	// ConfirmationWakeup confirms a previously sent disable request
	ConfirmationWakeup
)

// String returns the confirmation tag name for diagnostics
func (c Confirmation) String() string {
	switch c {
	case ConfirmationSleep:
		return "SLEEP_CONFIRM"
	case ConfirmationWakeup:
		return "WAKEUP_CONFIRM"
	default:
		return "UNKNOWN_CONFIRM"
	}
}
