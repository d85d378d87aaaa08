package provisioning

// State is the provisioning protocol state.
type State uint8

const (
	// StateIdle means no provisioning is in progress.
	StateIdle State = iota

	// StateInvite means provisioning began and an invite may be sent.
	StateInvite

	// StateStart means capabilities were received.
	StateStart

	// StatePublicKeyExchange means public keys are being exchanged.
	StatePublicKeyExchange

	// StateConfirmation means the peer sent its confirmation.
	StateConfirmation

	// StateRandom means the peer sent its random.
	StateRandom

	// StateData means provisioning data may be sent.
	StateData

	// StateComplete is terminal: the device was provisioned.
	StateComplete

	// StateFailed is terminal: the device reported a failure.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateInvite:
		return "INVITE"
	case StateStart:
		return "START"
	case StatePublicKeyExchange:
		return "PUBLIC_KEY_EXCHANGE"
	case StateConfirmation:
		return "CONFIRMATION"
	case StateRandom:
		return "RANDOM"
	case StateData:
		return "DATA"
	case StateComplete:
		return "COMPLETE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is COMPLETE or FAILED.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}
